package main

import "github.com/jmehdipour/installbase-sync/cmd"

func main() { cmd.Execute() }
