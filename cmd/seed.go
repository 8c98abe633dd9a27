package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmehdipour/installbase-sync/internal/config"
	"github.com/jmehdipour/installbase-sync/internal/db"
	"github.com/jmehdipour/installbase-sync/internal/model"
	"github.com/jmehdipour/installbase-sync/internal/repository"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upload a demo manifest to the object store",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) connect object store
		s3c, err := db.NewS3Client(cmd.Context(), db.S3Opts{
			Endpoint:       cfg.Repository.Endpoint,
			Region:         cfg.Repository.Region,
			AccessKey:      cfg.Repository.AccessKey,
			SecretKey:      cfg.Repository.SecretKey,
			ForcePathStyle: cfg.Repository.ForcePathStyle,
		})
		if err != nil {
			return fmt.Errorf("s3 client: %w", err)
		}
		objects := repository.NewS3ObjectRepository(s3c, cfg.Repository.Bucket)

		log.Println(">> Seeding demo manifest...")

		// deterministic demo identifiers (7, 8 and 9 digit forms)
		entries := []model.ManifestEntry{
			{GDUNS: "804735132"},
			{GDUNS: "69598425"},
			{GDUNS: "1234567"},
			{GDUNS: "361425187"},
			{GDUNS: "55443322"},
		}
		body, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal manifest: %w", err)
		}

		if err := objects.PutObject(cmd.Context(), cfg.Repository.ManifestKey, body); err != nil {
			return fmt.Errorf("upload manifest %s: %w", cfg.Repository.ManifestKey, err)
		}

		log.Printf(">> Seed completed: %d identifiers in %s ✅", len(entries), cfg.Repository.ManifestKey)
		return nil
	},
}
