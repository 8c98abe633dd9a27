package model

// ManifestEntry is one row of the manifest object in the repository. Only
// the gduns field matters to the pipeline; extra fields are ignored.
type ManifestEntry struct {
	GDUNS string `json:"gduns"`
}
