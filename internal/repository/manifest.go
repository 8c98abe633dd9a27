package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmehdipour/installbase-sync/internal/model"
)

// ErrManifestUnavailable marks a cycle-fatal manifest problem: the object is
// missing, unreadable, or not valid manifest JSON. Callers abort the cycle
// and wait for the next one rather than syncing a partial list.
var ErrManifestUnavailable = errors.New("manifest unavailable")

// ManifestRepository reads the authoritative list of customer identifiers.
type ManifestRepository interface {
	Load(ctx context.Context) ([]string, error)
}

type manifestRepository struct {
	objects ObjectRepository
	key     string
}

func NewManifestRepository(objects ObjectRepository, key string) ManifestRepository {
	return &manifestRepository{objects: objects, key: key}
}

// Load re-reads the manifest object and returns its identifiers in manifest
// order, raw and unvalidated. The manifest is never cached across cycles.
func (r *manifestRepository) Load(ctx context.Context) ([]string, error) {
	data, err := r.objects.GetObject(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrManifestUnavailable, r.key, err)
	}

	var entries []model.ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrManifestUnavailable, r.key, err)
	}

	gduns := make([]string, 0, len(entries))
	for i, e := range entries {
		if e.GDUNS == "" {
			return nil, fmt.Errorf("%w: entry %d in %s has no gduns field", ErrManifestUnavailable, i, r.key)
		}
		gduns = append(gduns, e.GDUNS)
	}
	return gduns, nil
}
