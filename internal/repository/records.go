package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/installbase-sync/internal/model"
)

// RecordsRepository persists per-customer install-base payloads.
type RecordsRepository interface {
	// Store writes the raw payload under <canonicalID>.json, overwriting any
	// previous copy, and returns a best-effort customer label for logging.
	Store(ctx context.Context, canonicalID string, payload []byte) (string, error)
}

type recordsRepository struct {
	objects ObjectRepository
}

func NewRecordsRepository(objects ObjectRepository) RecordsRepository {
	return &recordsRepository{objects: objects}
}

func (r *recordsRepository) Store(ctx context.Context, canonicalID string, payload []byte) (string, error) {
	key := canonicalID + ".json"
	if err := r.objects.PutObject(ctx, key, payload); err != nil {
		return "", fmt.Errorf("store record %s: %w", key, err)
	}
	return model.CustomerLabel(payload), nil
}
