package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmehdipour/installbase-sync/internal/catalog"
	"github.com/jmehdipour/installbase-sync/internal/logger"
	"github.com/jmehdipour/installbase-sync/internal/metrics"
	"github.com/jmehdipour/installbase-sync/internal/model"
	"github.com/jmehdipour/installbase-sync/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stats counts per-identifier outcomes of one sync cycle.
type Stats struct {
	Total       int `json:"total"`
	Stored      int `json:"stored"`
	Malformed   int `json:"malformed"`
	FetchFailed int `json:"fetch_failed"`
	StoreFailed int `json:"store_failed"`
}

func (s Stats) Failed() int {
	return s.Malformed + s.FetchFailed + s.StoreFailed
}

func (s Stats) Complete() bool {
	return s.Failed() == 0
}

// Syncer refreshes every install base named by the manifest:
// - normalizes each identifier to its canonical nine-digit form,
// - fetches the install-base payload from the catalog,
// - stores the raw payload in the object store, overwriting the old copy.
// A failing identifier never stops the rest of the cycle.
type Syncer struct {
	// Dependencies
	Catalog catalog.Client
	Records repository.RecordsRepository

	// Behavior
	Concurrency int // identifiers in flight; 1 = strict manifest order
}

func NewSyncer(catalogClient catalog.Client, records repository.RecordsRepository, concurrency int) *Syncer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Syncer{
		Catalog:     catalogClient,
		Records:     records,
		Concurrency: concurrency,
	}
}

// SyncAll processes the given raw identifiers and returns cycle stats, one
// CycleFailure per contained failure, and the joined error across all of
// them (nil only when every identifier stored). Cancellation stops new work
// and surfaces ctx.Err() in the aggregate.
func (w *Syncer) SyncAll(ctx context.Context, cycleID string, gduns []string) (Stats, []model.CycleFailure, error) {
	stats := Stats{Total: len(gduns)}

	var (
		mu       sync.Mutex
		errs     []error
		failures []model.CycleFailure
	)

	collect := func(o outcome) {
		mu.Lock()
		defer mu.Unlock()
		if o.err == nil {
			stats.Stored++
			return
		}
		switch o.kind {
		case model.FailureMalformed:
			stats.Malformed++
		case model.FailureFetchFailed:
			stats.FetchFailed++
		case model.FailureStoreFailed:
			stats.StoreFailed++
		}
		failures = append(failures, model.CycleFailure{
			CycleID:    cycleID,
			GDUNS:      o.bestID(),
			Kind:       o.kind,
			Error:      o.err.Error(),
			OccurredAt: time.Now().UTC(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", o.bestID(), o.err))
	}

	var g errgroup.Group
	g.SetLimit(w.Concurrency)

	for _, raw := range gduns {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			collect(w.syncOne(ctx, cycleID, raw))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	return stats, failures, errors.Join(errs...)
}

type outcome struct {
	raw  string
	id   string // canonical form, empty when normalization failed
	kind model.FailureKind
	err  error
}

func (o outcome) bestID() string {
	if o.id != "" {
		return o.id
	}
	return o.raw
}

func (w *Syncer) syncOne(ctx context.Context, cycleID, raw string) outcome {
	id, err := model.NormalizeGDUN(raw)
	if err != nil {
		metrics.RecordsTotal.WithLabelValues("malformed").Inc()
		logger.Log.Warn("[sync] skipping malformed identifier",
			zap.String("cycle_id", cycleID), zap.String("gduns", raw), zap.Error(err))
		return outcome{raw: raw, kind: model.FailureMalformed, err: err}
	}

	payload, err := w.Catalog.FetchInstallBase(ctx, id)
	if err != nil {
		metrics.RecordsTotal.WithLabelValues("fetch_failed").Inc()
		logger.Log.Warn("[sync] fetch failed",
			zap.String("cycle_id", cycleID), zap.String("gduns", id), zap.Error(err))
		return outcome{raw: raw, id: id, kind: model.FailureFetchFailed, err: err}
	}

	label, err := w.Records.Store(ctx, id, payload)
	if err != nil {
		metrics.RecordsTotal.WithLabelValues("store_failed").Inc()
		logger.Log.Warn("[sync] store failed",
			zap.String("cycle_id", cycleID), zap.String("gduns", id), zap.Error(err))
		return outcome{raw: raw, id: id, kind: model.FailureStoreFailed, err: err}
	}

	metrics.RecordsTotal.WithLabelValues("stored").Inc()
	logger.Log.Info("[sync] stored install base",
		zap.String("cycle_id", cycleID), zap.String("gduns", id),
		zap.String("customer", label), zap.Int("bytes", len(payload)))
	return outcome{raw: raw, id: id}
}
