package scheduler

import (
	"context"
	"time"

	"github.com/jmehdipour/installbase-sync/internal/logger"
	"github.com/jmehdipour/installbase-sync/internal/metrics"
	"github.com/jmehdipour/installbase-sync/internal/model"
	"github.com/jmehdipour/installbase-sync/internal/repository"
	"github.com/jmehdipour/installbase-sync/internal/status"
	"github.com/jmehdipour/installbase-sync/internal/util"
	"github.com/jmehdipour/installbase-sync/internal/worker"
	"go.uber.org/zap"
)

// CycleRunner is the slice of the sync worker the scheduler drives.
type CycleRunner interface {
	SyncAll(ctx context.Context, cycleID string, gduns []string) (worker.Stats, []model.CycleFailure, error)
}

// CycleLease gates a cycle to a single instance; see the lease package.
type CycleLease interface {
	TryAcquire(ctx context.Context, cycleID string) (bool, error)
}

// Scheduler owns the recurring cycle loop. The next timer is armed only
// after the previous cycle fully finishes, so the effective period is
// interval plus cycle duration; start times drift forward and never align
// to wall-clock boundaries.
type Scheduler struct {
	// Dependencies
	Manifest repository.ManifestRepository
	Runner   CycleRunner
	History  repository.HistoryRepository // nil disables cycle history
	Lease    CycleLease                   // nil disables cross-instance gating
	Status   *status.Tracker

	// Behavior
	Interval time.Duration // delay between cycle end and next cycle start
}

func New(manifest repository.ManifestRepository, runner CycleRunner, tracker *status.Tracker, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		Manifest: manifest,
		Runner:   runner,
		Status:   tracker,
		Interval: interval,
	}
}

// Start runs one cycle immediately, then blocks until ctx is cancelled,
// re-arming a fresh timer after each cycle ends.
func (s *Scheduler) Start(ctx context.Context) error {
	logger.Log.Info("[scheduler] starting", zap.Duration("interval", s.Interval))

	for {
		s.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		next := time.Now().Add(s.Interval)
		s.Status.SetNextCycle(next)
		logger.Log.Info("[scheduler] next cycle armed", zap.Time("at", next))

		timer := time.NewTimer(s.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce executes a single cycle end to end and returns its report.
func (s *Scheduler) RunOnce(ctx context.Context) model.CycleReport {
	cycleID := util.CycleID()
	started := time.Now().UTC()

	s.Status.SetPhase(status.PhaseLoadingManifest)

	if s.Lease != nil {
		if ok, err := s.Lease.TryAcquire(ctx, cycleID); err != nil {
			// Fail open: a broken coordination store must not stop the sync.
			logger.Log.Warn("[scheduler] lease check failed, proceeding",
				zap.String("cycle_id", cycleID), zap.Error(err))
		} else if !ok {
			logger.Log.Info("[scheduler] another instance holds the cycle lease, skipping",
				zap.String("cycle_id", cycleID))
			metrics.CyclesTotal.WithLabelValues("skipped").Inc()
			s.Status.SetPhase(status.PhaseIdle)
			return model.CycleReport{
				CycleID:    cycleID,
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
				Status:     model.CycleSkipped,
			}
		}
	}

	gduns, err := s.Manifest.Load(ctx)
	if err != nil {
		finished := time.Now().UTC()
		rep := model.CycleReport{
			CycleID:    cycleID,
			StartedAt:  started,
			FinishedAt: finished,
			Status:     model.CycleAborted,
			Error:      err.Error(),
		}
		metrics.CyclesTotal.WithLabelValues("aborted").Inc()
		metrics.LastCycleTimestamp.Set(float64(finished.Unix()))
		logger.Log.Error("[scheduler] cycle aborted, manifest unavailable",
			zap.String("cycle_id", cycleID), zap.Error(err))
		s.persist(ctx, rep, nil)
		s.Status.CycleFinished(rep)
		return rep
	}

	logger.Log.Info("[scheduler] manifest loaded",
		zap.String("cycle_id", cycleID), zap.Int("identifiers", len(gduns)))

	s.Status.SetPhase(status.PhaseSyncing)

	stats, failures, err := s.Runner.SyncAll(ctx, cycleID, gduns)
	finished := time.Now().UTC()

	rep := model.CycleReport{
		CycleID:    cycleID,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     model.CycleCompleted,
		Total:      stats.Total,
		Stored:     stats.Stored,
		Failed:     stats.Failed(),
	}
	if err != nil {
		rep.Status = model.CycleIncomplete
		rep.Error = err.Error()
	}

	metrics.CyclesTotal.WithLabelValues(rep.Status.String()).Inc()
	metrics.CycleDuration.Observe(finished.Sub(started).Seconds())
	metrics.LastCycleTimestamp.Set(float64(finished.Unix()))

	if rep.Status == model.CycleCompleted {
		logger.Log.Info("[scheduler] cycle completed successfully",
			zap.String("cycle_id", cycleID),
			zap.Int("total", rep.Total), zap.Int("stored", rep.Stored),
			zap.Duration("duration", finished.Sub(started)))
	} else {
		logger.Log.Warn("[scheduler] cycle likely incomplete",
			zap.String("cycle_id", cycleID),
			zap.Int("total", rep.Total), zap.Int("stored", rep.Stored),
			zap.Int("malformed", stats.Malformed),
			zap.Int("fetch_failed", stats.FetchFailed),
			zap.Int("store_failed", stats.StoreFailed),
			zap.Duration("duration", finished.Sub(started)),
			zap.Error(err))
	}

	s.persist(ctx, rep, failures)
	s.Status.CycleFinished(rep)
	return rep
}

// persist writes the cycle to history. Detached from the run context so a
// shutdown right after a cycle still gets its report recorded.
func (s *Scheduler) persist(ctx context.Context, rep model.CycleReport, failures []model.CycleFailure) {
	if s.History == nil {
		return
	}

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.History.InsertCycle(hctx, rep, failures); err != nil {
		logger.Log.Warn("[scheduler] history write failed",
			zap.String("cycle_id", rep.CycleID), zap.Error(err))
	}
}
