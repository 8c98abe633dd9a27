package status

import (
	"sync"
	"time"

	"github.com/jmehdipour/installbase-sync/internal/model"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseLoadingManifest Phase = "loading_manifest"
	PhaseSyncing         Phase = "syncing"
)

// Snapshot is the externally visible daemon state served on /v1/status.
type Snapshot struct {
	Phase       Phase              `json:"phase"`
	StartedAt   time.Time          `json:"started_at"`
	CyclesRun   int                `json:"cycles_run"`
	LastCycle   *model.CycleReport `json:"last_cycle,omitempty"`
	NextCycleAt *time.Time         `json:"next_cycle_at,omitempty"`
}

// Tracker is a mutex-guarded snapshot shared between the scheduler and the
// HTTP layer.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{
		Phase:     PhaseIdle,
		StartedAt: time.Now().UTC(),
	}}
}

func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Phase = p
}

// CycleFinished records the report and flips the phase back to idle.
func (t *Tracker) CycleFinished(rep model.CycleReport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	repCopy := rep
	t.snap.Phase = PhaseIdle
	t.snap.CyclesRun++
	t.snap.LastCycle = &repCopy
}

func (t *Tracker) SetNextCycle(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	atCopy := at
	t.snap.NextCycleAt = &atCopy
}

// Snapshot returns a detached copy; mutating it never touches the tracker.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := t.snap
	if t.snap.LastCycle != nil {
		rep := *t.snap.LastCycle
		snap.LastCycle = &rep
	}
	if t.snap.NextCycleAt != nil {
		at := *t.snap.NextCycleAt
		snap.NextCycleAt = &at
	}
	return snap
}
