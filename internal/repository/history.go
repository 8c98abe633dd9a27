package repository

import (
	"context"
	"strings"

	"github.com/jmehdipour/installbase-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

// HistoryRepository records finished cycles in ClickHouse and serves the
// reporting API.
type HistoryRepository interface {
	InsertCycle(ctx context.Context, report model.CycleReport, failures []model.CycleFailure) error
	ListCycles(ctx context.Context, limit, offset int) ([]model.CycleReport, error)
	ListFailures(ctx context.Context, cycleID string, limit, offset int) ([]model.CycleFailure, error)
}

type chHistoryRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHHistoryRepository(ch *sqlx.DB) HistoryRepository {
	return &chHistoryRepository{ch: ch}
}

func (r *chHistoryRepository) InsertCycle(ctx context.Context, report model.CycleReport, failures []model.CycleFailure) error {
	_, err := r.ch.ExecContext(ctx, `
		INSERT INTO ibsync.sync_cycles
			(cycle_id, started_at, finished_at, status, total, stored, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, report.CycleID, report.StartedAt, report.FinishedAt, report.Status.String(),
		int32(report.Total), int32(report.Stored), int32(report.Failed), report.Error)
	if err != nil {
		return err
	}
	return r.insertFailureBatch(ctx, failures)
}

func (r *chHistoryRepository) insertFailureBatch(ctx context.Context, rows []model.CycleFailure) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(rows)*5)

	sb.WriteString(`INSERT INTO ibsync.sync_failures (cycle_id, gduns, kind, error, occurred_at) VALUES `)
	for i, f := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, f.CycleID, f.GDUNS, f.Kind.String(), f.Error, f.OccurredAt)
	}

	_, err := r.ch.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *chHistoryRepository) ListCycles(ctx context.Context, limit, offset int) ([]model.CycleReport, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []model.CycleReport
	err := r.ch.SelectContext(ctx, &rows, `
		SELECT cycle_id, started_at, finished_at, status, total, stored, failed, error
		FROM ibsync.sync_cycles
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chHistoryRepository) ListFailures(ctx context.Context, cycleID string, limit, offset int) ([]model.CycleFailure, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT cycle_id, gduns, kind, error, occurred_at
		FROM ibsync.sync_failures
	`
	args := []any{}

	if cycleID != "" {
		q += " WHERE cycle_id = ?"
		args = append(args, cycleID)
	}

	q += " ORDER BY occurred_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.CycleFailure
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
