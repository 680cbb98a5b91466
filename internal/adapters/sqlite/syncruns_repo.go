package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

// Horodatage triable lexicographiquement (ORDER BY started_at).
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SyncRunsRepository struct {
	db *sql.DB
}

func NewSyncRunsRepository(db *sql.DB) *SyncRunsRepository {
	return &SyncRunsRepository{db: db}
}

func (r *SyncRunsRepository) Create(ctx context.Context, run domain.SyncRun) (domain.SyncRun, error) {
	if !run.State.IsKnown() {
		return domain.SyncRun{}, domain.ErrUnknownRunState
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs(id, direction, state, created, updated, failed, started_at, finished_at, report_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Direction), string(run.State), run.Created, run.Updated, run.Failed,
		run.StartedAt.UTC().Format(runTimeLayout), run.FinishedAt.UTC().Format(runTimeLayout), run.ReportJSON)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.SyncRun{}, ports.ErrConflict
		}
		return domain.SyncRun{}, err
	}
	return r.Get(ctx, run.ID)
}

func (r *SyncRunsRepository) Get(ctx context.Context, id string) (domain.SyncRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, direction, state, created, updated, failed, started_at, finished_at, report_json
		FROM sync_runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SyncRun{}, ports.ErrNotFound
		}
		return domain.SyncRun{}, err
	}
	return run, nil
}

// List renvoie les exécutions les plus récentes d'abord.
func (r *SyncRunsRepository) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, direction, state, created, updated, failed, started_at, finished_at, NULL
		FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SyncRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (domain.SyncRun, error) {
	var run domain.SyncRun
	var direction, state, startedAt, finishedAt string
	if err := s.Scan(&run.ID, &direction, &state, &run.Created, &run.Updated, &run.Failed, &startedAt, &finishedAt, &run.ReportJSON); err != nil {
		return domain.SyncRun{}, err
	}
	run.Direction = domain.SyncDirection(direction)
	run.State = domain.SyncRunState(state)
	run.StartedAt, _ = time.Parse(runTimeLayout, startedAt)
	run.FinishedAt, _ = time.Parse(runTimeLayout, finishedAt)
	return run, nil
}
