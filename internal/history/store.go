// Package history records one row per document edit run. The default store
// is a local sqlite file; a Postgres URL switches the same schema and
// queries onto pgx.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/entity"
)

// Store is the edit-job history repository.
type Store interface {
	// Start inserts a RUNNING row. A nil job ID and zero start time are
	// filled in.
	Start(ctx context.Context, job *entity.EditJob) error
	// Finish records the terminal status and run stats.
	Finish(ctx context.Context, jobID uuid.UUID, out Outcome) error
	// List returns jobs newest first.
	List(ctx context.Context, limit int) ([]entity.EditJob, error)
	Ping(ctx context.Context) error
	Close() error
}

// Outcome carries everything Finish writes onto the row.
type Outcome struct {
	Status       constants.JobStatus
	ModelName    string
	Pages        int
	Fragments    int
	Characters   int
	Proposed     int
	Applied      int
	Missed       int
	ErrorMessage string
}

const schema = `
CREATE TABLE IF NOT EXISTS edit_jobs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	content_hash TEXT NOT NULL,
	instruction TEXT NOT NULL,
	model_name TEXT,
	pages INTEGER NOT NULL DEFAULT 0,
	fragments INTEGER NOT NULL DEFAULT 0,
	characters INTEGER NOT NULL DEFAULT 0,
	edits_proposed INTEGER NOT NULL DEFAULT 0,
	edits_applied INTEGER NOT NULL DEFAULT 0,
	edits_missed INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	started_at BIGINT NOT NULL,
	finished_at BIGINT
);
CREATE INDEX IF NOT EXISTS idx_edit_jobs_started ON edit_jobs(started_at);
`

// sqlStore serves both drivers; bindDollar rewrites placeholders for pgx.
type sqlStore struct {
	db         *sql.DB
	log        *slog.Logger
	bindDollar bool
}

func (s *sqlStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

func (s *sqlStore) rebind(q string) string {
	if !s.bindDollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Start(ctx context.Context, job *entity.EditJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = string(constants.JobStatusRunning)
	}
	q := s.rebind(`INSERT INTO edit_jobs
		(id, filename, file_size, content_hash, instruction, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		job.ID.String(), job.Filename, job.FileSize, job.ContentHash,
		job.Instruction, job.Status, job.StartedAt.UnixMilli(),
	)
	if err != nil {
		s.log.Error("edit_job start failed", "job_id", job.ID, "err", err)
		return err
	}
	s.log.Info("edit_job started", "job_id", job.ID, "filename", job.Filename)
	return nil
}

func (s *sqlStore) Finish(ctx context.Context, jobID uuid.UUID, out Outcome) error {
	q := s.rebind(`UPDATE edit_jobs SET
		status = ?, model_name = ?, pages = ?, fragments = ?, characters = ?,
		edits_proposed = ?, edits_applied = ?, edits_missed = ?,
		error_message = ?, finished_at = ?
		WHERE id = ?`)
	_, err := s.db.ExecContext(ctx, q,
		string(out.Status), nullIfEmpty(out.ModelName),
		out.Pages, out.Fragments, out.Characters,
		out.Proposed, out.Applied, out.Missed,
		nullIfEmpty(out.ErrorMessage), time.Now().UTC().UnixMilli(),
		jobID.String(),
	)
	if err != nil {
		s.log.Error("edit_job finish failed", "job_id", jobID, "err", err)
		return err
	}
	if out.Status == constants.JobStatusFailed {
		s.log.Warn("edit_job finished", "job_id", jobID, "status", out.Status, "error", out.ErrorMessage)
	} else {
		s.log.Info("edit_job finished", "job_id", jobID, "status", out.Status,
			"applied", out.Applied, "missed", out.Missed)
	}
	return nil
}

func (s *sqlStore) List(ctx context.Context, limit int) ([]entity.EditJob, error) {
	if limit <= 0 {
		limit = 100
	}
	q := s.rebind(`SELECT id, filename, file_size, content_hash, instruction,
		model_name, pages, fragments, characters,
		edits_proposed, edits_applied, edits_missed,
		status, error_message, started_at, finished_at
		FROM edit_jobs ORDER BY started_at DESC, id LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []entity.EditJob
	for rows.Next() {
		var (
			j          entity.EditJob
			id         string
			model      sql.NullString
			errMsg     sql.NullString
			startedMs  int64
			finishedMs sql.NullInt64
		)
		if err := rows.Scan(
			&id, &j.Filename, &j.FileSize, &j.ContentHash, &j.Instruction,
			&model, &j.Pages, &j.Fragments, &j.Characters,
			&j.EditsProposed, &j.EditsApplied, &j.EditsMissed,
			&j.Status, &errMsg, &startedMs, &finishedMs,
		); err != nil {
			return nil, err
		}
		j.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad job id %q: %w", id, err)
		}
		if model.Valid {
			j.ModelName = &model.String
		}
		if errMsg.Valid {
			j.ErrorMessage = &errMsg.String
		}
		j.StartedAt = time.UnixMilli(startedMs).UTC()
		if finishedMs.Valid {
			t := time.UnixMilli(finishedMs.Int64).UTC()
			j.FinishedAt = &t
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
