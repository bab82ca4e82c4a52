package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	// RunInterrupted marks a run stopped by cancellation; it can be resumed.
	RunInterrupted RunStatus = "interrupted"
)

// Resumable reports whether a run in status s may be continued.
func (s RunStatus) Resumable() bool {
	return s != RunCompleted
}

// JobRecord is a persisted job and its outcome.
type JobRecord struct {
	Job    jobs.Job
	Status jobs.Status
	Reason string
}

// Run is a persisted run. Messages and Jobs are populated by LoadRun only;
// ListRuns fills the counters.
type Run struct {
	ID           string
	Status       RunStatus
	Error        string
	StartedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   time.Time
	Jobs         []JobRecord
	Messages     []chat.Message
	JobCount     int
	MessageCount int
}

// CreateRun records a new run and its pending jobs.
func (s *Store) CreateRun(ctx context.Context, runID string, list []jobs.Job) error {
	if runID == "" {
		return errors.New("create run: id is required")
	}
	now := formatTime(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, status, started_at, updated_at) VALUES (?, ?, ?, ?)`,
			runID, RunRunning, now, now,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, job := range list {
			opts, err := json.Marshal(job.Options)
			if err != nil {
				return fmt.Errorf("encode job %d options: %w", job.Seq, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO jobs (run_id, seq, source, options, status) VALUES (?, ?, ?, ?, ?)`,
				runID, job.Seq, job.Source, string(opts), jobs.StatusPending,
			); err != nil {
				return fmt.Errorf("insert job %d: %w", job.Seq, err)
			}
		}
		return nil
	})
}

// AppendMessage stores msg at position in the run's history. Re-appending the
// same position is a no-op. A seed message marks its job running.
func (s *Store) AppendMessage(ctx context.Context, runID string, position int, msg chat.Message) error {
	created := msg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO messages (run_id, position, job_seq, author, role, outcome, content, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, position, msg.JobSeq, string(msg.Author), string(msg.Role), string(msg.Outcome), msg.Content, formatTime(created),
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if msg.Role == chat.RoleUser {
			if _, err := tx.ExecContext(ctx,
				`UPDATE jobs SET status = ? WHERE run_id = ? AND seq = ? AND status = ?`,
				jobs.StatusRunning, runID, msg.JobSeq, jobs.StatusPending,
			); err != nil {
				return fmt.Errorf("mark job running: %w", err)
			}
		}
		return touchRun(ctx, tx, runID)
	})
}

// FinishJob records the terminal status of one job.
func (s *Store) FinishJob(ctx context.Context, runID string, seq int, status jobs.Status, reason string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, reason = ? WHERE run_id = ? AND seq = ?`,
			status, reason, runID, seq,
		)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("finish job %d: %w", seq, ErrNotFound)
		}
		return touchRun(ctx, tx, runID)
	})
}

// FinishRun records the final run status. errMsg is kept for failed and
// interrupted runs.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, errMsg string) error {
	now := formatTime(time.Now())
	var finished any
	if status == RunCompleted || status == RunFailed {
		finished = now
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, now, finished, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// ReopenRun flips a run back to running before it is resumed.
func (s *Store) ReopenRun(ctx context.Context, runID string) error {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error = '', updated_at = ?, finished_at = NULL WHERE id = ?`,
		RunRunning, formatTime(time.Now()), runID,
	)
	if err != nil {
		return fmt.Errorf("reopen run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reopen run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// LoadRun returns the run with its jobs and full history in append order.
func (s *Store) LoadRun(ctx context.Context, runID string) (*Run, error) {
	ctx = ensureContext(ctx)
	run := &Run{ID: runID}
	var (
		status, started, updated string
		finished                 sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, error, started_at, updated_at, finished_at FROM runs WHERE id = ?`, runID,
	).Scan(&status, &run.Error, &started, &updated, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(started)
	run.UpdatedAt = parseTime(updated)
	run.FinishedAt = nullableTime(finished)

	if run.Jobs, err = s.loadJobs(ctx, runID); err != nil {
		return nil, err
	}
	if run.Messages, err = s.loadMessages(ctx, runID); err != nil {
		return nil, err
	}
	run.JobCount = len(run.Jobs)
	run.MessageCount = len(run.Messages)
	return run, nil
}

func (s *Store) loadJobs(ctx context.Context, runID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, source, options, status, reason FROM jobs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		var (
			rec          JobRecord
			opts, status string
		)
		if err := rows.Scan(&rec.Job.Seq, &rec.Job.Source, &opts, &status, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &rec.Job.Options); err != nil {
			return nil, fmt.Errorf("decode job %d options: %w", rec.Job.Seq, err)
		}
		rec.Status = jobs.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) loadMessages(ctx context.Context, runID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_seq, author, role, outcome, content, created_at
		 FROM messages WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var (
			msg                            chat.Message
			author, role, outcome, created string
		)
		if err := rows.Scan(&msg.JobSeq, &author, &role, &outcome, &msg.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Author = chat.CapabilityName(author)
		msg.Role = chat.Role(role)
		msg.Outcome = chat.Outcome(outcome)
		msg.CreatedAt = parseTime(created)
		out = append(out, msg)
	}
	return out, rows.Err()
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT r.id, r.status, r.error, r.started_at, r.updated_at, r.finished_at,
		(SELECT COUNT(1) FROM jobs j WHERE j.run_id = r.id),
		(SELECT COUNT(1) FROM messages m WHERE m.run_id = r.id)
		FROM runs r ORDER BY r.started_at DESC, r.id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run                      Run
			status, started, updated string
			finished                 sql.NullString
		)
		if err := rows.Scan(&run.ID, &status, &run.Error, &started, &updated, &finished, &run.JobCount, &run.MessageCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = RunStatus(status)
		run.StartedAt = parseTime(started)
		run.UpdatedAt = parseTime(updated)
		run.FinishedAt = nullableTime(finished)
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestResumable returns the id of the newest run that did not complete.
func (s *Store) LatestResumable(ctx context.Context) (string, error) {
	ctx = ensureContext(ctx)
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs WHERE status != ? ORDER BY started_at DESC LIMIT 1`, RunCompleted,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return id, nil
}

func touchRun(ctx context.Context, tx *sql.Tx, runID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE runs SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), runID)
	if err != nil {
		return fmt.Errorf("touch run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}
