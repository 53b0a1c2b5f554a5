package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, name, source_path, media_kind, content_type, job_id, phase,
    progress_percent, progress_message, error_message, transcript_id, result_json,
    created_at, updated_at`

// NewRun inserts a fresh pending run.
func (s *Store) NewRun(ctx context.Context, name, sourcePath, mediaKind, contentType string) (*Run, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            name, source_path, media_kind, content_type, phase,
            progress_percent, progress_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name,
		sourcePath,
		mediaKind,
		contentType,
		PhasePending,
		0.0,
		"",
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a run by identifier. A missing run returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Update persists changes to an existing run.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET
            name = ?, source_path = ?, media_kind = ?, content_type = ?, job_id = ?,
            phase = ?, progress_percent = ?, progress_message = ?, error_message = ?,
            transcript_id = ?, result_json = ?, updated_at = ?
        WHERE id = ?`,
		run.Name,
		run.SourcePath,
		run.MediaKind,
		run.ContentType,
		run.JobID,
		run.Phase,
		run.ProgressPercent,
		run.ProgressMessage,
		run.ErrorMessage,
		run.TranscriptID,
		run.ResultJSON,
		run.UpdatedAt.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// List returns runs newest first, up to limit (0 means all).
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FailInterrupted marks every non-terminal run as failed. Called on startup
// so runs abandoned by a killed process do not show as live forever.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET phase = ?, error_message = ?, progress_message = ?, updated_at = ?
         WHERE phase NOT IN (?, ?)`,
		PhaseFailed,
		InterruptedReason,
		InterruptedReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		PhaseCompleted,
		PhaseFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted runs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// Delete removes a run from the journal.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run       Run
		phase     string
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Name,
		&run.SourcePath,
		&run.MediaKind,
		&run.ContentType,
		&run.JobID,
		&phase,
		&run.ProgressPercent,
		&run.ProgressMessage,
		&run.ErrorMessage,
		&run.TranscriptID,
		&run.ResultJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	parsed, ok := ParsePhase(phase)
	if !ok {
		return nil, fmt.Errorf("unknown phase %q", phase)
	}
	run.Phase = parsed

	var err error
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &run, nil
}
