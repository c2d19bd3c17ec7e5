package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BeginRun inserts run with status running. A zero StartedAt is set to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("begin run: empty run id")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx, `INSERT INTO runs (id, started_at, status, input_dir, output_dir, backend, model)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, stamp(run.StartedAt), string(RunRunning),
		nullable(run.InputDir), nullable(run.OutputDir),
		nullable(run.Backend), nullable(run.Model),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordFile appends a file outcome to its run.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	var outputs any
	if len(rec.Outputs) > 0 {
		data, err := json.Marshal(rec.Outputs)
		if err != nil {
			return fmt.Errorf("encode outputs: %w", err)
		}
		outputs = string(data)
	}
	_, err := s.exec(ctx, `INSERT INTO files
		(run_id, path, outcome, language, segments, speakers, outputs, error, error_kind, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Path, rec.Outcome, nullable(rec.Language),
		rec.Segments, rec.Speakers, outputs,
		nullable(rec.Error), nullable(rec.ErrorKind),
		rec.Duration.Milliseconds(), stamp(rec.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// FinishRun stores the terminal status and totals of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, totals Totals) error {
	res, err := s.exec(ctx, `UPDATE runs SET finished_at = ?, status = ?, total = ?, success = ?, failed = ?, skipped = ?
		WHERE id = ?`,
		stamp(time.Now()), string(status),
		totals.Total, totals.Success, totals.Failed, totals.Skipped, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, input_dir, output_dir, backend, model, total, success, failed, skipped`

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

// RunFiles lists the files recorded for runID in processing order.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, path, outcome, language, segments, speakers, outputs,
		error, error_kind, duration_ms, recorded_at FROM files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var (
			rec                                    FileRecord
			lang, outputs, errText, kind, recorded sql.NullString
			durationMS                             int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Path, &rec.Outcome, &lang, &rec.Segments, &rec.Speakers,
			&outputs, &errText, &kind, &durationMS, &recorded); err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		rec.Language = lang.String
		rec.Error = errText.String
		rec.ErrorKind = kind.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if outputs.Valid && outputs.String != "" {
			if err := json.Unmarshal([]byte(outputs.String), &rec.Outputs); err != nil {
				return nil, fmt.Errorf("decode outputs: %w", err)
			}
		}
		if t, ok := parseStamp(recorded.String); ok {
			rec.RecordedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                                     Run
		started, status                         string
		finished, input, output, backend, model sql.NullString
	)
	if err := scanner.Scan(&run.ID, &started, &finished, &status, &input, &output, &backend, &model,
		&run.Total, &run.Success, &run.Failed, &run.Skipped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.InputDir, run.OutputDir = input.String, output.String
	run.Backend, run.Model = backend.String, model.String
	if t, ok := parseStamp(started); ok {
		run.StartedAt = t
	}
	if finished.Valid {
		if t, ok := parseStamp(finished.String); ok {
			run.FinishedAt = &t
		}
	}
	return run, nil
}
