package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Outcome is the recorded result of one target.
type Outcome struct {
	Target   string        `json:"target" yaml:"target"`
	Triple   string        `json:"triple" yaml:"triple"`
	Status   string        `json:"status" yaml:"status"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Run is one recorded invocation of a command.
type Run struct {
	ID         string        `json:"id" yaml:"id"`
	Command    string        `json:"command" yaml:"command"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Requested  []string      `json:"requested" yaml:"requested"`
	OutputRoot string        `json:"output_root" yaml:"output_root"`
	Outcomes   []Outcome     `json:"outcomes" yaml:"outcomes"`
}

// RunSummary is a run with outcome counts instead of rows.
type RunSummary struct {
	ID        string        `json:"id" yaml:"id"`
	Command   string        `json:"command" yaml:"command"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Requested []string      `json:"requested" yaml:"requested"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Cancelled int           `json:"cancelled" yaml:"cancelled"`
}

// WriteRun stores a run and its outcomes in one transaction.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	requested, err := json.Marshal(nonNil(run.Requested))
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, command, started_at, duration_ms, requested, output_root)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Command,
		run.StartedAt.UnixMilli(),
		run.Duration.Milliseconds(),
		string(requested),
		run.OutputRoot,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	for i, o := range run.Outcomes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outcomes (run_id, position, target, triple, status, exit_code, duration_ms, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, i, o.Target, o.Triple, o.Status, o.ExitCode, o.Duration.Milliseconds(), o.Error,
		)
		if err != nil {
			return fmt.Errorf("write outcome %s of run %s: %w", o.Target, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.command, r.started_at, r.duration_ms, r.requested,
			COUNT(o.position),
			COALESCE(SUM(CASE WHEN o.status = 'succeeded' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN o.status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN o.status = 'cancelled' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			rs         RunSummary
			startedMS  int64
			durationMS int64
			requested  string
		)
		if err := rows.Scan(&rs.ID, &rs.Command, &startedMS, &durationMS, &requested,
			&rs.Total, &rs.Succeeded, &rs.Failed, &rs.Cancelled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.StartedAt = time.UnixMilli(startedMS).UTC()
		rs.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(requested), &rs.Requested); err != nil {
			return nil, fmt.Errorf("decode requested targets of run %s: %w", rs.ID, err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a run with its outcomes in build order.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	var (
		run        Run
		startedMS  int64
		durationMS int64
		requested  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, command, started_at, duration_ms, requested, output_root
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Command, &startedMS, &durationMS, &requested, &run.OutputRoot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	run.StartedAt = time.UnixMilli(startedMS).UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(requested), &run.Requested); err != nil {
		return nil, fmt.Errorf("decode requested targets of run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT target, triple, status, exit_code, duration_ms, error
		FROM outcomes
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query outcomes of run %s: %w", id, err)
	}
	defer rows.Close()

	run.Outcomes = []Outcome{}
	for rows.Next() {
		var o Outcome
		var ms int64
		if err := rows.Scan(&o.Target, &o.Triple, &o.Status, &o.ExitCode, &ms, &o.Error); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Duration = time.Duration(ms) * time.Millisecond
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return &run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
