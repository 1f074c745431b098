// Package history records analysis reports so that runs can be listed and compared over time.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	deperrors "depscope/internal/errors"
	"depscope/internal/paths"
	"depscope/internal/report"
	"depscope/internal/storage"
)

// Run is the stored summary of one analysis.
type Run struct {
	ID          string    `json:"id"`
	Package     string    `json:"package"`
	ToolVersion string    `json:"toolVersion"`
	CreatedAt   time.Time `json:"createdAt"`
	DurationMs  int64     `json:"durationMs"`

	Files         int `json:"files"`
	Findings      int `json:"findings"`
	Cycles        int `json:"cycles"`
	UnusedExports int `json:"unusedExports"`
	Violations    int `json:"violations"`
	Unlisted      int `json:"unlisted"`

	// ReportBytes is the compressed size of the stored report.
	ReportBytes int `json:"reportBytes"`
}

// Store persists runs in the repository's history database.
type Store struct {
	db     *storage.DB
	logger *slog.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	now func() time.Time
}

// Open opens the history database of the repository at repoRoot.
func Open(repoRoot string, logger *slog.Logger) (*Store, error) {
	return OpenPath(paths.HistoryPath(repoRoot), logger)
}

// OpenPath opens a history database at an explicit path.
func OpenPath(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := storage.Open(dbPath, logger)
	if err != nil {
		return nil, deperrors.New(deperrors.StorageFailed, "failed to open history database", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, deperrors.New(deperrors.InternalError, "failed to create compressor", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, deperrors.New(deperrors.InternalError, "failed to create decompressor", err)
	}
	return &Store{
		db:      db,
		logger:  logger,
		encoder: enc,
		decoder: dec,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

const runColumns = `id, package, tool_version, created_at, duration_ms, files, findings,
	cycles, unused_exports, violations, unlisted, length(report)`

// Record stores a report and returns its run.
func (s *Store) Record(ctx context.Context, r *report.Report) (*Run, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, deperrors.New(deperrors.InternalError, "failed to encode report", err)
	}
	blob := s.encoder.EncodeAll(data, make([]byte, 0, len(data)/4))

	run := &Run{
		ID:            uuid.New().String(),
		Package:       r.Package.Name,
		ToolVersion:   r.Version,
		CreatedAt:     s.now(),
		DurationMs:    r.Summary.DurationMs,
		Files:         r.Summary.Files,
		Findings:      r.Findings(),
		Cycles:        r.Summary.Cycles,
		UnusedExports: r.Summary.UnusedExports,
		Violations:    r.Summary.Violations,
		Unlisted:      r.Summary.UnlistedDeps,
		ReportBytes:   len(blob),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, package, tool_version, created_at, duration_ms, files, findings,
			cycles, unused_exports, violations, unlisted, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Package, run.ToolVersion, run.CreatedAt.UnixNano(), run.DurationMs, run.Files, run.Findings,
		run.Cycles, run.UnusedExports, run.Violations, run.Unlisted, blob,
	)
	if err != nil {
		return nil, deperrors.New(deperrors.StorageFailed, "failed to record run", err)
	}

	s.logger.Debug("Recorded run",
		"id", run.ID,
		"findings", run.Findings,
		"reportBytes", len(data),
		"compressedBytes", len(blob),
	)
	return run, nil
}

// List returns up to limit runs, newest first. A non-positive limit returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, deperrors.New(deperrors.StorageFailed, "failed to list runs", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, deperrors.New(deperrors.StorageFailed, "failed to read run", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, deperrors.New(deperrors.StorageFailed, "failed to list runs", err)
	}
	return runs, nil
}

// Get returns a run and its full report.
func (s *Store) Get(ctx context.Context, id string) (*Run, *report.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`, report FROM runs WHERE id = ?`, id)
	return s.readRow(row, id)
}

// Latest returns the most recent run and its report.
func (s *Store) Latest(ctx context.Context) (*Run, *report.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`, report FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return s.readRow(row, "latest")
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, deperrors.New(deperrors.StorageFailed, "failed to prune runs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, deperrors.New(deperrors.StorageFailed, "failed to prune runs", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner, extra ...interface{}) (*Run, error) {
	var run Run
	var created int64
	dest := []interface{}{
		&run.ID, &run.Package, &run.ToolVersion, &created, &run.DurationMs, &run.Files, &run.Findings,
		&run.Cycles, &run.UnusedExports, &run.Violations, &run.Unlisted, &run.ReportBytes,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	return &run, nil
}

func (s *Store) readRow(row *sql.Row, id string) (*Run, *report.Report, error) {
	var blob []byte
	run, err := scanRun(row, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, deperrors.Newf(deperrors.RunNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, nil, deperrors.New(deperrors.StorageFailed, "failed to read run", err)
	}

	data, err := s.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, nil, deperrors.New(deperrors.StorageFailed, fmt.Sprintf("run %s has a corrupt report", run.ID), err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, nil, deperrors.New(deperrors.StorageFailed, fmt.Sprintf("run %s has an unreadable report", run.ID), err)
	}
	return run, &rep, nil
}

// Delta is the change in headline counts between two runs. Positive values are increases.
type Delta struct {
	From string `json:"from"`
	To   string `json:"to"`

	Files         int `json:"files"`
	Findings      int `json:"findings"`
	Cycles        int `json:"cycles"`
	UnusedExports int `json:"unusedExports"`
	Violations    int `json:"violations"`
	Unlisted      int `json:"unlisted"`
}

// Compare computes the change from one run to a later one.
func Compare(from, to Run) Delta {
	return Delta{
		From:          from.ID,
		To:            to.ID,
		Files:         to.Files - from.Files,
		Findings:      to.Findings - from.Findings,
		Cycles:        to.Cycles - from.Cycles,
		UnusedExports: to.UnusedExports - from.UnusedExports,
		Violations:    to.Violations - from.Violations,
		Unlisted:      to.Unlisted - from.Unlisted,
	}
}

// Regressed reports whether the later run has more findings.
func (d Delta) Regressed() bool {
	return d.Findings > 0
}
