package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Run is one auditor invocation.
type Run struct {
	ID            string   `json:"id"`
	RootURL       string   `json:"root_url"`
	Platform      string   `json:"platform"`
	Status        string   `json:"status"` // "running", "completed", "failed"
	Score         *float64 `json:"score,omitempty"`
	PagesCount    int      `json:"pages_count"`
	ColorsCount   int      `json:"colors_count"`
	FindingsCount int      `json:"findings_count"`
	StartedAt     int64    `json:"started_at"`
	CompletedAt   *int64   `json:"completed_at,omitempty"`
}

// Page is one page visited during a run.
type Page struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	URL           string `json:"url"`
	Platform      string `json:"platform"`
	ElementsCount int    `json:"elements_count"`
	AuditedAt     int64  `json:"audited_at"`
}

// InsertRun records a new run in status "running".
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	if r.StartedAt == 0 {
		r.StartedAt = time.Now().UnixMilli()
	}
	if r.Status == "" {
		r.Status = "running"
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO runs (id, root_url, platform, status, started_at)
		VALUES (?,?,?,?,?)`,
		r.ID, r.RootURL, r.Platform, r.Status, r.StartedAt,
	)
	return err
}

// CompleteRun finalizes a run with its aggregate counters and score.
func (s *Store) CompleteRun(ctx context.Context, r *Run) error {
	now := time.Now().UnixMilli()
	r.CompletedAt = &now
	var score sql.NullFloat64
	if r.Score != nil {
		score = sql.NullFloat64{Float64: *r.Score, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `
		UPDATE runs SET
			platform=?, status=?, score=?, pages_count=?, colors_count=?,
			findings_count=?, completed_at=?
		WHERE id=?`,
		r.Platform, r.Status, score, r.PagesCount, r.ColorsCount,
		r.FindingsCount, now, r.ID,
	)
	return err
}

// GetRun retrieves a run by ID. Returns nil when not found.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	var score sql.NullFloat64
	var completed sql.NullInt64

	err := s.DB.QueryRowContext(ctx, `
		SELECT id, root_url, platform, status, score, pages_count, colors_count,
		       findings_count, started_at, completed_at
		FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &r.RootURL, &r.Platform, &r.Status, &score, &r.PagesCount,
		&r.ColorsCount, &r.FindingsCount, &r.StartedAt, &completed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if score.Valid {
		r.Score = &score.Float64
	}
	if completed.Valid {
		r.CompletedAt = &completed.Int64
	}
	return r, nil
}

// LatestRun returns the most recently started run, or nil if none exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetRun(ctx, id)
}

// ListRuns returns runs newest first, up to limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, root_url, platform, status, score, pages_count, colors_count,
		       findings_count, started_at, completed_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var score sql.NullFloat64
		var completed sql.NullInt64
		if err := rows.Scan(
			&r.ID, &r.RootURL, &r.Platform, &r.Status, &score, &r.PagesCount,
			&r.ColorsCount, &r.FindingsCount, &r.StartedAt, &completed,
		); err != nil {
			return nil, err
		}
		if score.Valid {
			r.Score = &score.Float64
		}
		if completed.Valid {
			r.CompletedAt = &completed.Int64
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// InsertPage records a visited page.
func (s *Store) InsertPage(ctx context.Context, p *Page) error {
	if p.AuditedAt == 0 {
		p.AuditedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO pages (id, run_id, url, platform, elements_count, audited_at)
		VALUES (?,?,?,?,?,?)`,
		p.ID, p.RunID, p.URL, p.Platform, p.ElementsCount, p.AuditedAt,
	)
	return err
}

// ListPages returns the pages of a run in audit order.
func (s *Store) ListPages(ctx context.Context, runID string) ([]*Page, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, run_id, url, platform, elements_count, audited_at
		FROM pages WHERE run_id = ? ORDER BY audited_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		p := &Page{}
		if err := rows.Scan(&p.ID, &p.RunID, &p.URL, &p.Platform, &p.ElementsCount, &p.AuditedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
