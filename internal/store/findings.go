package store

import (
	"context"
	"database/sql"

	"github.com/hazyhaar/hueaudit/contrast"
	"github.com/hazyhaar/hueaudit/dbopen"
	"github.com/hazyhaar/hueaudit/idgen"
)

// SaveFindings persists contrast findings under a run.
func (s *Store) SaveFindings(ctx context.Context, runID string, findings []*contrast.Finding) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, f := range findings {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO findings
					(id, run_id, page_url, selector, text_hex, background_hex, ratio,
					 font_size_known, is_large, aa_normal, aaa_normal, aa_large, aaa_large)
				VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
				idgen.Prefixed("fnd"), runID, f.Page, f.Selector,
				f.TextHex, f.BackgroundHex, f.Ratio,
				boolInt(f.FontSizeKnown), f.IsLarge,
				string(f.Verdicts.AANormal), string(f.Verdicts.AAANormal),
				string(f.Verdicts.AALarge), string(f.Verdicts.AAALarge),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListFindings returns the findings of a run, optionally only the
// definite failures.
func (s *Store) ListFindings(ctx context.Context, runID string, failingOnly bool) ([]*contrast.Finding, error) {
	query := `
		SELECT page_url, selector, text_hex, background_hex, ratio,
		       font_size_known, is_large, aa_normal, aaa_normal, aa_large, aaa_large
		FROM findings WHERE run_id = ?`
	query += ` ORDER BY ratio ASC`

	rows, err := s.DB.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []*contrast.Finding
	for rows.Next() {
		f := &contrast.Finding{}
		var known int
		var aaN, aaaN, aaL, aaaL string
		if err := rows.Scan(&f.Page, &f.Selector, &f.TextHex, &f.BackgroundHex,
			&f.Ratio, &known, &f.IsLarge, &aaN, &aaaN, &aaL, &aaaL); err != nil {
			return nil, err
		}
		f.FontSizeKnown = known != 0
		f.Verdicts = contrast.VerdictSet{
			AANormal:  contrast.State(aaN),
			AAANormal: contrast.State(aaaN),
			AALarge:   contrast.State(aaL),
			AAALarge:  contrast.State(aaaL),
		}
		if failingOnly && !f.Failing() {
			continue
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
