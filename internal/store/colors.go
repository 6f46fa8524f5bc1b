package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/hazyhaar/hueaudit/catalogue"
	"github.com/hazyhaar/hueaudit/dbopen"
	"github.com/hazyhaar/hueaudit/idgen"
)

// ColorEntry is a persisted catalogue entry.
type ColorEntry struct {
	ID        string   `json:"id"`
	RunID     string   `json:"run_id"`
	Canonical string   `json:"canonical"`
	Count     int      `json:"count"`
	Merged    []string `json:"merged,omitempty"`
}

// SaveCatalogue persists every entry of a catalogue snapshot, with its
// instances, under the given run. Replaces any prior entries for the run.
func (s *Store) SaveCatalogue(ctx context.Context, runID string, entries []catalogue.Entry) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE run_id = ?`, runID); err != nil {
			return err
		}

		for _, e := range entries {
			entryID := idgen.Prefixed("col")
			merged, _ := json.Marshal(e.Merged)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entries (id, run_id, canonical, count, merged)
				VALUES (?,?,?,?,?)`,
				entryID, runID, e.Canonical, e.Count, string(merged),
			); err != nil {
				return err
			}
			for _, inst := range e.Instances {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO instances
						(id, entry_id, page_url, property, location, selector, original_hex, paired_hex)
					VALUES (?,?,?,?,?,?,?,?)`,
					idgen.Prefixed("inst"), entryID, inst.Page, inst.Property,
					inst.Location, inst.Selector, inst.OriginalHex, inst.PairedHex,
				); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListEntries returns the persisted catalogue entries of a run, most
// used first.
func (s *Store) ListEntries(ctx context.Context, runID string) ([]*ColorEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, run_id, canonical, count, merged
		FROM entries WHERE run_id = ? ORDER BY count DESC, canonical ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ColorEntry
	for rows.Next() {
		e := &ColorEntry{}
		var merged string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Canonical, &e.Count, &merged); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(merged), &e.Merged)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListInstances returns the instances recorded under one entry.
func (s *Store) ListInstances(ctx context.Context, entryID string) ([]catalogue.Instance, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT page_url, property, location, selector, original_hex, paired_hex
		FROM instances WHERE entry_id = ?`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insts []catalogue.Instance
	for rows.Next() {
		var inst catalogue.Instance
		if err := rows.Scan(&inst.Page, &inst.Property, &inst.Location,
			&inst.Selector, &inst.OriginalHex, &inst.PairedHex); err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, rows.Err()
}

// EntryByCanonical looks up one entry of a run by its canonical hex.
// Returns nil when not found.
func (s *Store) EntryByCanonical(ctx context.Context, runID, canonical string) (*ColorEntry, error) {
	e := &ColorEntry{}
	var merged string
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, run_id, canonical, count, merged
		FROM entries WHERE run_id = ? AND canonical = ?`, runID, canonical).Scan(
		&e.ID, &e.RunID, &e.Canonical, &e.Count, &merged,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(merged), &e.Merged)
	return e, nil
}
