package store

// Schema contains the complete DDL for the hueaudit tables.
const Schema = `
-- Audit runs: one row per invocation of the auditor
CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    root_url       TEXT NOT NULL,
    platform       TEXT NOT NULL DEFAULT 'generic',
    status         TEXT NOT NULL DEFAULT 'running',
    score          REAL,
    pages_count    INTEGER NOT NULL DEFAULT 0,
    colors_count   INTEGER NOT NULL DEFAULT 0,
    findings_count INTEGER NOT NULL DEFAULT 0,
    started_at     INTEGER NOT NULL,
    completed_at   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(root_url);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(started_at DESC);

-- Pages visited during a run
CREATE TABLE IF NOT EXISTS pages (
    id             TEXT PRIMARY KEY,
    run_id         TEXT NOT NULL,
    url            TEXT NOT NULL,
    platform       TEXT NOT NULL DEFAULT 'generic',
    elements_count INTEGER NOT NULL DEFAULT 0,
    audited_at     INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

-- Catalogue entries: one row per distinct perceptual color
CREATE TABLE IF NOT EXISTS entries (
    id        TEXT PRIMARY KEY,
    run_id    TEXT NOT NULL,
    canonical TEXT NOT NULL,
    count     INTEGER NOT NULL DEFAULT 0,
    merged    TEXT NOT NULL DEFAULT '[]',
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_canonical ON entries(run_id, canonical);

-- Color instances: where each observation came from
CREATE TABLE IF NOT EXISTS instances (
    id           TEXT PRIMARY KEY,
    entry_id     TEXT NOT NULL,
    page_url     TEXT NOT NULL,
    property     TEXT NOT NULL,
    location     TEXT NOT NULL DEFAULT '',
    selector     TEXT NOT NULL DEFAULT '',
    original_hex TEXT NOT NULL DEFAULT '',
    paired_hex   TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (entry_id) REFERENCES entries(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_instances_entry ON instances(entry_id);
CREATE INDEX IF NOT EXISTS idx_instances_page ON instances(page_url);

-- Contrast findings: one row per evaluated text/background pair
CREATE TABLE IF NOT EXISTS findings (
    id              TEXT PRIMARY KEY,
    run_id          TEXT NOT NULL,
    page_url        TEXT NOT NULL,
    selector        TEXT NOT NULL DEFAULT '',
    text_hex        TEXT NOT NULL,
    background_hex  TEXT NOT NULL,
    ratio           REAL NOT NULL,
    font_size_known INTEGER NOT NULL DEFAULT 0,
    is_large        TEXT NOT NULL DEFAULT 'unknown',
    aa_normal       TEXT NOT NULL,
    aaa_normal      TEXT NOT NULL,
    aa_large        TEXT NOT NULL,
    aaa_large       TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_page ON findings(page_url);
`
