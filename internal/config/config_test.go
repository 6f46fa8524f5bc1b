package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hueaudit.yaml")
	raw := `
browser:
  stealth: headful
  nav_timeout: 20s
pages:
  - id: home
    url: https://example.com
    crawl_depth: 1
analysis:
  merge_threshold: 3.1
sinks:
  - type: webhook
    url: https://hooks.example.com/colors
store:
  path: /tmp/audit.db
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Stealth != "headful" {
		t.Errorf("stealth: got %q", cfg.Browser.Stealth)
	}
	if cfg.Browser.NavTimeout != 20*time.Second {
		t.Errorf("nav_timeout: got %v", cfg.Browser.NavTimeout)
	}
	if cfg.Analysis.MergeThreshold != 3.1 {
		t.Errorf("merge_threshold: got %v", cfg.Analysis.MergeThreshold)
	}
	if len(cfg.Pages) != 1 || cfg.Pages[0].URL != "https://example.com" {
		t.Fatalf("pages: got %+v", cfg.Pages)
	}
	if cfg.Pages[0].Platform != "auto" {
		t.Errorf("platform default: got %q", cfg.Pages[0].Platform)
	}
	if cfg.Sinks[0].Timeout != 10*time.Second {
		t.Errorf("sink timeout default: got %v", cfg.Sinks[0].Timeout)
	}
	if cfg.Store.Path != "/tmp/audit.db" {
		t.Errorf("store path: got %q", cfg.Store.Path)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Analysis.MergeThreshold != 2.3 {
		t.Errorf("merge_threshold: got %v, want 2.3", cfg.Analysis.MergeThreshold)
	}
	if cfg.Analysis.PixelAgreement != 0.70 {
		t.Errorf("pixel_agreement: got %v, want 0.70", cfg.Analysis.PixelAgreement)
	}
	if cfg.Analysis.Grid != 5 || cfg.Analysis.HighStakesGrid != 8 {
		t.Errorf("grids: got %d/%d, want 5/8", cfg.Analysis.Grid, cfg.Analysis.HighStakesGrid)
	}
	if cfg.Analysis.MinInBounds != 0.5 {
		t.Errorf("min_in_bounds: got %v", cfg.Analysis.MinInBounds)
	}
	if cfg.Browser.Stealth != "headless" {
		t.Errorf("stealth: got %q", cfg.Browser.Stealth)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/hueaudit.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
