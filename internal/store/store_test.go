package store

import (
	"context"
	"testing"

	"github.com/hazyhaar/hueaudit/catalogue"
	"github.com/hazyhaar/hueaudit/contrast"
	"github.com/hazyhaar/hueaudit/dbopen"
	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return &Store{DB: db}
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := &Run{ID: "run_1", RootURL: "https://example.com", Platform: "squarespace71"}
	if err := s.InsertRun(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Status != "running" {
		t.Errorf("Status: got %q, want running", got.Status)
	}
	if got.CompletedAt != nil {
		t.Error("CompletedAt: set before completion")
	}

	score := 8.5
	r.Status = "completed"
	r.Score = &score
	r.PagesCount = 3
	r.ColorsCount = 42
	r.FindingsCount = 7
	if err := s.CompleteRun(ctx, r); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err = s.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" {
		t.Errorf("Status: got %q, want completed", got.Status)
	}
	if got.Score == nil || *got.Score != 8.5 {
		t.Errorf("Score: got %v, want 8.5", got.Score)
	}
	if got.ColorsCount != 42 {
		t.Errorf("ColorsCount: got %d, want 42", got.ColorsCount)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt: still nil after completion")
	}

	latest, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != "run_1" {
		t.Errorf("LatestRun: got %+v", latest)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := testStore(t)
	got, err := s.GetRun(context.Background(), "run_missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestPages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertRun(ctx, &Run{ID: "run_1", RootURL: "https://example.com"}); err != nil {
		t.Fatal(err)
	}
	pages := []*Page{
		{ID: "page_1", RunID: "run_1", URL: "https://example.com/", Platform: "generic", ElementsCount: 120, AuditedAt: 100},
		{ID: "page_2", RunID: "run_1", URL: "https://example.com/about", Platform: "generic", ElementsCount: 80, AuditedAt: 200},
	}
	for _, p := range pages {
		if err := s.InsertPage(ctx, p); err != nil {
			t.Fatalf("insert page: %v", err)
		}
	}

	got, err := s.ListPages(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d pages, want 2", len(got))
	}
	if got[0].URL != "https://example.com/" {
		t.Errorf("order: first page is %q", got[0].URL)
	}
}

func TestSaveCatalogue(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertRun(ctx, &Run{ID: "run_1", RootURL: "https://example.com"}); err != nil {
		t.Fatal(err)
	}

	entries := []catalogue.Entry{
		{
			Canonical: "#336699",
			Count:     3,
			Merged:    []string{"#336698"},
			Instances: []catalogue.Instance{
				{Page: "https://example.com/", Property: catalogue.PropBackground, Selector: ".hero", OriginalHex: "#336698"},
				{Page: "https://example.com/", Property: catalogue.PropText, Selector: "p"},
			},
		},
		{Canonical: "#FFFFFF", Count: 10},
	}
	if err := s.SaveCatalogue(ctx, "run_1", entries); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.ListEntries(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Canonical != "#FFFFFF" {
		t.Errorf("order: most used first, got %q", got[0].Canonical)
	}

	e, err := s.EntryByCanonical(ctx, "run_1", "#336699")
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("entry not found")
	}
	if len(e.Merged) != 1 || e.Merged[0] != "#336698" {
		t.Errorf("Merged: got %v", e.Merged)
	}

	insts, err := s.ListInstances(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(insts) != 2 {
		t.Fatalf("got %d instances, want 2", len(insts))
	}
	if insts[0].OriginalHex != "#336698" {
		t.Errorf("OriginalHex: got %q", insts[0].OriginalHex)
	}

	// Save again: replaces, never duplicates.
	if err := s.SaveCatalogue(ctx, "run_1", entries[:1]); err != nil {
		t.Fatal(err)
	}
	got, _ = s.ListEntries(ctx, "run_1")
	if len(got) != 1 {
		t.Fatalf("after resave: got %d entries, want 1", len(got))
	}
}

func TestFindings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertRun(ctx, &Run{ID: "run_1", RootURL: "https://example.com"}); err != nil {
		t.Fatal(err)
	}

	findings := []*contrast.Finding{
		{
			Page: "https://example.com/", Selector: "p.fine",
			TextHex: "#000000", BackgroundHex: "#FFFFFF", Ratio: 21.0,
			FontSizeKnown: true, IsLarge: "false",
			Verdicts: contrast.VerdictSet{
				AANormal: contrast.Pass, AAANormal: contrast.Pass,
				AALarge: contrast.Pass, AAALarge: contrast.Pass,
			},
		},
		{
			Page: "https://example.com/", Selector: "p.faint",
			TextHex: "#999999", BackgroundHex: "#FFFFFF", Ratio: 2.8,
			FontSizeKnown: false, IsLarge: "unknown",
			Verdicts: contrast.VerdictSet{
				AANormal: contrast.Fail, AAANormal: contrast.Fail,
				AALarge: contrast.Verify, AAALarge: contrast.Verify,
			},
		},
	}
	if err := s.SaveFindings(ctx, "run_1", findings); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := s.ListFindings(ctx, "run_1", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d findings, want 2", len(all))
	}
	if all[0].Ratio != 2.8 {
		t.Errorf("order: lowest ratio first, got %v", all[0].Ratio)
	}
	if all[0].Verdicts.AALarge != contrast.Verify {
		t.Errorf("AALarge: got %q, want verify", all[0].Verdicts.AALarge)
	}

	failing, err := s.ListFindings(ctx, "run_1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(failing) != 1 || failing[0].Selector != "p.faint" {
		t.Fatalf("failing: got %+v", failing)
	}
}
