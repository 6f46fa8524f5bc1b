package catalogue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hazyhaar/hueaudit/colorspace"
)

func TestRecord_ExactMatch(t *testing.T) {
	c := New(0)
	c.Record("#336699", Instance{Page: "https://a.example/"})
	c.Record("#336699", Instance{Page: "https://b.example/"})

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Count != 2 || len(e.Instances) != 2 {
		t.Errorf("Count/Instances: got %d/%d, want 2/2", e.Count, len(e.Instances))
	}
	if e.Canonical != "#336699" {
		t.Errorf("Canonical: got %s", e.Canonical)
	}
}

func TestRecord_NormalizesBeforeMatching(t *testing.T) {
	c := New(0)
	c.Record("#336699", Instance{})
	c.Record("rgb(51, 102, 153)", Instance{})
	c.Record("#369", Instance{})

	if got := c.Len(); got != 1 {
		t.Fatalf("entries: got %d, want 1 (all three forms are the same color)", got)
	}
}

func TestRecord_FuzzyMergePreservesOriginal(t *testing.T) {
	c := New(0)
	canonical, _ := c.Record("#336699", Instance{Page: "p1"})
	merged, ok := c.Record("#35689B", Instance{Page: "p2", Selector: ".x"})
	if !ok {
		t.Fatal("Record: not ok")
	}
	if merged != canonical {
		t.Fatalf("merged canonical: got %s, want %s", merged, canonical)
	}

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Canonical != "#336699" {
		t.Errorf("Canonical must not change on merge: got %s", e.Canonical)
	}
	if len(e.Merged) != 1 || e.Merged[0] != "#35689B" {
		t.Errorf("Merged: got %v, want [#35689B]", e.Merged)
	}
	if e.Instances[1].OriginalHex != "#35689B" {
		t.Errorf("OriginalHex: got %q, want #35689B", e.Instances[1].OriginalHex)
	}
	if e.Instances[0].OriginalHex != "" {
		t.Errorf("first instance must not carry OriginalHex, got %q", e.Instances[0].OriginalHex)
	}
}

func TestRecord_DistinctColorsSeparate(t *testing.T) {
	c := New(0)
	c.Record("#FF0000", Instance{})
	c.Record("#0000FF", Instance{})
	if got := c.Len(); got != 2 {
		t.Errorf("entries: got %d, want 2", got)
	}
}

func TestRecord_UnparseableRejected(t *testing.T) {
	c := New(0)
	if _, ok := c.Record("not-a-color", Instance{}); ok {
		t.Error("expected unparseable hex to be rejected")
	}
	if _, ok := c.Record("transparent", Instance{}); ok {
		t.Error("expected transparent to be rejected")
	}
	if c.Len() != 0 {
		t.Errorf("entries: got %d, want 0", c.Len())
	}
}

// Merging is non-transitive per call: two colors each within threshold of
// the canonical merge into that entry even when they are not within
// threshold of each other. The resulting cluster radius never exceeds 2×
// the threshold.
func TestRecord_NonTransitiveClusterRadius(t *testing.T) {
	c := New(0)
	base, _ := colorspace.Parse("#808080")

	// Two colors on opposite sides of the canonical, each within threshold
	// of it.
	left := colorspace.RGBA{R: 0x80 - 10, G: 0x80 - 10, B: 0x80 - 10, A: 255}
	right := colorspace.RGBA{R: 0x80 + 10, G: 0x80 + 10, B: 0x80 + 10, A: 255}
	dl := colorspace.RedmeanDistance(base, left)
	dr := colorspace.RedmeanDistance(base, right)
	if dl >= c.threshold || dr >= c.threshold {
		t.Fatalf("test colors not within threshold: %v / %v (threshold %v)", dl, dr, c.threshold)
	}

	c.Record(base.Hex(), Instance{})
	c.Record(left.Hex(), Instance{})
	c.Record(right.Hex(), Instance{})

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}

	// Every member must sit within 2× threshold of every other member.
	members := append([]string{entries[0].Canonical}, entries[0].Merged...)
	for i := range members {
		for j := range members {
			a, _ := colorspace.Parse(members[i])
			b, _ := colorspace.Parse(members[j])
			if d := colorspace.RedmeanDistance(a, b); d > 2*c.threshold {
				t.Errorf("cluster radius violated: %s vs %s = %v > %v",
					members[i], members[j], d, 2*c.threshold)
			}
		}
	}
}

func TestRecord_ConcurrentAppends(t *testing.T) {
	c := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Record("#336699", Instance{Page: fmt.Sprintf("p%d", i)})
		}(i)
	}
	wg.Wait()

	entries := c.Entries()
	if len(entries) != 1 || entries[0].Count != 50 {
		t.Errorf("got %d entries, count %d; want 1 entry with count 50",
			len(entries), entries[0].Count)
	}
}

func TestAnalyze_CleanPalette(t *testing.T) {
	c := New(0)
	for i := 0; i < 5; i++ {
		for j := 0; j < 4; j++ {
			c.Record(fmt.Sprintf("#%02X40%02X", 40*i+40, 50*i+30), Instance{Page: "p"})
		}
	}
	a := c.Analyze(0)
	if a.Score != 10.0 {
		t.Errorf("Score: got %v, want 10.0 (deductions: %+v)", a.Score, a.Deductions)
	}
}

func TestAnalyze_TooManyColors(t *testing.T) {
	c := New(0)
	// 30 well-separated colors, each used 3 times so none are outliers.
	for i := 0; i < 30; i++ {
		hex := fmt.Sprintf("#%02X%02X%02X", (i*53)%256, (i*97+120)%256, (i*31+60)%256)
		for j := 0; j < 3; j++ {
			c.Record(hex, Instance{Page: "p"})
		}
	}
	a := c.Analyze(0)
	if a.TotalColors <= 25 {
		t.Skipf("fuzzy merge collapsed palette to %d; threshold interplay", a.TotalColors)
	}
	if a.Score >= 10.0 {
		t.Errorf("Score: got %v, want a deduction for %d colors", a.Score, a.TotalColors)
	}
}

func TestAnalyze_GraysAndOutliers(t *testing.T) {
	c := New(0)
	c.Record("#808080", Instance{Page: "p"})
	c.Record("#FF2200", Instance{Page: "p"}) // used once: outlier

	a := c.Analyze(0)
	if len(a.Grays) != 1 || a.Grays[0] != "#808080" {
		t.Errorf("Grays: got %v", a.Grays)
	}
	found := false
	for _, o := range a.Outliers {
		if o == "#FF2200" {
			found = true
		}
	}
	if !found {
		t.Errorf("Outliers: got %v, want #FF2200 present", a.Outliers)
	}
}

func TestAnalyze_ContrastFailureDeduction(t *testing.T) {
	c := New(0)
	c.Record("#336699", Instance{Page: "p"})

	if got := c.Analyze(0).Score; got != 10.0 {
		t.Fatalf("baseline score: got %v", got)
	}
	a := c.Analyze(6)
	if a.Score != 8.5 {
		t.Errorf("Score with 6 failures: got %v, want 8.5", a.Score)
	}
}
