package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/hueaudit/catalogue"
	"github.com/hazyhaar/hueaudit/internal/config"
	"github.com/hazyhaar/hueaudit/raster"
	"github.com/hazyhaar/hueaudit/resolve"
)

type fakeTarget struct {
	id       string
	tag      string
	kind     resolve.Kind
	parent   *fakeTarget
	styles   map[string]string
	hasText  bool
	fontSize float64
	bold     bool
}

func (f *fakeTarget) ID() string         { return f.id }
func (f *fakeTarget) Tag() string        { return f.tag }
func (f *fakeTarget) Kind() resolve.Kind { return f.kind }
func (f *fakeTarget) Classes() []string  { return nil }
func (f *fakeTarget) Rect() raster.Rect  { return raster.Rect{X: 0, Y: 0, W: 100, H: 40} }

func (f *fakeTarget) Parent() resolve.Element {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

func (f *fakeTarget) Style(prop string) (string, error) { return f.styles[prop], nil }

func (f *fakeTarget) PseudoStyle(_, _ string) (string, error) { return "", nil }

func (f *fakeTarget) HasText() bool { return f.hasText }

func (f *fakeTarget) FontSize() (float64, bool) { return f.fontSize, f.fontSize > 0 }

func (f *fakeTarget) Bold() bool { return f.bold }

func (f *fakeTarget) Selector() string { return f.tag }

func (f *fakeTarget) Location() string { return "body" }

type fakeTree struct {
	root *fakeTarget
}

func (t *fakeTree) Root() resolve.Element { return t.root }

func (t *fakeTree) HitTest(_, _ float64) resolve.Element { return nil }

func (t *fakeTree) StyleRules() ([]resolve.StyleRule, error) { return nil, nil }

func (t *fakeTree) HasComplexBackground(_ resolve.Element, _ int) bool { return false }

func testAuditor(t *testing.T) *Auditor {
	t.Helper()
	return &Auditor{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// testPage builds: body(white) > section(#1B3A5C) > h1(white text),
// plus a bare div with text but no colors anywhere in its chain.
func testPage() (*fakeTree, []Target) {
	body := &fakeTarget{id: "body", tag: "body", kind: resolve.KindRoot,
		styles: map[string]string{"background-color": "rgb(255, 255, 255)"}}
	section := &fakeTarget{id: "sec", tag: "section", parent: body,
		styles: map[string]string{"background-color": "rgb(27, 58, 92)"}}
	h1 := &fakeTarget{id: "h1", tag: "h1", kind: resolve.KindText, parent: section,
		styles: map[string]string{"color": "rgb(255, 255, 255)"}, hasText: true,
		fontSize: 32, bold: true}
	orphan := &fakeTarget{id: "div", tag: "div", parent: body,
		styles: map[string]string{}, hasText: true}

	tree := &fakeTree{root: body}
	return tree, []Target{body, section, h1, orphan}
}

func TestAuditPage(t *testing.T) {
	a := testAuditor(t)
	tree, targets := testPage()
	cat := catalogue.New(a.cfg.Analysis.MergeThreshold)

	res := a.auditPage(context.Background(), "https://example.com/", tree,
		resolve.PlatformGeneric, nil, targets, nil, cat)

	// The root is excluded from auditing.
	if res.Elements != 3 {
		t.Fatalf("elements: got %d, want 3", res.Elements)
	}

	// Section background and heading text both land in the catalogue.
	hexes := map[string]int{}
	for _, e := range cat.Entries() {
		hexes[e.Canonical] = e.Count
	}
	if hexes["#1B3A5C"] == 0 {
		t.Errorf("section background missing from catalogue: %v", hexes)
	}
	if hexes["#FFFFFF"] == 0 {
		t.Errorf("heading text missing from catalogue: %v", hexes)
	}

	// Exactly one contrast finding: the heading on the section background.
	if len(res.Findings) != 1 {
		t.Fatalf("findings: got %d, want 1: %+v", len(res.Findings), res.Findings)
	}
	f := res.Findings[0]
	if f.TextHex != "#FFFFFF" || f.BackgroundHex != "#1B3A5C" {
		t.Errorf("pair: got %s on %s", f.TextHex, f.BackgroundHex)
	}
	if f.Page != "https://example.com/" || f.Selector != "h1" {
		t.Errorf("provenance: got %q %q", f.Page, f.Selector)
	}
	if f.IsLarge != "true" {
		t.Errorf("32px bold heading: is_large got %q", f.IsLarge)
	}

	// The colorless div is a gap, not a finding and not a fabricated pair.
	if len(res.Gaps) != 1 {
		t.Fatalf("gaps: got %d, want 1: %v", len(res.Gaps), res.Gaps)
	}
}

func TestAuditPage_PairedProvenance(t *testing.T) {
	a := testAuditor(t)
	tree, targets := testPage()
	cat := catalogue.New(a.cfg.Analysis.MergeThreshold)

	a.auditPage(context.Background(), "https://example.com/", tree,
		resolve.PlatformGeneric, nil, targets, nil, cat)

	for _, e := range cat.Entries() {
		if e.Canonical != "#FFFFFF" {
			continue
		}
		for _, inst := range e.Instances {
			if inst.Property == catalogue.PropText && inst.PairedHex != "#1B3A5C" {
				t.Errorf("text instance pairing: got %q, want #1B3A5C", inst.PairedHex)
			}
		}
	}
}

func TestAuditPage_ComplexBackgroundIsGap(t *testing.T) {
	a := testAuditor(t)
	_, targets := testPage()
	cat := catalogue.New(a.cfg.Analysis.MergeThreshold)

	tree := &complexTree{fakeTree{root: targets[0].(*fakeTarget)}}
	res := a.auditPage(context.Background(), "https://example.com/", tree,
		resolve.PlatformGeneric, nil, targets, nil, cat)

	// Every text element skips contrast on a gradient/image chain.
	if len(res.Findings) != 0 {
		t.Fatalf("findings on complex backgrounds: %+v", res.Findings)
	}
	if len(res.Gaps) != 2 {
		t.Fatalf("gaps: got %d, want 2: %v", len(res.Gaps), res.Gaps)
	}
}

type complexTree struct{ fakeTree }

func (t *complexTree) HasComplexBackground(resolve.Element, int) bool { return true }

func TestAuditPage_Cancelled(t *testing.T) {
	a := testAuditor(t)
	tree, targets := testPage()
	cat := catalogue.New(a.cfg.Analysis.MergeThreshold)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.auditPage(ctx, "https://example.com/", tree,
		resolve.PlatformGeneric, nil, targets, nil, cat)

	if res.Elements != 0 {
		t.Errorf("cancelled run scheduled %d elements", res.Elements)
	}
	if len(res.Findings) != 0 {
		t.Errorf("cancelled run produced findings: %+v", res.Findings)
	}
}
