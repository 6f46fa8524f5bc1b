package resolve

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/hazyhaar/hueaudit/raster"
)

type fakeElement struct {
	id      string
	tag     string
	kind    Kind
	classes []string
	rect    raster.Rect
	parent  *fakeElement
	styles  map[string]string
	pseudo  map[string]map[string]string
	errs    bool
}

func (e *fakeElement) ID() string        { return e.id }
func (e *fakeElement) Tag() string       { return e.tag }
func (e *fakeElement) Kind() Kind        { return e.kind }
func (e *fakeElement) Classes() []string { return e.classes }
func (e *fakeElement) Rect() raster.Rect { return e.rect }
func (e *fakeElement) Parent() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *fakeElement) Style(prop string) (string, error) {
	if e.errs {
		return "", errors.New("restricted")
	}
	return e.styles[prop], nil
}

func (e *fakeElement) PseudoStyle(pseudo, prop string) (string, error) {
	if e.errs {
		return "", errors.New("restricted")
	}
	return e.pseudo[pseudo][prop], nil
}

type fakeTree struct {
	root     *fakeElement
	hit      func(x, y float64) Element
	rules    []StyleRule
	rulesErr error
	complex  bool
}

func (t *fakeTree) Root() Element { return t.root }
func (t *fakeTree) HitTest(x, y float64) Element {
	if t.hit == nil {
		return nil
	}
	return t.hit(x, y)
}
func (t *fakeTree) StyleRules() ([]StyleRule, error)            { return t.rules, t.rulesErr }
func (t *fakeTree) HasComplexBackground(el Element, d int) bool { return t.complex }

func whiteRoot() *fakeElement {
	return &fakeElement{id: "root", tag: "html", kind: KindRoot,
		styles: map[string]string{"background-color": "#FFFFFF"}}
}

func TestResolveBackground_DirectStyleDefinitive(t *testing.T) {
	el := &fakeElement{id: "e1", tag: "div", parent: whiteRoot()}
	r := New(&fakeTree{root: el.parent}, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el, OwnStyle: "rgb(10, 20, 30)"})
	if got.Confidence != Definitive {
		t.Fatalf("Confidence: got %v, want definitive", got.Confidence)
	}
	if got.Value.Hex() != "#0A141E" {
		t.Errorf("Value: got %s, want #0A141E", got.Value.Hex())
	}
	if got.Method != "direct-style" {
		t.Errorf("Method: got %q", got.Method)
	}
}

// Exhausting every step must yield Indeterminate, never a default white. A
// root whose background is the generic default is "not found", because it
// frequently masks the real section background.
func TestResolveBackground_NeverDefaultsToWhite(t *testing.T) {
	root := whiteRoot()
	mid := &fakeElement{id: "mid", tag: "div", parent: root}
	el := &fakeElement{id: "e1", tag: "p", kind: KindText, parent: mid}
	r := New(&fakeTree{root: root}, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if got.Confidence != Indeterminate {
		t.Fatalf("Confidence: got %v, want indeterminate", got.Confidence)
	}
	if got.Rationale == "" {
		t.Error("Indeterminate result must carry a human-readable rationale")
	}
}

// Root is white, a section container two levels up has an explicit colored
// background, the target has none of its own: the container's color wins.
func TestResolveBackground_SectionOverRoot(t *testing.T) {
	root := whiteRoot()
	section := &fakeElement{id: "sec", tag: "section", parent: root,
		classes: []string{"page-section"},
		styles:  map[string]string{"background-color": "#1B3A5C"}}
	wrap := &fakeElement{id: "wrap", tag: "div", parent: section}
	el := &fakeElement{id: "e1", tag: "p", kind: KindText, parent: wrap}
	r := New(&fakeTree{root: root}, PlatformSquarespace71, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if !got.Resolved() {
		t.Fatalf("not resolved: %+v", got)
	}
	if got.Value.Hex() != "#1B3A5C" {
		t.Errorf("Value: got %s, want the section's #1B3A5C, not white", got.Value.Hex())
	}
	if got.Method != "section-theme" {
		t.Errorf("Method: got %q, want section-theme", got.Method)
	}
}

// With many stacked sections, the one at the last interaction coordinate is
// preferred over the one found by walking up from the target.
func TestResolveBackground_PointerPicksSection(t *testing.T) {
	root := whiteRoot()
	secA := &fakeElement{id: "secA", tag: "section", parent: root,
		classes: []string{"page-section"},
		styles:  map[string]string{"background-color": "#AA0000"}}
	secB := &fakeElement{id: "secB", tag: "section", parent: root,
		classes: []string{"page-section"},
		styles:  map[string]string{"background-color": "#0000AA"}}
	inB := &fakeElement{id: "inB", tag: "div", parent: secB}
	el := &fakeElement{id: "e1", tag: "p", kind: KindText, parent: secA}

	tree := &fakeTree{root: root, hit: func(x, y float64) Element { return inB }}
	r := New(tree, PlatformSquarespace71, Config{})

	got := r.ResolveBackground(context.Background(), Context{
		Element: el,
		Pointer: &Point{X: 100, Y: 900},
	})
	if got.Value.Hex() != "#0000AA" {
		t.Errorf("Value: got %s, want the pointer-located section's #0000AA", got.Value.Hex())
	}
}

func TestResolveBackground_RuleScan(t *testing.T) {
	root := whiteRoot()
	el := &fakeElement{id: "e1", tag: "div", parent: root,
		classes: []string{"hero-background"}}
	tree := &fakeTree{root: root, rules: []StyleRule{
		{Selector: ".hero-background:hover", Background: "#FF0000"}, // excluded family
		{Selector: ".hero-background", Background: "#224466"},
	}}
	r := New(tree, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if got.Method != "rule-scan" {
		t.Fatalf("Method: got %q, want rule-scan (%+v)", got.Method, got)
	}
	if got.Value.Hex() != "#224466" {
		t.Errorf("Value: got %s, want #224466 (the :hover rule must be skipped)", got.Value.Hex())
	}
}

func TestResolveBackground_RuleScanErrorDegrades(t *testing.T) {
	root := whiteRoot()
	el := &fakeElement{id: "e1", tag: "div", parent: root,
		classes: []string{"hero-background"}}
	tree := &fakeTree{root: root, rulesErr: errors.New("cross-origin stylesheet")}
	r := New(tree, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if got.Confidence != Indeterminate {
		t.Errorf("access failure must degrade to indeterminate, got %+v", got)
	}
}

func TestResolveBackground_PseudoLayer(t *testing.T) {
	root := whiteRoot()
	el := &fakeElement{id: "e1", tag: "div", parent: root,
		pseudo: map[string]map[string]string{
			"::before": {"background-color": "#336699"},
		}}
	r := New(&fakeTree{root: root}, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if got.Method != "pseudo-layer" || got.Value.Hex() != "#336699" {
		t.Errorf("got %+v, want pseudo-layer #336699", got)
	}
}

func TestResolveBackground_PseudoSkippedForText(t *testing.T) {
	root := whiteRoot()
	el := &fakeElement{id: "e1", tag: "span", kind: KindText, parent: root,
		pseudo: map[string]map[string]string{
			"::before": {"background-color": "#000000"},
		}}
	r := New(&fakeTree{root: root}, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if got.Confidence != Indeterminate {
		t.Errorf("pseudo-layer must be skipped for text runs, got %+v", got)
	}
}

func TestResolveBackground_AccessFailuresNeverAbort(t *testing.T) {
	root := whiteRoot()
	broken := &fakeElement{id: "mid", tag: "div", parent: root, errs: true}
	el := &fakeElement{id: "e1", tag: "div", parent: broken,
		styles: map[string]string{"background-color": "#445566"}}
	r := New(&fakeTree{root: root}, PlatformGeneric, Config{})

	got := r.ResolveBackground(context.Background(), Context{Element: el})
	if got.Value.Hex() != "#445566" {
		t.Errorf("got %+v, want the element's own #445566 despite the broken ancestor", got)
	}
}

// buttonSnapshot paints a viewport whose rect perimeter is a solid color,
// as a button with a visible painted background would sample.
func buttonSnapshot(c color.RGBA) *raster.Snapshot {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return &raster.Snapshot{Img: img, DPR: 1}
}

func TestResolveBackground_PixelOverridesSuspiciousBlack(t *testing.T) {
	root := whiteRoot()
	btn := &fakeElement{id: "btn", tag: "button", kind: KindButton, parent: root,
		rect: raster.Rect{X: 20, Y: 20, W: 120, H: 120}}
	tree := &fakeTree{root: root, hit: func(x, y float64) Element { return btn }}
	r := New(tree, PlatformGeneric, Config{})

	teal := color.RGBA{0, 128, 128, 255}
	got := r.ResolveBackground(context.Background(), Context{
		Element:  btn,
		OwnStyle: "#000000",
		Snapshot: buttonSnapshot(teal),
	})
	if got.Method != "pixel-verify" {
		t.Fatalf("Method: got %q, want pixel-verify (%+v)", got.Method, got)
	}
	if got.Value.Hex() != "#008080" {
		t.Errorf("Value: got %s, want the sampled #008080", got.Value.Hex())
	}
}

func TestResolveBackground_LowAgreementKeepsDOMAnswer(t *testing.T) {
	root := whiteRoot()
	btn := &fakeElement{id: "btn", tag: "button", kind: KindButton, parent: root,
		rect: raster.Rect{X: 20, Y: 20, W: 120, H: 120}}
	tree := &fakeTree{root: root, hit: func(x, y float64) Element { return btn }}
	r := New(tree, PlatformGeneric, Config{})

	// Checkerboard perimeter: the sample disagrees with the DOM answer but
	// cannot agree with itself, so the asymmetric rule keeps the DOM color.
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	a := color.RGBA{0, 128, 128, 255}
	b := color.RGBA{230, 120, 20, 255}
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if (x/15+y/15)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	got := r.ResolveBackground(context.Background(), Context{
		Element:  btn,
		OwnStyle: "#000000",
		Snapshot: &raster.Snapshot{Img: img, DPR: 1},
	})
	if got.Value.Hex() != "#000000" {
		t.Errorf("Value: got %s, want the DOM answer #000000 kept", got.Value.Hex())
	}
	if got.Method != "direct-style" {
		t.Errorf("Method: got %q, want direct-style", got.Method)
	}
}

func TestResolveBackground_HitTestMismatchSkipsSampling(t *testing.T) {
	root := whiteRoot()
	other := &fakeElement{id: "overlay", tag: "div", parent: root}
	btn := &fakeElement{id: "btn", tag: "button", kind: KindButton, parent: root,
		rect: raster.Rect{X: 20, Y: 20, W: 120, H: 120}}
	tree := &fakeTree{root: root, hit: func(x, y float64) Element { return other }}
	r := New(tree, PlatformGeneric, Config{})

	teal := color.RGBA{0, 128, 128, 255}
	got := r.ResolveBackground(context.Background(), Context{
		Element:  btn,
		OwnStyle: "#000000",
		Snapshot: buttonSnapshot(teal),
	})
	if got.Value.Hex() != "#000000" {
		t.Errorf("overlapped element must not be sampled: got %s, want #000000", got.Value.Hex())
	}
}

func TestResolveForeground_DirectAndAncestor(t *testing.T) {
	root := whiteRoot()
	mid := &fakeElement{id: "mid", tag: "div", parent: root,
		styles: map[string]string{"color": "#222222"}}
	el := &fakeElement{id: "e1", tag: "span", kind: KindText, parent: mid}
	r := New(&fakeTree{root: root}, PlatformGeneric, Config{})

	got := r.ResolveForeground(context.Background(), Context{Element: el, OwnStyle: "#FF00FF"})
	if got.Confidence != Definitive || got.Value.Hex() != "#FF00FF" {
		t.Errorf("direct: got %+v", got)
	}

	got = r.ResolveForeground(context.Background(), Context{Element: el})
	if got.Method != "ancestor-walk" || got.Value.Hex() != "#222222" {
		t.Errorf("ancestor: got %+v", got)
	}
}

func TestResolveForeground_Indeterminate(t *testing.T) {
	root := &fakeElement{id: "root", tag: "html", kind: KindRoot}
	el := &fakeElement{id: "e1", tag: "span", kind: KindText, parent: root}
	r := New(&fakeTree{root: root}, PlatformGeneric, Config{})

	got := r.ResolveForeground(context.Background(), Context{Element: el})
	if got.Confidence != Indeterminate {
		t.Errorf("got %+v, want indeterminate", got)
	}
}

func TestParsePlatform(t *testing.T) {
	cases := map[string]Platform{
		"squarespace-7.1": PlatformSquarespace71,
		"sqs70":           PlatformSquarespace70,
		"wordpress":       PlatformWordPress,
		"":                PlatformGeneric,
		"unknown-cms":     PlatformGeneric,
	}
	for in, want := range cases {
		if got := ParsePlatform(in); got != want {
			t.Errorf("ParsePlatform(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestChains_AllTerminate(t *testing.T) {
	for _, p := range []Platform{PlatformGeneric, PlatformSquarespace71, PlatformSquarespace70, PlatformWordPress} {
		if len(chainFor(p)) == 0 {
			t.Errorf("platform %v has an empty chain", p)
		}
	}
}
