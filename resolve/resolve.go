// Package resolve determines the color a human actually perceives as an
// element's background or foreground. The answer may live on a distant
// ancestor, a themed section container, an authored stylesheet rule, a
// pseudo-element layer, or only in rendered pixels; the resolver runs an
// ordered chain of detection steps per authoring platform and short-circuits
// on the first confident result.
//
// When no step can resolve a color the outcome is Indeterminate — an
// explicit terminal state the caller must handle, never a silently assumed
// default. Fabricating a fallback color is the defect class this package
// exists to prevent.
package resolve

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/hueaudit/colorspace"
	"github.com/hazyhaar/hueaudit/raster"
)

// Confidence grades how a color was established.
type Confidence int

const (
	// Indeterminate means no step could confidently resolve a color. It is
	// a legitimate, expected terminal state surfaced to the report reader
	// as a manual-verification prompt, not an error.
	Indeterminate Confidence = iota
	// Verified means the color was derived indirectly (ancestor, rule scan,
	// pixel sample) with enough supporting evidence.
	Verified
	// Definitive means the color was read directly off the element.
	Definitive
)

func (c Confidence) String() string {
	switch c {
	case Definitive:
		return "definitive"
	case Verified:
		return "verified"
	default:
		return "indeterminate"
	}
}

// ResolvedColor is the outcome of one detection call. Produced fresh per
// call and never cached across page mutations: layout and paint can change
// between calls.
type ResolvedColor struct {
	Value      colorspace.RGBA
	Confidence Confidence
	Method     string
	Rationale  string
}

// Resolved reports whether the color carries at least Verified confidence.
func (r ResolvedColor) Resolved() bool { return r.Confidence >= Verified }

// Kind classifies an element for step selection.
type Kind int

const (
	KindGeneric Kind = iota
	// KindText is a plain text run. Pseudo-layer checks are skipped for
	// these: decorative ::before/::after there are routinely black/white
	// ornament, not the text's real background.
	KindText
	// KindButton marks interactive elements whose DOM-derived background is
	// always cross-checked against pixels.
	KindButton
	KindRoot
)

// Element is a read-only handle into the rendered tree.
type Element interface {
	ID() string
	Tag() string
	Kind() Kind
	Classes() []string
	Rect() raster.Rect
	// Parent returns the containing element, nil at the document root.
	Parent() Element
	// Style returns a computed style value. Access failures (cross-origin,
	// detached node) return an error, which every step degrades to "value
	// absent" — never to pipeline failure.
	Style(prop string) (string, error)
	// PseudoStyle reads a property off a ::before/::after layer.
	PseudoStyle(pseudo, prop string) (string, error)
}

// StyleRule is one authored stylesheet rule relevant to backgrounds.
type StyleRule struct {
	Selector   string
	Background string
}

// Tree is the read-only rendered-tree accessor the resolver consumes.
type Tree interface {
	Root() Element
	// HitTest returns the topmost element at a viewport point, or nil when
	// the point cannot be resolved.
	HitTest(x, y float64) Element
	// StyleRules enumerates authored rules that declare a background.
	// Restricted stylesheets surface as an error, treated as no rules.
	StyleRules() ([]StyleRule, error)
	// HasComplexBackground reports a gradient or image background anywhere
	// in the ancestor chain up to maxDepth levels.
	HasComplexBackground(el Element, maxDepth int) bool
}

// Point is a viewport coordinate, typically the last known pointer or click
// position.
type Point struct {
	X, Y float64
}

// Context is the immutable input bundle for one detection call.
type Context struct {
	Element Element
	// Snapshot is the viewport raster, nil when capture failed or timed
	// out. Steps that need it are skipped, not retried.
	Snapshot *raster.Snapshot
	// Pointer is the last known interaction coordinate, used to pick the
	// correct section container on pages that stack many of them.
	Pointer *Point
	// OwnStyle is the element's pre-read style value. An optimization
	// hint, not authoritative.
	OwnStyle string
}

// Config tunes the resolver. Zero values fall back to the documented
// defaults; the thresholds are empirically tuned and exposed through the
// YAML config rather than hard-coded.
type Config struct {
	// MergeThreshold is the redmean distance for "same color" decisions.
	MergeThreshold float64
	// PixelAgreement is the minimum sample agreement fraction required
	// before a pixel sample may override a DOM-derived answer.
	PixelAgreement float64
	// Grid and HighStakesGrid size the sampling patterns.
	Grid           int
	HighStakesGrid int
	MinInBounds    float64
	Logger         *slog.Logger
}

func (c *Config) defaults() {
	if c.MergeThreshold <= 0 {
		c.MergeThreshold = colorspace.DefaultMergeThreshold
	}
	if c.PixelAgreement <= 0 {
		c.PixelAgreement = 0.70
	}
	if c.Grid <= 0 {
		c.Grid = 5
	}
	if c.HighStakesGrid <= 0 {
		c.HighStakesGrid = 8
	}
	if c.MinInBounds <= 0 {
		c.MinInBounds = 0.5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Resolver runs detection pipelines against one rendered tree.
type Resolver struct {
	cfg      Config
	tree     Tree
	platform Platform
	chain    []step
}

// New creates a Resolver for a tree classified as the given platform.
func New(tree Tree, platform Platform, cfg Config) *Resolver {
	cfg.defaults()
	return &Resolver{
		cfg:      cfg,
		tree:     tree,
		platform: platform,
		chain:    chainFor(platform),
	}
}

// ResolveBackground runs the platform step chain for the element's visible
// background, then cross-checks suspicious answers against pixels.
func (r *Resolver) ResolveBackground(ctx context.Context, dc Context) ResolvedColor {
	if dc.Element == nil {
		return indeterminate("no target element")
	}

	var result *ResolvedColor
	for _, s := range r.chain {
		if ctx.Err() != nil {
			return indeterminate("detection cancelled")
		}
		if got := s.fn(r, dc); got != nil {
			result = got
			break
		}
	}

	result = r.verifyWithPixels(dc, result)
	if result == nil {
		return indeterminate("no detection step produced a background; manual verification needed")
	}
	return *result
}

// ResolveForeground resolves the text color. Foreground is rarely layered,
// so only the direct read and the ancestor walk apply.
func (r *Resolver) ResolveForeground(ctx context.Context, dc Context) ResolvedColor {
	if dc.Element == nil {
		return indeterminate("no target element")
	}
	if ctx.Err() != nil {
		return indeterminate("detection cancelled")
	}

	if !colorspace.Absent(dc.OwnStyle) {
		if c, ok := colorspace.Parse(dc.OwnStyle); ok {
			return ResolvedColor{Value: c, Confidence: Definitive, Method: "direct-style",
				Rationale: "computed color read off the element"}
		}
	}

	for el := dc.Element; el != nil; el = el.Parent() {
		raw, err := el.Style("color")
		if err != nil || colorspace.Absent(raw) {
			continue
		}
		if c, ok := colorspace.Parse(raw); ok {
			conf := Definitive
			method := "direct-style"
			if el.ID() != dc.Element.ID() {
				conf, method = Verified, "ancestor-walk"
			}
			return ResolvedColor{Value: c, Confidence: conf, Method: method,
				Rationale: "nearest ancestor with an explicit text color"}
		}
	}
	return indeterminate("no element in the chain declares a text color")
}

func indeterminate(rationale string) ResolvedColor {
	return ResolvedColor{Confidence: Indeterminate, Method: "indeterminate", Rationale: rationale}
}
