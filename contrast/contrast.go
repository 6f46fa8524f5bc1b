// Package contrast pairs resolved foreground/background colors for
// text-bearing elements and classifies them against WCAG AA/AAA thresholds.
// Elements whose colors did not resolve, or that sit on gradient/image
// backgrounds automated sampling cannot represent, are skipped and logged
// as gaps — never reported as false failures.
package contrast

import (
	"github.com/hazyhaar/hueaudit/colorspace"
	"github.com/hazyhaar/hueaudit/resolve"
)

// State is a tri-state verdict. Verify means the numeric answer exists but
// the classification it depends on could not be determined, so a human must
// confirm; it is never collapsed into pass or fail.
type State string

const (
	Pass   State = "pass"
	Fail   State = "fail"
	Verify State = "verify"
)

// VerdictSet is the four-way WCAG verdict grid.
type VerdictSet struct {
	AANormal  State `json:"aa_normal"`
	AAANormal State `json:"aaa_normal"`
	AALarge   State `json:"aa_large"`
	AAALarge  State `json:"aaa_large"`
}

// FontInfo describes the audited text's rendered size, when determinable.
type FontInfo struct {
	SizePx float64
	Bold   bool
	// Known is false when the size could not be read; the ratio is still
	// computed and reported, only the large-text classification suffers.
	Known bool
}

// Finding is one evaluated text/background pair.
type Finding struct {
	TextHex       string     `json:"text"`
	BackgroundHex string     `json:"background"`
	Ratio         float64    `json:"ratio"`
	FontSizeKnown bool       `json:"font_size_known"`
	// IsLarge is "true"/"false", or "unknown" when the font size could not
	// be determined.
	IsLarge  string     `json:"is_large"`
	Verdicts VerdictSet `json:"verdicts"`
	Page     string     `json:"page,omitempty"`
	Selector string     `json:"selector,omitempty"`
}

// Failing reports whether the finding is a definite WCAG AA failure: the
// applicable AA verdict when the size is known, the normal-text AA verdict
// otherwise. Verify states never count as failures.
func (f *Finding) Failing() bool {
	if f.FontSizeKnown && f.IsLarge == "true" {
		return f.Verdicts.AALarge == Fail
	}
	return f.Verdicts.AANormal == Fail
}

// Evaluate builds a Finding for a text element whose foreground and
// background both resolved. A non-nil gap reason means the element was
// skipped: either color below Verified confidence, or a complex (gradient/
// image) background in the ancestor chain. An undetermined font size does
// not suppress the ratio — only the large-text rows degrade to Verify.
func Evaluate(fg, bg resolve.ResolvedColor, font FontInfo, complexBackground bool) (*Finding, string) {
	if !fg.Resolved() {
		return nil, "text color unresolved: " + fg.Rationale
	}
	if !bg.Resolved() {
		return nil, "background color unresolved: " + bg.Rationale
	}
	if complexBackground {
		return nil, "gradient or image background; automated contrast would be unreliable"
	}

	ratio := colorspace.ContrastRatio(fg.Value, bg.Value)
	grid := colorspace.VerdictGrid(ratio)

	f := &Finding{
		TextHex:       fg.Value.Hex(),
		BackgroundHex: bg.Value.Hex(),
		Ratio:         ratio,
		FontSizeKnown: font.Known,
		Verdicts: VerdictSet{
			AANormal:  state(grid.AANormal),
			AAANormal: state(grid.AAANormal),
		},
	}

	if font.Known {
		large := colorspace.IsLargeText(font.SizePx, font.Bold)
		f.IsLarge = "false"
		if large {
			f.IsLarge = "true"
		}
		f.Verdicts.AALarge = state(grid.AALarge)
		f.Verdicts.AAALarge = state(grid.AAALarge)
		return f, ""
	}

	// Size unknown: the normal-text rows are size-independent and stand,
	// the large-text rows need a human to confirm the classification.
	f.IsLarge = "unknown"
	f.Verdicts.AALarge = Verify
	f.Verdicts.AAALarge = Verify
	return f, ""
}

func state(pass bool) State {
	if pass {
		return Pass
	}
	return Fail
}
