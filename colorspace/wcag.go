package colorspace

import "math"

// WCAG thresholds. Normal text needs 4.5:1 (AA) / 7.0:1 (AAA); large text
// needs 3.0:1 (AA) / 4.5:1 (AAA).
const (
	AANormal  = 4.5
	AAANormal = 7.0
	AALarge   = 3.0
	AAALarge  = 4.5
)

// Large-text boundaries: 18pt (≈24px) at normal weight, 14pt (≈18.66px) bold.
const (
	LargeTextPx     = 24.0
	LargeTextBoldPx = 18.66
)

// RelativeLuminance returns the WCAG relative luminance of a color:
// per-channel sRGB linearization, then the 0.2126/0.7152/0.0722 weighted sum.
func RelativeLuminance(c RGBA) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func linearize(ch uint8) float64 {
	v := float64(ch) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG contrast ratio between two colors,
// (Lmax+0.05)/(Lmin+0.05). Symmetric in its arguments; white against black
// is exactly 21.0.
func ContrastRatio(a, b RGBA) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// IsLargeText reports whether text qualifies as WCAG "large" given its
// rendered pixel size and weight.
func IsLargeText(px float64, bold bool) bool {
	if bold {
		return px >= LargeTextBoldPx
	}
	return px >= LargeTextPx
}

// Grid is the four-way WCAG pass/fail verdict for a contrast ratio.
type Grid struct {
	AANormal  bool `json:"aa_normal"`
	AAANormal bool `json:"aaa_normal"`
	AALarge   bool `json:"aa_large"`
	AAALarge  bool `json:"aaa_large"`
}

// VerdictGrid evaluates a ratio against all four WCAG thresholds.
func VerdictGrid(ratio float64) Grid {
	return Grid{
		AANormal:  ratio >= AANormal,
		AAANormal: ratio >= AAANormal,
		AALarge:   ratio >= AALarge,
		AAALarge:  ratio >= AAALarge,
	}
}

// RedmeanDistance is the perceptually weighted color distance used to decide
// whether two colors read as the same to a human. The red channel weight
// follows the mean redness of the pair; the result is scaled down so that
// the practical "visually identical" cut sits near 2.3 (see
// DefaultMergeThreshold) and maximally distinct pairs land around 30.
// Zero for identical colors, symmetric.
func RedmeanDistance(a, b RGBA) float64 {
	rmean := (float64(a.R) + float64(b.R)) / 2
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	raw := math.Sqrt((2+rmean/256)*dr*dr + 4*dg*dg + (2+(255-rmean)/256)*db*db)
	return raw / 25.5
}

// DefaultMergeThreshold is the empirically tuned redmean distance below
// which two observed colors are folded into one catalogue entry. Exposed in
// configuration; this constant is the fallback, not a fixed truth.
const DefaultMergeThreshold = 2.3
