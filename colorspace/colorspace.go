// Package colorspace provides the pure color math underlying the audit
// engine: CSS color parsing, WCAG luminance and contrast, and the redmean
// perceptual distance used for fuzzy grouping. No I/O, fully deterministic.
package colorspace

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA is an 8-bit-per-channel sRGB color with alpha.
type RGBA struct {
	R, G, B uint8
	A       uint8
}

// Common colors used by detection heuristics.
var (
	White = RGBA{255, 255, 255, 255}
	Black = RGBA{0, 0, 0, 255}
)

// Hex returns the normalized uppercase #RRGGBB form. Alpha is not encoded;
// callers that care about transparency must check it before formatting.
func (c RGBA) Hex() string {
	const digits = "0123456789ABCDEF"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0F]
	}
	return string(b)
}

// Opaque reports whether the color is fully opaque.
func (c RGBA) Opaque() bool { return c.A == 255 }

// Absent reports whether a raw CSS color value means "no color present".
// transparent, alpha-zero rgba(), inherit, initial and the empty string all
// qualify. White and black are real colors and are never absent; conflating
// them with absence is a known defect class in this domain.
func Absent(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "transparent", "inherit", "initial", "unset", "none", "currentcolor":
		return true
	}
	if c, ok := Parse(s); ok {
		return c.A == 0
	}
	return false
}

// Parse parses a CSS textual color: #RGB, #RRGGBB, #RRGGBBAA, rgb()/rgba()
// and hsl()/hsla(). Returns false for anything it cannot parse, including
// the absence keywords handled by Absent.
func Parse(raw string) (RGBA, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseRGBFunc(s)
	case strings.HasPrefix(s, "hsl"):
		return parseHSLFunc(s)
	}
	return RGBA{}, false
}

func parseHex(s string) (RGBA, bool) {
	h := s[1:]
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	case 8:
	default:
		return RGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return RGBA{}, false
	}
	if len(h) == 8 {
		return RGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
	}
	return RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
}

// funcArgs strips "name(" and ")" and splits on commas, slashes and spaces,
// accepting both legacy comma syntax and the modern space syntax.
func funcArgs(s string) []string {
	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < open {
		return nil
	}
	inner := s[open+1 : close]
	inner = strings.ReplaceAll(inner, ",", " ")
	inner = strings.ReplaceAll(inner, "/", " ")
	return strings.Fields(inner)
}

func parseRGBFunc(s string) (RGBA, bool) {
	args := funcArgs(s)
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSuffix(args[i], "%"), 64)
		if err != nil {
			return RGBA{}, false
		}
		if strings.HasSuffix(args[i], "%") {
			v = v * 255 / 100
		}
		ch[i] = clamp255(v)
	}
	a := uint8(255)
	if len(args) == 4 {
		av, ok := parseAlpha(args[3])
		if !ok {
			return RGBA{}, false
		}
		a = av
	}
	return RGBA{ch[0], ch[1], ch[2], a}, true
}

// parseHSLFunc converts through the standard colorimetric HSL→RGB formula
// (via go-colorful). Skipping this conversion is a previously observed
// defect: CSS custom properties routinely surface as hsla() strings.
func parseHSLFunc(s string) (RGBA, bool) {
	args := funcArgs(s)
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return RGBA{}, false
	}
	sat, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	if err != nil {
		return RGBA{}, false
	}
	l, err := strconv.ParseFloat(strings.TrimSuffix(args[2], "%"), 64)
	if err != nil {
		return RGBA{}, false
	}
	a := uint8(255)
	if len(args) == 4 {
		av, ok := parseAlpha(args[3])
		if !ok {
			return RGBA{}, false
		}
		a = av
	}
	h = math.Mod(math.Mod(h, 360)+360, 360)
	col := colorful.Hsl(h, sat/100, l/100).Clamped()
	r, g, b := col.RGB255()
	return RGBA{r, g, b, a}, true
}

func parseAlpha(s string) (uint8, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	if strings.HasSuffix(s, "%") {
		v /= 100
	}
	return clamp255(v * 255), true
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
