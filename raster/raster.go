// Package raster extracts representative colors from viewport screenshots.
// Sampling is grid-based with median aggregation: border pixels and
// anti-aliasing artifacts are outliers that a mean would absorb into the
// result but a median discards.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // screenshot formats
	_ "image/png"
	"sort"

	_ "golang.org/x/image/webp"

	"github.com/hazyhaar/hueaudit/colorspace"
)

// Snapshot is a decoded full-viewport raster plus the device pixel ratio
// needed to map CSS coordinates onto it. Treated as an immutable read-only
// buffer by all samplers; concurrent detection calls share one Snapshot.
type Snapshot struct {
	Img image.Image
	DPR float64
}

// Decode decodes screenshot bytes (PNG, JPEG or WebP) into a Snapshot.
func Decode(data []byte, dpr float64) (*Snapshot, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decode snapshot: %w", err)
	}
	if dpr <= 0 {
		dpr = 1
	}
	return &Snapshot{Img: img, DPR: dpr}, nil
}

// Rect is an element's on-screen rectangle in CSS pixels.
type Rect struct {
	X, Y, W, H float64
}

// Empty reports whether the rectangle has zero (or negative) area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Mode selects the sampling pattern.
type Mode int

const (
	// ModeGrid samples an N×N grid across the whole rectangle.
	ModeGrid Mode = iota
	// ModeEdges samples only the rectangle's outer ring, excluding the
	// center. Required for text-bearing elements: center sampling on a text
	// node returns the glyph color, not the background it sits on.
	ModeEdges
)

// Options tunes a sampling pass.
type Options struct {
	// Grid is N for the N×N pattern. Default 5; callers use wider grids
	// (e.g. 8) when the decision is higher stakes.
	Grid int
	Mode Mode
	// MinInBounds is the minimum fraction of grid points that must land on
	// the raster for the sample to count. Default 0.5.
	MinInBounds float64
	// AgreementThreshold is the redmean distance within which a grid point
	// is counted as agreeing with the aggregate color. Default
	// colorspace.DefaultMergeThreshold.
	AgreementThreshold float64
}

func (o *Options) defaults() {
	if o.Grid <= 0 {
		o.Grid = 5
	}
	if o.MinInBounds <= 0 {
		o.MinInBounds = 0.5
	}
	if o.AgreementThreshold <= 0 {
		o.AgreementThreshold = colorspace.DefaultMergeThreshold
	}
}

// Sample is the aggregated result of one sampling pass.
type Sample struct {
	// Color is the per-channel median of the sampled pixels.
	Color colorspace.RGBA
	// Points is the number of pattern points attempted, InBounds how many
	// landed on the raster.
	Points   int
	InBounds int
	// Agreement is the fraction of in-bounds points whose pixel color sits
	// within AgreementThreshold of Color. The pixel-verification step only
	// overrides a DOM answer when this is high.
	Agreement float64
}

// SampleRect samples the rectangle and returns the aggregate, or false when
// the rectangle is empty or too few points were in bounds. It never invents
// a color: an unusable sample is reported as no sample.
func (s *Snapshot) SampleRect(r Rect, opts Options) (*Sample, bool) {
	opts.defaults()
	if r.Empty() || s.Img == nil {
		return nil, false
	}

	bounds := s.Img.Bounds()
	n := opts.Grid
	var pts int
	var rs, gs, bs []uint8

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if opts.Mode == ModeEdges && i != 0 && i != n-1 && j != 0 && j != n-1 {
				continue
			}
			pts++
			// Fractional position inside the rect, then CSS→device pixels.
			cx := r.X + (float64(j)+0.5)/float64(n)*r.W
			cy := r.Y + (float64(i)+0.5)/float64(n)*r.H
			px := int(cx * s.DPR)
			py := int(cy * s.DPR)
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			cr, cg, cb, _ := s.Img.At(px, py).RGBA()
			rs = append(rs, uint8(cr>>8))
			gs = append(gs, uint8(cg>>8))
			bs = append(bs, uint8(cb>>8))
		}
	}

	if pts == 0 || float64(len(rs))/float64(pts) < opts.MinInBounds {
		return nil, false
	}

	med := colorspace.RGBA{R: median(rs), G: median(gs), B: median(bs), A: 255}

	agree := 0
	for i := range rs {
		p := colorspace.RGBA{R: rs[i], G: gs[i], B: bs[i], A: 255}
		if colorspace.RedmeanDistance(p, med) < opts.AgreementThreshold {
			agree++
		}
	}

	return &Sample{
		Color:     med,
		Points:    pts,
		InBounds:  len(rs),
		Agreement: float64(agree) / float64(len(rs)),
	}, true
}

// Center returns the rectangle's center point in CSS pixels, the coordinate
// the pipeline hit-tests before trusting any sample from this rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

func median(vals []uint8) uint8 {
	s := make([]uint8, len(vals))
	copy(s, vals)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s[len(s)/2]
}
