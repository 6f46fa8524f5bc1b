package catalogue

import (
	"fmt"
	"sort"

	"github.com/hazyhaar/hueaudit/colorspace"
)

// Deduction is one itemized subtraction from the consistency score.
type Deduction struct {
	Points float64 `json:"points"`
	Reason string  `json:"reason"`
}

// Family groups perceptually related entries: variations of what a designer
// meant to be one color.
type Family struct {
	// Main is the most-used member's canonical hex.
	Main       string   `json:"main"`
	Variations []string `json:"variations"`
	TotalUses  int      `json:"total_uses"`
}

// Analysis is the site-level color-consistency assessment.
type Analysis struct {
	// Score starts at 10.0 and loses the itemized Deductions, floored at 0.
	Score       float64     `json:"score"`
	TotalColors int         `json:"total_colors"`
	Deductions  []Deduction `json:"deductions,omitempty"`
	Families    []Family    `json:"families,omitempty"`
	// Grays lists neutral entries (channels within a small spread).
	Grays []string `json:"grays,omitempty"`
	// Outliers are entries used once or twice: likely accidental colors.
	Outliers   []string       `json:"outliers,omitempty"`
	PageCounts map[string]int `json:"page_counts,omitempty"`
}

// familySpread widens the merge threshold for family grouping: variations
// of one brand color sit further apart than duplicates of the same color.
const familySpread = 3.0

// grayChannelSpread is the max channel delta for a color to read as neutral.
const grayChannelSpread = 10

// Analyze computes the consistency assessment over the current catalogue.
// contrastFailures is the number of failing contrast findings from the same
// run; it feeds one deduction family.
func (c *Catalogue) Analyze(contrastFailures int) Analysis {
	entries := c.Entries()

	a := Analysis{
		Score:       10.0,
		TotalColors: len(entries),
		PageCounts:  pageCounts(entries),
	}

	a.Families = groupFamilies(entries, c.threshold*familySpread)
	for _, e := range entries {
		col, _ := colorspace.Parse(e.Canonical)
		if isGray(col) {
			a.Grays = append(a.Grays, e.Canonical)
		}
		if e.Count <= 2 {
			a.Outliers = append(a.Outliers, e.Canonical)
		}
	}

	deduct := func(points float64, reason string) {
		a.Deductions = append(a.Deductions, Deduction{Points: points, Reason: reason})
		a.Score -= points
	}

	switch {
	case len(entries) > 50:
		deduct(3.0, fmt.Sprintf("%d distinct colors in use (more than 50)", len(entries)))
	case len(entries) > 35:
		deduct(2.0, fmt.Sprintf("%d distinct colors in use (more than 35)", len(entries)))
	case len(entries) > 25:
		deduct(1.0, fmt.Sprintf("%d distinct colors in use (more than 25)", len(entries)))
	}

	for _, f := range a.Families {
		switch {
		case len(f.Variations) > 8:
			deduct(1.5, fmt.Sprintf("color family around %s has %d variations", f.Main, len(f.Variations)))
		case len(f.Variations) > 5:
			deduct(1.0, fmt.Sprintf("color family around %s has %d variations", f.Main, len(f.Variations)))
		}
	}

	switch {
	case len(a.Grays) > 12:
		deduct(1.5, fmt.Sprintf("%d gray shades in use", len(a.Grays)))
	case len(a.Grays) > 8:
		deduct(1.0, fmt.Sprintf("%d gray shades in use", len(a.Grays)))
	}

	switch {
	case len(a.Outliers) > 10:
		deduct(2.0, fmt.Sprintf("%d colors used only once or twice", len(a.Outliers)))
	case len(a.Outliers) > 5:
		deduct(1.0, fmt.Sprintf("%d colors used only once or twice", len(a.Outliers)))
	}

	switch {
	case contrastFailures > 5:
		deduct(1.5, fmt.Sprintf("%d WCAG contrast failures", contrastFailures))
	case contrastFailures > 2:
		deduct(0.5, fmt.Sprintf("%d WCAG contrast failures", contrastFailures))
	}

	if a.Score < 0 {
		a.Score = 0
	}
	return a
}

// groupFamilies greedily clusters entries around their most-used members.
func groupFamilies(entries []Entry, threshold float64) []Family {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	type cluster struct {
		main  colorspace.RGBA
		f     Family
	}
	var clusters []*cluster

	for _, e := range sorted {
		col, ok := colorspace.Parse(e.Canonical)
		if !ok {
			continue
		}
		placed := false
		for _, cl := range clusters {
			if colorspace.RedmeanDistance(col, cl.main) < threshold {
				cl.f.Variations = append(cl.f.Variations, e.Canonical)
				cl.f.TotalUses += e.Count
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{
				main: col,
				f: Family{
					Main:       e.Canonical,
					Variations: []string{e.Canonical},
					TotalUses:  e.Count,
				},
			})
		}
	}

	var out []Family
	for _, cl := range clusters {
		if len(cl.f.Variations) >= 2 {
			out = append(out, cl.f)
		}
	}
	return out
}

func isGray(c colorspace.RGBA) bool {
	max := c.R
	min := c.R
	for _, v := range []uint8{c.G, c.B} {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return int(max)-int(min) <= grayChannelSpread
}

func pageCounts(entries []Entry) map[string]int {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, inst := range e.Instances {
			if inst.Page != "" {
				counts[inst.Page]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}
