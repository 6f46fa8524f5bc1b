// Package catalogue maintains the running inventory of distinct colors
// observed across a site. Slightly different observed colors are folded
// into one entry when their redmean distance is below the merge threshold,
// with full per-instance provenance preserved so a report can point back at
// the exact page, property and selector each occurrence came from.
package catalogue

import (
	"sync"

	"github.com/hazyhaar/hueaudit/colorspace"
)

// Property names the CSS property a color was found on.
type Property string

const (
	PropText       Property = "text"
	PropBackground Property = "background"
	PropFill       Property = "fill"
	PropStroke     Property = "stroke"
	PropBorder     Property = "border"
)

// Instance is one observed occurrence of a color.
type Instance struct {
	// Page is the URL the color was observed on.
	Page     string   `json:"page"`
	Property Property `json:"property"`
	// Location is a structural hint (section/block path) for the report.
	Location string `json:"location,omitempty"`
	Selector string `json:"selector,omitempty"`
	// OriginalHex preserves the raw observed value when the instance was
	// fuzzy-merged into an entry with a different canonical hex.
	OriginalHex string `json:"original_hex,omitempty"`
	// PairedHex is the opposite color of a contrast pair, when applicable.
	PairedHex string `json:"paired_hex,omitempty"`
}

// Entry is one visually-distinct color family.
type Entry struct {
	// Canonical is the normalized hex of the first-observed member. Merge
	// policy is fixed: the first-observed hex stays canonical for the life
	// of the run; later merged-in values never displace it.
	Canonical string     `json:"canonical"`
	Count     int        `json:"count"`
	Instances []Instance `json:"instances"`
	// Merged lists hex values judged close enough to fold into this entry.
	Merged []string `json:"merged,omitempty"`
}

func (e *Entry) hasMerged(hex string) bool {
	for _, m := range e.Merged {
		if m == hex {
			return true
		}
	}
	return false
}

// Catalogue accumulates entries for the duration of one analysis run.
// Record is the single mutating operation and is mutex-serialized:
// detection calls for independent elements run concurrently, and concurrent
// merges on the same canonical entry race without it.
type Catalogue struct {
	mu        sync.Mutex
	threshold float64
	entries   []*Entry
	byHex     map[string]*Entry
}

// New creates a Catalogue with the given redmean merge threshold.
// Zero or negative uses colorspace.DefaultMergeThreshold.
func New(threshold float64) *Catalogue {
	if threshold <= 0 {
		threshold = colorspace.DefaultMergeThreshold
	}
	return &Catalogue{
		threshold: threshold,
		byHex:     make(map[string]*Entry),
	}
}

// Record files one observed color. The observed hex is normalized first; an
// exact canonical match appends, otherwise the nearest canonical within the
// merge threshold absorbs the observation (tagging the instance's
// OriginalHex), otherwise a new entry is created. Merging is one-directional
// and non-transitive per call: two colors each close to a canonical merge
// into that entry even if they are not close to each other.
// Returns the canonical hex the instance landed on, or false when the hex
// does not parse.
func (c *Catalogue) Record(observedHex string, inst Instance) (string, bool) {
	col, ok := colorspace.Parse(observedHex)
	if !ok || col.A == 0 {
		return "", false
	}
	hex := col.Hex()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.byHex[hex]; exists {
		if e.Canonical != hex && !instHasOriginal(inst) {
			inst.OriginalHex = hex
		}
		e.Count++
		e.Instances = append(e.Instances, inst)
		return e.Canonical, true
	}

	if e := c.nearest(col); e != nil {
		inst.OriginalHex = hex
		if !e.hasMerged(hex) {
			e.Merged = append(e.Merged, hex)
		}
		c.byHex[hex] = e
		e.Count++
		e.Instances = append(e.Instances, inst)
		return e.Canonical, true
	}

	e := &Entry{Canonical: hex, Count: 1, Instances: []Instance{inst}}
	c.entries = append(c.entries, e)
	c.byHex[hex] = e
	return hex, true
}

// nearest returns the entry whose canonical hex is closest to col, if the
// distance is under the threshold. Distances are computed against canonical
// values only, which keeps the merge non-transitive: a cluster's radius is
// bounded by 2× the threshold, never more.
func (c *Catalogue) nearest(col colorspace.RGBA) *Entry {
	var best *Entry
	bestDist := c.threshold
	for _, e := range c.entries {
		canonical, _ := colorspace.Parse(e.Canonical)
		d := colorspace.RedmeanDistance(col, canonical)
		if d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func instHasOriginal(inst Instance) bool { return inst.OriginalHex != "" }

// Entries returns a stable-order snapshot (first observed first).
func (c *Catalogue) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = *e
		out[i].Instances = append([]Instance(nil), e.Instances...)
		out[i].Merged = append([]string(nil), e.Merged...)
	}
	return out
}

// Len returns the number of distinct entries.
func (c *Catalogue) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
