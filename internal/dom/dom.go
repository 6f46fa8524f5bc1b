// Package dom captures a rendered page as a read-only element tree the
// detection pipeline can walk without further round trips. One Eval
// snapshots visible elements, their computed styles and pseudo layers;
// hit-testing and stylesheet enumeration stay live because they depend
// on paint order and cross-origin state at call time.
package dom

import (
	"strconv"
	"strings"

	"github.com/hazyhaar/hueaudit/raster"
	"github.com/hazyhaar/hueaudit/resolve"
)

// nodeData is the wire form of one captured element.
type nodeData struct {
	ID      string            `json:"id"`
	Tag     string            `json:"tag"`
	Classes []string          `json:"classes"`
	Parent  int               `json:"parent"` // index into the capture array, -1 at root
	Rect    rectData          `json:"rect"`
	Styles  map[string]string `json:"styles"`
	Before  map[string]string `json:"before"`
	After   map[string]string `json:"after"`
	HasText bool              `json:"hasText"`
}

type rectData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Node is one element of a captured tree.
type Node struct {
	id      string
	tag     string
	kind    resolve.Kind
	classes []string
	rect    raster.Rect
	styles  map[string]string
	before  map[string]string
	after   map[string]string
	hasText bool
	parent  *Node
}

func (n *Node) ID() string        { return n.id }
func (n *Node) Tag() string       { return n.tag }
func (n *Node) Kind() resolve.Kind { return n.kind }
func (n *Node) Classes() []string { return n.classes }
func (n *Node) Rect() raster.Rect { return n.rect }

// Parent returns the containing element, nil at the document root.
func (n *Node) Parent() resolve.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Style returns a computed style captured with the snapshot. Properties
// that were not captured read as absent.
func (n *Node) Style(prop string) (string, error) {
	return n.styles[prop], nil
}

// PseudoStyle reads a property off a ::before/::after layer.
func (n *Node) PseudoStyle(pseudo, prop string) (string, error) {
	switch pseudo {
	case "::before", "before":
		return n.before[prop], nil
	case "::after", "after":
		return n.after[prop], nil
	}
	return "", nil
}

// HasText reports whether the element owns a direct text run.
func (n *Node) HasText() bool { return n.hasText }

// FontSize returns the rendered font size in CSS pixels, false when it
// could not be read.
func (n *Node) FontSize() (float64, bool) {
	raw := strings.TrimSuffix(n.styles["font-size"], "px")
	if raw == "" || raw == n.styles["font-size"] {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Bold reports whether the rendered font weight is bold (>= 600).
func (n *Node) Bold() bool {
	w := n.styles["font-weight"]
	if w == "bold" || w == "bolder" {
		return true
	}
	v, err := strconv.Atoi(w)
	return err == nil && v >= 600
}

// Selector builds a short human-readable locator for reports.
func (n *Node) Selector() string {
	sel := n.tag
	if len(n.classes) > 0 {
		sel += "." + n.classes[0]
	}
	return sel
}

// Location names the nearest landmark ancestor, for grouping instances
// by page region.
func (n *Node) Location() string {
	for cur := n; cur != nil; cur = cur.parent {
		switch cur.tag {
		case "header", "nav", "main", "footer", "aside", "section", "article":
			return cur.tag
		}
	}
	return "body"
}

// classifyKind maps tags and class vocabulary onto pipeline kinds.
func classifyKind(tag string, classes []string) resolve.Kind {
	switch tag {
	case "html", "body":
		return resolve.KindRoot
	case "button", "input", "select", "textarea":
		return resolve.KindButton
	case "p", "span", "h1", "h2", "h3", "h4", "h5", "h6", "li", "td", "th",
		"label", "blockquote", "figcaption", "strong", "em", "b", "i",
		"small", "code", "pre", "dt", "dd":
		return resolve.KindText
	case "a":
		for _, c := range classes {
			lc := strings.ToLower(c)
			if strings.Contains(lc, "button") || strings.Contains(lc, "btn") {
				return resolve.KindButton
			}
		}
		return resolve.KindText
	}
	for _, c := range classes {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "button") || strings.Contains(lc, "btn") {
			return resolve.KindButton
		}
	}
	return resolve.KindGeneric
}

// buildNodes links the flat capture array into parented nodes.
func buildNodes(data []nodeData) ([]*Node, map[string]*Node) {
	nodes := make([]*Node, len(data))
	byID := make(map[string]*Node, len(data))

	for i, d := range data {
		n := &Node{
			id:      d.ID,
			tag:     strings.ToLower(d.Tag),
			classes: d.Classes,
			rect:    raster.Rect{X: d.Rect.X, Y: d.Rect.Y, W: d.Rect.W, H: d.Rect.H},
			styles:  d.Styles,
			before:  d.Before,
			after:   d.After,
			hasText: d.HasText,
		}
		if n.styles == nil {
			n.styles = map[string]string{}
		}
		n.kind = classifyKind(n.tag, n.classes)
		nodes[i] = n
		byID[n.id] = n
	}
	for i, d := range data {
		if d.Parent >= 0 && d.Parent < len(nodes) && d.Parent != i {
			nodes[i].parent = nodes[d.Parent]
		}
	}
	return nodes, byID
}
