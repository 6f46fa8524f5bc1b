package dom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/hueaudit/resolve"
)

// Tree is a captured element tree plus live hooks into the page.
type Tree struct {
	page     *rod.Page
	platform resolve.Platform
	root     *Node
	nodes    []*Node
	byID     map[string]*Node
	pointer  *resolve.Point
	log      *slog.Logger
}

// captureScript walks visible elements breadth-first and serialises the
// computed properties the pipeline needs. Elements are tagged with a
// data attribute so elementFromPoint results can be mapped back.
const captureScript = `(max) => {
	const props = ['background-color', 'color', 'background-image',
		'font-size', 'font-weight', 'opacity'];
	const out = [];
	const indexOf = new Map();
	const queue = [document.documentElement];

	while (queue.length > 0 && out.length < max) {
		const el = queue.shift();
		const cs = getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		const isRoot = el === document.documentElement || el === document.body;

		if (!isRoot) {
			if (cs.display === 'none' || cs.visibility === 'hidden') continue;
			if (rect.width <= 0 || rect.height <= 0) continue;
		}

		const i = out.length;
		indexOf.set(el, i);
		el.setAttribute('data-hueaudit', 'n' + i);

		const styles = {};
		for (const p of props) styles[p] = cs.getPropertyValue(p);

		const pseudo = (which) => {
			const pcs = getComputedStyle(el, which);
			if (!pcs || pcs.content === 'none' || pcs.content === '') return {};
			return {
				'background-color': pcs.getPropertyValue('background-color'),
				'background-image': pcs.getPropertyValue('background-image')
			};
		};

		out.push({
			id: 'n' + i,
			tag: el.tagName.toLowerCase(),
			classes: Array.from(el.classList),
			parent: el.parentElement ? (indexOf.has(el.parentElement) ? indexOf.get(el.parentElement) : -1) : -1,
			rect: {x: rect.x, y: rect.y, w: rect.width, h: rect.height},
			styles: styles,
			before: pseudo('::before'),
			after: pseudo('::after'),
			hasText: Array.from(el.childNodes).some(
				n => n.nodeType === 3 && n.textContent.trim().length > 0)
		});

		for (const child of el.children) queue.push(child);
	}
	return JSON.stringify(out);
}`

// pointerScript installs a listener recording the last interaction
// coordinate. Installed once per page, read at capture time.
const pointerScript = `() => {
	if (window.__hueauditPointer === undefined) {
		window.__hueauditPointer = null;
		const record = (e) => { window.__hueauditPointer = {x: e.clientX, y: e.clientY}; };
		window.addEventListener('pointerdown', record, {capture: true, passive: true});
		window.addEventListener('pointermove', record, {capture: true, passive: true});
	}
	return JSON.stringify(window.__hueauditPointer);
}`

// rulesScript enumerates authored rules that declare a background.
// Cross-origin sheets throw on cssRules access and are skipped sheet by
// sheet; a page whose every sheet is restricted yields an empty list.
const rulesScript = `() => {
	const out = [];
	for (const sheet of document.styleSheets) {
		let rules;
		try { rules = sheet.cssRules; } catch (e) { continue; }
		if (!rules) continue;
		for (const rule of rules) {
			if (!rule.selectorText || !rule.style) continue;
			const bg = rule.style.getPropertyValue('background-color') ||
				rule.style.getPropertyValue('background');
			if (bg) out.push({selector: rule.selectorText, background: bg});
		}
	}
	return JSON.stringify(out);
}`

// Capture snapshots the page's visible elements into a Tree. maxElements
// bounds the walk on pathological pages.
func Capture(ctx context.Context, page *rod.Page, maxElements int, log *slog.Logger) (*Tree, error) {
	if log == nil {
		log = slog.Default()
	}
	if maxElements <= 0 {
		maxElements = 2000
	}

	p := page.Context(ctx)

	res, err := p.Eval(captureScript, maxElements)
	if err != nil {
		return nil, fmt.Errorf("dom: capture: %w", err)
	}

	var data []nodeData
	if err := json.Unmarshal([]byte(res.Value.Str()), &data); err != nil {
		return nil, fmt.Errorf("dom: decode capture: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("dom: capture produced no elements")
	}

	nodes, byID := buildNodes(data)

	t := &Tree{
		page:  page,
		root:  nodes[0],
		nodes: nodes,
		byID:  byID,
		log:   log,
	}
	t.platform = classifyPlatform(ctx, page, log)
	t.pointer = readPointer(ctx, page)

	log.Debug("dom: captured", "elements", len(nodes), "platform", t.platform)
	return t, nil
}

// Root returns the document root element.
func (t *Tree) Root() resolve.Element { return t.root }

// Platform returns the classification made at capture time.
func (t *Tree) Platform() resolve.Platform { return t.platform }

// Pointer returns the last known interaction coordinate, nil when the
// page saw none.
func (t *Tree) Pointer() *resolve.Point { return t.pointer }

// Elements returns every captured node, document order, root first.
func (t *Tree) Elements() []*Node { return t.nodes }

// HitTest resolves the topmost captured element at a viewport point.
// Any evaluation failure degrades to nil, never to an abort.
func (t *Tree) HitTest(x, y float64) resolve.Element {
	if t.page == nil {
		return nil
	}
	res, err := t.page.Eval(`(x, y) => {
		const el = document.elementFromPoint(x, y);
		if (!el) return '';
		const tagged = el.closest('[data-hueaudit]');
		return tagged ? tagged.getAttribute('data-hueaudit') : '';
	}`, x, y)
	if err != nil {
		t.log.Debug("dom: hit test failed", "error", err)
		return nil
	}
	n, ok := t.byID[res.Value.Str()]
	if !ok {
		return nil
	}
	return n
}

// StyleRules enumerates authored rules declaring a background.
func (t *Tree) StyleRules() ([]resolve.StyleRule, error) {
	if t.page == nil {
		return nil, nil
	}
	res, err := t.page.Eval(rulesScript)
	if err != nil {
		return nil, fmt.Errorf("dom: style rules: %w", err)
	}
	var rules []resolve.StyleRule
	if err := json.Unmarshal([]byte(res.Value.Str()), &rules); err != nil {
		return nil, fmt.Errorf("dom: decode style rules: %w", err)
	}
	return rules, nil
}

// HasComplexBackground reports a gradient or image background anywhere in
// the ancestor chain up to maxDepth levels, including the element itself.
func (t *Tree) HasComplexBackground(el resolve.Element, maxDepth int) bool {
	depth := 0
	for cur := el; cur != nil && depth <= maxDepth; cur = cur.Parent() {
		raw, err := cur.Style("background-image")
		if err == nil && raw != "" && raw != "none" {
			return true
		}
		depth++
	}
	return false
}

func readPointer(ctx context.Context, page *rod.Page) *resolve.Point {
	res, err := page.Context(ctx).Eval(pointerScript)
	if err != nil {
		return nil
	}
	var p *resolve.Point
	if err := json.Unmarshal([]byte(res.Value.Str()), &p); err != nil {
		return nil
	}
	return p
}
