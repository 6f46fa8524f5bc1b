package audit

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/hueaudit/catalogue"
	"github.com/hazyhaar/hueaudit/contrast"
	"github.com/hazyhaar/hueaudit/raster"
	"github.com/hazyhaar/hueaudit/resolve"
)

// complexScanDepth bounds the ancestor walk when deciding whether a text
// element sits on a gradient or image background.
const complexScanDepth = 4

// Target is one auditable element: the pipeline's element handle plus
// the report-side accessors the captured tree provides.
type Target interface {
	resolve.Element
	HasText() bool
	FontSize() (float64, bool)
	Bold() bool
	Selector() string
	Location() string
}

// PageResult is the outcome of auditing one page.
type PageResult struct {
	URL      string
	Platform resolve.Platform
	Elements int
	Findings []*contrast.Finding
	Gaps     []string
}

// auditPage fans detection out across the page's elements. The snapshot
// and tree are read-only during the fan-out; the catalogue serialises
// its own writes, findings are collected under a local mutex. After
// cancellation in-flight elements finish and no new ones are scheduled.
func (a *Auditor) auditPage(ctx context.Context, pageURL string, tree resolve.Tree, platform resolve.Platform, pointer *resolve.Point, targets []Target, snap *raster.Snapshot, cat *catalogue.Catalogue) *PageResult {
	resolver := resolve.New(tree, platform, resolve.Config{
		MergeThreshold: a.cfg.Analysis.MergeThreshold,
		PixelAgreement: a.cfg.Analysis.PixelAgreement,
		Grid:           a.cfg.Analysis.Grid,
		HighStakesGrid: a.cfg.Analysis.HighStakesGrid,
		MinInBounds:    a.cfg.Analysis.MinInBounds,
		Logger:         a.logger,
	})

	res := &PageResult{URL: pageURL, Platform: platform}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Analysis.Parallelism)

	for _, el := range targets {
		if el.Kind() == resolve.KindRoot || el.Rect().Empty() {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		res.Elements++
		el := el
		g.Go(func() error {
			a.auditElement(gctx, pageURL, resolver, tree, pointer, el, snap, cat, &mu, res)
			return nil
		})
	}
	g.Wait()
	return res
}

func (a *Auditor) auditElement(ctx context.Context, pageURL string, resolver *resolve.Resolver, tree resolve.Tree, pointer *resolve.Point, el Target, snap *raster.Snapshot, cat *catalogue.Catalogue, mu *sync.Mutex, res *PageResult) {
	ownBG, _ := el.Style("background-color")
	bg := resolver.ResolveBackground(ctx, resolve.Context{
		Element:  el,
		Snapshot: snap,
		Pointer:  pointer,
		OwnStyle: ownBG,
	})

	isText := el.Kind() == resolve.KindText || el.HasText()

	var fg resolve.ResolvedColor
	if isText {
		ownFG, _ := el.Style("color")
		fg = resolver.ResolveForeground(ctx, resolve.Context{
			Element:  el,
			OwnStyle: ownFG,
		})
	}

	if bg.Resolved() {
		inst := catalogue.Instance{
			Page:     pageURL,
			Property: catalogue.PropBackground,
			Location: el.Location(),
			Selector: el.Selector(),
		}
		if isText && fg.Resolved() {
			inst.PairedHex = fg.Value.Hex()
		}
		cat.Record(bg.Value.Hex(), inst)
	}

	if !isText {
		return
	}

	if fg.Resolved() {
		inst := catalogue.Instance{
			Page:     pageURL,
			Property: catalogue.PropText,
			Location: el.Location(),
			Selector: el.Selector(),
		}
		if bg.Resolved() {
			inst.PairedHex = bg.Value.Hex()
		}
		cat.Record(fg.Value.Hex(), inst)
	}

	font := contrast.FontInfo{}
	if size, ok := el.FontSize(); ok {
		font = contrast.FontInfo{SizePx: size, Bold: el.Bold(), Known: true}
	}
	complex := tree.HasComplexBackground(el, complexScanDepth)

	finding, gap := contrast.Evaluate(fg, bg, font, complex)

	mu.Lock()
	defer mu.Unlock()
	if finding != nil {
		finding.Page = pageURL
		finding.Selector = el.Selector()
		res.Findings = append(res.Findings, finding)
	} else if gap != "" {
		res.Gaps = append(res.Gaps, el.Selector()+": "+gap)
	}
}
