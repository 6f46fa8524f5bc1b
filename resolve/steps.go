package resolve

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/hueaudit/colorspace"
	"github.com/hazyhaar/hueaudit/raster"
)

// stepDirectStyle accepts the element's own pre-read style value when it is
// present and not an absence keyword.
func (r *Resolver) stepDirectStyle(dc Context) *ResolvedColor {
	if colorspace.Absent(dc.OwnStyle) {
		return nil
	}
	c, ok := colorspace.Parse(dc.OwnStyle)
	if !ok || c.A == 0 {
		return nil
	}
	return &ResolvedColor{Value: c, Confidence: Definitive, Method: "direct-style",
		Rationale: "computed background read off the element"}
}

// stepSectionTheme locates the nearest section-like container and reads its
// themed background. A page can stack many such containers vertically, so a
// container found at the last known interaction coordinate beats one found
// by naive ancestor walking: the enclosing section at the point of interest
// is the only correct one.
func (r *Resolver) stepSectionTheme(dc Context) *ResolvedColor {
	tokens := sectionTokens[r.platform]

	if dc.Pointer != nil {
		if at := r.tree.HitTest(dc.Pointer.X, dc.Pointer.Y); at != nil {
			if c := r.containerBackground(at, tokens, "interaction point"); c != nil {
				return c
			}
		}
	}
	return r.containerBackground(dc.Element, tokens, "ancestor chain")
}

// containerBackground walks up from el to the nearest container matching
// the platform's section tokens and reads its background, checking the
// ::before layer when the container itself declares none.
func (r *Resolver) containerBackground(el Element, tokens []string, how string) *ResolvedColor {
	for node := el; node != nil; node = node.Parent() {
		if !hasAnyToken(node.Classes(), tokens) {
			continue
		}
		raw, err := node.Style("background-color")
		if err != nil || colorspace.Absent(raw) {
			raw, err = node.PseudoStyle("::before", "background-color")
			if err != nil || colorspace.Absent(raw) {
				continue
			}
		}
		if c, ok := colorspace.Parse(raw); ok && c.A > 0 {
			return &ResolvedColor{Value: c, Confidence: Verified, Method: "section-theme",
				Rationale: fmt.Sprintf("themed %s container found via %s", node.Tag(), how)}
		}
	}
	return nil
}

func hasAnyToken(classes, tokens []string) bool {
	for _, cl := range classes {
		lc := strings.ToLower(cl)
		for _, tok := range tokens {
			if strings.Contains(lc, tok) {
				return true
			}
		}
	}
	return false
}

// stepPseudoLayer checks ::before/::after layers: some authoring systems
// render the visible background there rather than on the element itself.
// Skipped for plain text runs, where decorative pseudo-layers are routinely
// black/white ornament rather than the text's real background.
func (r *Resolver) stepPseudoLayer(dc Context) *ResolvedColor {
	if dc.Element.Kind() == KindText {
		return nil
	}
	for _, pseudo := range []string{"::before", "::after"} {
		raw, err := dc.Element.PseudoStyle(pseudo, "background-color")
		if err != nil || colorspace.Absent(raw) {
			continue
		}
		if c, ok := colorspace.Parse(raw); ok && c.A > 0 {
			return &ResolvedColor{Value: c, Confidence: Verified, Method: "pseudo-layer",
				Rationale: fmt.Sprintf("visible background painted on the %s layer", pseudo)}
		}
	}
	return nil
}

// stepAncestorWalk accepts the first element up the containment chain with
// a non-absent background. The document root is special-cased: a default
// white root frequently masks the real section background that an earlier
// step should have found, so it reads as "not found" rather than white.
func (r *Resolver) stepAncestorWalk(dc Context) *ResolvedColor {
	for el := dc.Element; el != nil; el = el.Parent() {
		raw, err := el.Style("background-color")
		if err != nil || colorspace.Absent(raw) {
			continue
		}
		c, ok := colorspace.Parse(raw)
		if !ok || c.A == 0 {
			continue
		}
		if el.Kind() == KindRoot && c == colorspace.White {
			return nil
		}
		conf := Verified
		method := "ancestor-walk"
		rationale := fmt.Sprintf("nearest ancestor (%s) with an explicit background", el.Tag())
		if el.ID() == dc.Element.ID() {
			conf, method = Definitive, "direct-style"
			rationale = "computed background read off the element"
		}
		return &ResolvedColor{Value: c, Confidence: conf, Method: method, Rationale: rationale}
	}
	return nil
}

// verifyWithPixels cross-checks a DOM-derived answer against edge/corner
// samples. It runs for button-like elements always, and for anyone whose
// answer is #000000/#FFFFFF — both common as real colors and common as
// false answers from decorative overlays. The rule is asymmetric: the
// sample overrides only when it disagrees AND its internal agreement is
// high, so a single antialiased edge can never flip a correct DOM answer.
func (r *Resolver) verifyWithPixels(dc Context, result *ResolvedColor) *ResolvedColor {
	if dc.Snapshot == nil || dc.Element == nil {
		return result
	}
	suspicious := result != nil &&
		(result.Value == colorspace.White || result.Value == colorspace.Black)
	button := dc.Element.Kind() == KindButton
	if !button && !suspicious {
		return result
	}

	// A sample computed over the wrong element is worse than none: bail
	// when something else occupies the rectangle's center.
	rect := dc.Element.Rect()
	cx, cy := rect.Center()
	hit := r.tree.HitTest(cx, cy)
	if hit == nil || hit.ID() != dc.Element.ID() {
		return result
	}

	sample, ok := dc.Snapshot.SampleRect(rect, raster.Options{
		Grid:               r.cfg.HighStakesGrid,
		Mode:               raster.ModeEdges,
		MinInBounds:        r.cfg.MinInBounds,
		AgreementThreshold: r.cfg.MergeThreshold,
	})
	if !ok {
		return result
	}

	if result == nil {
		if button && sample.Agreement >= r.cfg.PixelAgreement {
			return &ResolvedColor{Value: sample.Color, Confidence: Verified, Method: "pixel-sample",
				Rationale: fmt.Sprintf("edge sample with %.0f%% agreement, no DOM-derived answer", sample.Agreement*100)}
		}
		return nil
	}

	disagrees := colorspace.RedmeanDistance(sample.Color, result.Value) >= r.cfg.MergeThreshold
	if disagrees && sample.Agreement >= r.cfg.PixelAgreement {
		return &ResolvedColor{Value: sample.Color, Confidence: Verified, Method: "pixel-verify",
			Rationale: fmt.Sprintf("edge sample (%.0f%% agreement) overrode DOM answer %s",
				sample.Agreement*100, result.Value.Hex())}
	}
	return result
}
