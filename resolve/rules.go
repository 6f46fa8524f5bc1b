package resolve

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/hueaudit/colorspace"
)

// backgroundTokens is the fixed vocabulary of class/selector fragments that
// indicate an authored background rule worth trusting.
var backgroundTokens = []string{
	"background", "bg", "banner", "hero", "section", "theme", "surface",
}

// falsePositiveTokens are token families that look background-ish but
// routinely declare transient or decorative paint, not the resting
// background a reader sees.
var falsePositiveTokens = []string{
	"hover", "focus", "active", "transition", "gradient", "overlay", "shadow",
}

// stepRuleScan scans authored style rules for selectors that reference one
// of the element's classes and carry a background-indicating token,
// returning the first non-absent declared background. Stylesheet access
// failures degrade to "no answer".
func (r *Resolver) stepRuleScan(dc Context) *ResolvedColor {
	rules, err := r.tree.StyleRules()
	if err != nil || len(rules) == 0 {
		return nil
	}

	classes := dc.Element.Classes()
	if len(classes) == 0 {
		return nil
	}

	for _, rule := range rules {
		sel := strings.ToLower(rule.Selector)
		if containsAny(sel, falsePositiveTokens) {
			continue
		}
		cls, ok := matchingClass(sel, classes)
		if !ok {
			continue
		}
		if !containsAny(strings.ToLower(cls), backgroundTokens) && !containsAny(sel, backgroundTokens) {
			continue
		}
		if colorspace.Absent(rule.Background) {
			continue
		}
		if c, pok := colorspace.Parse(rule.Background); pok && c.A > 0 {
			return &ResolvedColor{Value: c, Confidence: Verified, Method: "rule-scan",
				Rationale: fmt.Sprintf("authored rule %q declares the background", rule.Selector)}
		}
	}
	return nil
}

// matchingClass returns the first element class the selector references as
// a class selector.
func matchingClass(sel string, classes []string) (string, bool) {
	for _, cl := range classes {
		needle := "." + strings.ToLower(cl)
		idx := strings.Index(sel, needle)
		if idx < 0 {
			continue
		}
		// Reject partial matches like ".bg" inside ".bground-x".
		end := idx + len(needle)
		if end < len(sel) && isSelectorNameByte(sel[end]) {
			continue
		}
		return cl, true
	}
	return "", false
}

func isSelectorNameByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
