package resolve

import "strings"

// Platform describes which authoring-system conventions the current page
// follows. It is an external signal: the classifier lives with the tree
// accessor, the resolver only consumes the tag to pick a step chain.
type Platform int

const (
	PlatformGeneric Platform = iota
	PlatformSquarespace71
	PlatformSquarespace70
	PlatformWordPress
)

func (p Platform) String() string {
	switch p {
	case PlatformSquarespace71:
		return "squarespace-7.1"
	case PlatformSquarespace70:
		return "squarespace-7.0"
	case PlatformWordPress:
		return "wordpress"
	default:
		return "generic"
	}
}

// ParsePlatform maps a classifier tag to a Platform. Unknown tags fall back
// to the generic chain, which makes no platform assumptions.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "squarespace-7.1", "squarespace71", "sqs71":
		return PlatformSquarespace71
	case "squarespace-7.0", "squarespace70", "sqs70":
		return PlatformSquarespace70
	case "wordpress", "wp":
		return PlatformWordPress
	default:
		return PlatformGeneric
	}
}

// step is one detection attempt. Returning nil means "no answer here, try
// the next step" — including on access failures, which must never abort the
// pipeline.
type step struct {
	name string
	fn   func(*Resolver, Context) *ResolvedColor
}

// chainFor returns the ordered step chain for a platform. The per-platform
// variation is data, not subclasses: every chain is built from the same six
// steps, reordered or omitted, and every chain terminates in Indeterminate
// at the router level — never in an assumed default color.
func chainFor(p Platform) []step {
	direct := step{"direct-style", (*Resolver).stepDirectStyle}
	section := step{"section-theme", (*Resolver).stepSectionTheme}
	rules := step{"rule-scan", (*Resolver).stepRuleScan}
	pseudo := step{"pseudo-layer", (*Resolver).stepPseudoLayer}
	ancestor := step{"ancestor-walk", (*Resolver).stepAncestorWalk}

	switch p {
	case PlatformSquarespace71:
		// 7.1 paints almost everything through section themes; check those
		// before authored rules.
		return []step{direct, section, rules, pseudo, ancestor}
	case PlatformSquarespace70:
		// 7.0 index pages stack collection sections; no pseudo-layer
		// convention worth checking.
		return []step{direct, section, rules, ancestor}
	case PlatformWordPress:
		// Page builders declare backgrounds in authored rules more often
		// than on wrapper nodes.
		return []step{direct, rules, section, pseudo, ancestor}
	default:
		return []step{direct, rules, pseudo, ancestor}
	}
}

// sectionTokens identifies the section-like container nodes each authoring
// system wraps content in.
var sectionTokens = map[Platform][]string{
	PlatformSquarespace71: {"page-section", "section-background", "content-wrapper"},
	PlatformSquarespace70: {"index-section", "content-collection", "page-banner"},
	PlatformWordPress:     {"wp-block-group", "wp-block-cover", "elementor-section", "wp-site-blocks"},
	PlatformGeneric:       {"section", "hero", "banner"},
}
