package dom

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/hueaudit/resolve"
)

// platformScript inspects page markers without depending on any single
// one: Squarespace exposes its template version in a global context
// object, with the generator meta and class conventions as fallbacks;
// WordPress leaves wp- fingerprints in markup and asset paths.
const platformScript = `() => {
	const ctx = window.Static && window.Static.SQUARESPACE_CONTEXT;
	if (ctx) {
		const v = String(ctx.templateVersion || '');
		if (v.startsWith('7.1')) return 'squarespace71';
		if (v.startsWith('7')) return 'squarespace70';
		return 'squarespace71';
	}

	const gen = document.querySelector('meta[name="generator"]');
	const content = gen ? (gen.getAttribute('content') || '').toLowerCase() : '';
	if (content.includes('squarespace')) {
		if (document.querySelector('.page-section, [data-section-theme]')) return 'squarespace71';
		if (document.querySelector('.index-section, #siteWrapper .content-collection')) return 'squarespace70';
		return 'squarespace71';
	}
	if (content.includes('wordpress')) return 'wordpress';

	if (document.querySelector('link[href*="wp-content"], script[src*="wp-includes"], .wp-site-blocks')) {
		return 'wordpress';
	}
	if (document.querySelector('.page-section[data-section-id]')) return 'squarespace71';
	return 'generic';
}`

func classifyPlatform(ctx context.Context, page *rod.Page, log *slog.Logger) resolve.Platform {
	res, err := page.Context(ctx).Eval(platformScript)
	if err != nil {
		log.Debug("dom: platform classification failed", "error", err)
		return resolve.PlatformGeneric
	}
	return resolve.ParsePlatform(res.Value.Str())
}
