package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/hueaudit/raster"
)

// Tab wraps a Rod page with audit-specific setup: stealth, resource
// blocking, and viewport capture.
type Tab struct {
	Page    *rod.Page
	PageURL string
	manager *Manager
}

// OpenTab creates a stealth tab and navigates to the URL. Navigation is
// bounded by the manager's NavTimeout; a load-event timeout after a
// successful navigation is tolerated, slow pages still render enough to
// audit.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{
		Page:    page,
		PageURL: pageURL,
		manager: mgr,
	}, nil
}

// CaptureViewport screenshots the current viewport and decodes it into a
// sampling snapshot, with the device pixel ratio needed to map CSS
// coordinates onto the image. Capture runs under the given timeout; on
// failure the audit proceeds without pixel verification, so callers treat
// a nil snapshot as "sampling unavailable", not as an abort.
func (t *Tab) CaptureViewport(ctx context.Context, timeout time.Duration) (*raster.Snapshot, error) {
	capCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := t.Page.Context(capCtx)

	dprRes, err := page.Eval(`() => window.devicePixelRatio`)
	if err != nil {
		return nil, fmt.Errorf("browser: device pixel ratio: %w", err)
	}
	dpr := dprRes.Value.Num()
	if dpr <= 0 {
		dpr = 1
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}

	snap, err := raster.Decode(data, dpr)
	if err != nil {
		return nil, fmt.Errorf("browser: decode screenshot: %w", err)
	}
	return snap, nil
}

// HTML serialises the complete document as outer HTML, used by the
// crawler's link discovery.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
