// Package audit orchestrates full-site color audits: it drives the
// browser, captures rendered trees, resolves element colors through the
// detection pipeline, groups them perceptually, scores WCAG contrast,
// and emits reports to sinks.
//
// The auditor observes and reports, it does not mutate pages. A failed
// element never aborts a page and a failed page never aborts a run;
// everything that could not be checked is surfaced as a gap.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/hueaudit/catalogue"
	"github.com/hazyhaar/hueaudit/contrast"
	"github.com/hazyhaar/hueaudit/idgen"
	"github.com/hazyhaar/hueaudit/internal/browser"
	"github.com/hazyhaar/hueaudit/internal/config"
	"github.com/hazyhaar/hueaudit/internal/dom"
	"github.com/hazyhaar/hueaudit/internal/sink"
	"github.com/hazyhaar/hueaudit/internal/store"
	"github.com/hazyhaar/hueaudit/kit"
	"github.com/hazyhaar/hueaudit/resolve"
)

// Auditor is the top-level orchestrator. Create one per hueaudit
// instance; it owns the browser and delivers to the configured sinks.
type Auditor struct {
	cfg    *config.Config
	mgr    *browser.Manager
	store  *store.Store
	sinks  *sink.Router
	logger *slog.Logger
}

// New creates an Auditor from configuration. st may be nil to run
// without persistence.
func New(cfg *config.Config, logger *slog.Logger, st *store.Store, sinks ...sink.Sink) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Headful:          cfg.Browser.Stealth == "headful",
		NavTimeout:       cfg.Browser.NavTimeout,
		Logger:           logger,
	})

	return &Auditor{
		cfg:    cfg,
		mgr:    mgr,
		store:  st,
		sinks:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
}

// Start launches the browser.
func (a *Auditor) Start(ctx context.Context) error {
	if _, err := a.mgr.Start(ctx); err != nil {
		return fmt.Errorf("audit: start browser: %w", err)
	}
	return nil
}

// Stop shuts down the sinks and the browser.
func (a *Auditor) Stop() {
	a.sinks.Close()
	a.mgr.Close()
}

// Store exposes the persistence handle for the MCP query tools.
func (a *Auditor) Store() *store.Store { return a.store }

// RunResult is the outcome of one audit run.
type RunResult struct {
	RunID    string
	Summary  sink.Summary
	Analysis catalogue.Analysis
	Entries  []catalogue.Entry
	Findings []*contrast.Finding
}

// Run audits the configured page and, when a crawl depth is set, the
// same-origin pages discovered from it. Page failures are logged and
// skipped; cancellation lets in-flight elements finish and schedules
// nothing new.
func (a *Auditor) Run(ctx context.Context, pageCfg config.PageConfig) (*RunResult, error) {
	runID := idgen.Prefixed("run")
	ctx = kit.WithRunID(ctx, runID)
	started := time.Now()
	log := a.logger.With("run_id", runID, "url", pageCfg.URL)

	run := &store.Run{ID: runID, RootURL: pageCfg.URL, Platform: "generic"}
	if a.store != nil {
		if err := a.store.InsertRun(ctx, run); err != nil {
			return nil, fmt.Errorf("audit: record run: %w", err)
		}
	}

	cat := catalogue.New(a.cfg.Analysis.MergeThreshold)

	type frontierItem struct {
		url   string
		depth int
	}
	queue := []frontierItem{{pageCfg.URL, 0}}
	visited := map[string]bool{}

	var (
		findings []*contrast.Finding
		platform resolve.Platform
		pages    int
	)

	for len(queue) > 0 && pages < pageCfg.MaxPages {
		if ctx.Err() != nil {
			log.Info("audit: run cancelled", "pages_done", pages)
			break
		}
		item := queue[0]
		queue = queue[1:]
		if visited[item.url] {
			continue
		}
		visited[item.url] = true

		discover := item.depth < pageCfg.CrawlDepth
		res, links, err := a.auditURL(ctx, item.url, cat, discover)
		if err != nil {
			log.Warn("audit: page failed", "page", item.url, "error", err)
			continue
		}

		if pages == 0 {
			platform = res.Platform
			run.Platform = platform.String()
		}
		pages++
		findings = append(findings, res.Findings...)

		if a.store != nil {
			page := &store.Page{
				ID:            idgen.Prefixed("page"),
				RunID:         runID,
				URL:           item.url,
				Platform:      res.Platform.String(),
				ElementsCount: res.Elements,
			}
			if err := a.store.InsertPage(ctx, page); err != nil {
				log.Warn("audit: record page failed", "page", item.url, "error", err)
			}
		}

		if err := a.sinks.SendFindings(ctx, sink.FindingsReport{
			RunID:    runID,
			Page:     item.url,
			Findings: res.Findings,
			Gaps:     res.Gaps,
		}); err != nil {
			log.Warn("audit: send findings failed", "page", item.url, "error", err)
		}

		for _, l := range links {
			if !visited[l] {
				queue = append(queue, frontierItem{l, item.depth + 1})
			}
		}
	}

	failures := 0
	for _, f := range findings {
		if f.Failing() {
			failures++
		}
	}

	analysis := cat.Analyze(failures)
	entries := cat.Entries()

	run.Status = "completed"
	if pages == 0 {
		run.Status = "failed"
	}
	run.Score = &analysis.Score
	run.PagesCount = pages
	run.ColorsCount = len(entries)
	run.FindingsCount = len(findings)

	// Persistence and emission run even on cancellation: partial results
	// from finished pages are valid results.
	if a.store != nil {
		if err := a.store.SaveCatalogue(ctx, runID, entries); err != nil {
			log.Warn("audit: save catalogue failed", "error", err)
		}
		if err := a.store.SaveFindings(ctx, runID, findings); err != nil {
			log.Warn("audit: save findings failed", "error", err)
		}
		if err := a.store.CompleteRun(ctx, run); err != nil {
			log.Warn("audit: complete run failed", "error", err)
		}
	}

	if err := a.sinks.SendColors(ctx, sink.ColorReport{
		RunID:    runID,
		RootURL:  pageCfg.URL,
		Entries:  entries,
		Analysis: analysis,
	}); err != nil {
		log.Warn("audit: send colors failed", "error", err)
	}

	summary := sink.Summary{
		RunID:         runID,
		RootURL:       pageCfg.URL,
		Platform:      platform.String(),
		Pages:         pages,
		Colors:        len(entries),
		Findings:      len(findings),
		Failures:      failures,
		Score:         analysis.Score,
		DurationMilli: time.Since(started).Milliseconds(),
	}
	if err := a.sinks.SendSummary(ctx, summary); err != nil {
		log.Warn("audit: send summary failed", "error", err)
	}

	log.Info("audit: run complete",
		"pages", pages, "colors", len(entries),
		"findings", len(findings), "failures", failures,
		"score", analysis.Score)

	if pages == 0 {
		return nil, fmt.Errorf("audit: no page could be audited")
	}
	return &RunResult{
		RunID:    runID,
		Summary:  summary,
		Analysis: analysis,
		Entries:  entries,
		Findings: findings,
	}, nil
}

// auditURL opens one page, captures its tree and viewport, and audits
// every visible element. Returned links are same-origin discoveries for
// the crawl frontier.
func (a *Auditor) auditURL(ctx context.Context, pageURL string, cat *catalogue.Catalogue, discover bool) (*PageResult, []string, error) {
	tab, err := browser.OpenTab(ctx, a.mgr, pageURL)
	if err != nil {
		return nil, nil, err
	}
	defer tab.Close()

	tree, err := dom.Capture(ctx, tab.Page, a.cfg.Analysis.MaxElements, a.logger)
	if err != nil {
		return nil, nil, err
	}

	snap, err := tab.CaptureViewport(ctx, a.cfg.Browser.ScreenshotWait)
	if err != nil {
		// Sampling-dependent steps degrade; the DOM-side pipeline still runs.
		a.logger.Warn("audit: screenshot unavailable", "page", pageURL, "error", err)
		snap = nil
	}

	targets := make([]Target, 0, len(tree.Elements()))
	for _, n := range tree.Elements() {
		targets = append(targets, n)
	}

	res := a.auditPage(ctx, pageURL, tree, tree.Platform(), tree.Pointer(), targets, snap, cat)

	var links []string
	if discover {
		html, err := tab.HTML(ctx)
		if err != nil {
			a.logger.Warn("audit: link discovery failed", "page", pageURL, "error", err)
		} else {
			links = DiscoverLinks(html, pageURL)
		}
	}
	return res, links, nil
}
