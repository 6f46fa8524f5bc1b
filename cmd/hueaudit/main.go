// Command hueaudit audits rendered web pages for color-consistency and
// WCAG contrast defects.
//
// Usage:
//
//	hueaudit -config hueaudit.yaml        # audit pages from YAML config
//	hueaudit -url https://example.com     # quick single-page audit (stdout)
//	hueaudit -url https://example.com -crawl 2
//	hueaudit -mcp                          # serve audit tools over stdio MCP
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/hueaudit/audit"
	"github.com/hazyhaar/hueaudit/internal/config"
	"github.com/hazyhaar/hueaudit/internal/sink"
	"github.com/hazyhaar/hueaudit/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to hueaudit.yaml config file")
	singleURL := flag.String("url", "", "audit a single URL (stdout sink)")
	crawlDepth := flag.Int("crawl", 0, "with -url: follow same-origin links this many levels deep")
	mcpMode := flag.Bool("mcp", false, "serve audit tools over stdio MCP")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *crawlDepth, *mcpMode); err != nil {
		logger.Error("hueaudit: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL string, crawlDepth int, mcpMode bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if singleURL != "" {
		cfg.Pages = []config.PageConfig{{
			URL:        singleURL,
			CrawlDepth: crawlDepth,
		}}
		cfg.ApplyDefaults()
	}

	if mcpMode {
		return runMCP(ctx, logger, cfg)
	}
	if len(cfg.Pages) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hueaudit -config <file> | -url <url> [-crawl <depth>] | -mcp")
		os.Exit(1)
	}
	return runAudit(ctx, logger, cfg)
}

func runAudit(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	a, err := newAuditor(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.Stop()

	var firstErr error
	for _, page := range cfg.Pages {
		if ctx.Err() != nil {
			break
		}
		if _, err := a.Run(ctx, page); err != nil {
			logger.Error("hueaudit: run failed", "url", page.URL, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func runMCP(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	a, err := newAuditor(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.Stop()

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "hueaudit",
		Version: "1.0.0",
	}, nil)
	a.RegisterMCP(srv)

	logger.Info("hueaudit: serving MCP over stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func newAuditor(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*audit.Auditor, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var sinks []sink.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, sink.NewStdout(nil))
		case "webhook":
			sinks = append(sinks, sink.NewWebhook(sc.URL,
				sink.WithWebhookTimeout(sc.Timeout),
				sink.WithWebhookLogger(logger)))
		default:
			logger.Warn("hueaudit: unknown sink type", "type", sc.Type)
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, sink.NewStdout(nil))
	}

	a := audit.New(cfg, logger, st, sinks...)
	if err := a.Start(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return a, nil
}
