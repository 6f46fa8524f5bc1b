package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/hueaudit/internal/config"
	"github.com/hazyhaar/hueaudit/kit"
)

// RegisterMCP registers hueaudit tools on an MCP server.
func (a *Auditor) RegisterMCP(srv *mcp.Server) {
	a.registerAuditTool(srv)
	a.registerColorsTool(srv)
	a.registerFindingsTool(srv)
	a.registerSummaryTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// resolveRunID maps an optional run_id argument to a concrete run,
// defaulting to the latest.
func (a *Auditor) resolveRunID(ctx context.Context, runID string) (string, error) {
	if a.store == nil {
		return "", fmt.Errorf("no store configured")
	}
	if runID != "" {
		return runID, nil
	}
	run, err := a.store.LatestRun(ctx)
	if err != nil {
		return "", err
	}
	if run == nil {
		return "", fmt.Errorf("no runs recorded yet")
	}
	return run.ID, nil
}

// --- audit ---

type auditRequest struct {
	URL        string `json:"url"`
	CrawlDepth int    `json:"crawl_depth,omitempty"`
	MaxPages   int    `json:"max_pages,omitempty"`
}

func (a *Auditor) registerAuditTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "hueaudit_audit",
		Description: "Audit a page's rendered colors and WCAG contrast. Optionally crawls same-origin links. Returns the run summary and consistency analysis.",
		InputSchema: inputSchema(map[string]any{
			"url":         map[string]any{"type": "string", "description": "Page URL to audit"},
			"crawl_depth": map[string]any{"type": "integer", "description": "Follow same-origin links this many levels deep (default 0)"},
			"max_pages":   map[string]any{"type": "integer", "description": "Upper bound on audited pages (default 20)"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*auditRequest)
		pageCfg := config.PageConfig{
			URL:        r.URL,
			CrawlDepth: r.CrawlDepth,
			MaxPages:   r.MaxPages,
		}
		if pageCfg.MaxPages <= 0 {
			pageCfg.MaxPages = 20
		}
		res, err := a.Run(ctx, pageCfg)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"summary":  res.Summary,
			"analysis": res.Analysis,
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r auditRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- colors ---

type colorsRequest struct {
	RunID string `json:"run_id,omitempty"`
}

func (a *Auditor) registerColorsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "hueaudit_colors",
		Description: "List the fuzzy-grouped color catalogue of a run: canonical hex, usage count, merged variants. Defaults to the latest run.",
		InputSchema: inputSchema(map[string]any{
			"run_id": map[string]any{"type": "string", "description": "Run to inspect (default: latest)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*colorsRequest)
		runID, err := a.resolveRunID(ctx, r.RunID)
		if err != nil {
			return nil, err
		}
		entries, err := a.store.ListEntries(ctx, runID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"run_id": runID, "entries": entries}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r colorsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- findings ---

type findingsRequest struct {
	RunID       string `json:"run_id,omitempty"`
	FailingOnly bool   `json:"failing_only,omitempty"`
}

func (a *Auditor) registerFindingsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "hueaudit_findings",
		Description: "List WCAG contrast findings of a run, lowest ratio first. Defaults to the latest run.",
		InputSchema: inputSchema(map[string]any{
			"run_id":       map[string]any{"type": "string", "description": "Run to inspect (default: latest)"},
			"failing_only": map[string]any{"type": "boolean", "description": "Only definite AA failures"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*findingsRequest)
		runID, err := a.resolveRunID(ctx, r.RunID)
		if err != nil {
			return nil, err
		}
		findings, err := a.store.ListFindings(ctx, runID, r.FailingOnly)
		if err != nil {
			return nil, err
		}
		return map[string]any{"run_id": runID, "findings": findings}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r findingsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- summary ---

type summaryRequest struct {
	RunID string `json:"run_id,omitempty"`
}

func (a *Auditor) registerSummaryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "hueaudit_summary",
		Description: "Return the stored summary of a run: status, pages, color count, findings, score. Defaults to the latest run.",
		InputSchema: inputSchema(map[string]any{
			"run_id": map[string]any{"type": "string", "description": "Run to inspect (default: latest)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*summaryRequest)
		runID, err := a.resolveRunID(ctx, r.RunID)
		if err != nil {
			return nil, err
		}
		run, err := a.store.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		pages, err := a.store.ListPages(ctx, runID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"run": run, "pages": pages}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r summaryRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
