// Package sink defines output backends for audit results.
package sink

import (
	"context"

	"github.com/hazyhaar/hueaudit/catalogue"
	"github.com/hazyhaar/hueaudit/contrast"
)

// ColorReport is the palette of one run: the grouped catalogue plus its
// consistency analysis.
type ColorReport struct {
	RunID    string             `json:"run_id"`
	RootURL  string             `json:"root_url"`
	Entries  []catalogue.Entry  `json:"entries"`
	Analysis catalogue.Analysis `json:"analysis"`
}

// FindingsReport carries the contrast findings of one audited page.
type FindingsReport struct {
	RunID    string              `json:"run_id"`
	Page     string              `json:"page"`
	Findings []*contrast.Finding `json:"findings"`
	// Gaps lists elements skipped with the reason; they are surfaced so a
	// reader knows what was not checked, never silently dropped.
	Gaps []string `json:"gaps,omitempty"`
}

// Summary closes out a run.
type Summary struct {
	RunID         string  `json:"run_id"`
	RootURL       string  `json:"root_url"`
	Platform      string  `json:"platform"`
	Pages         int     `json:"pages"`
	Colors        int     `json:"colors"`
	Findings      int     `json:"findings"`
	Failures      int     `json:"failures"`
	Score         float64 `json:"score"`
	DurationMilli int64   `json:"duration_ms"`
}

// Sink is the output interface. Implementations deliver audit results to
// different backends (stdout, webhook).
type Sink interface {
	SendColors(ctx context.Context, report ColorReport) error
	SendFindings(ctx context.Context, report FindingsReport) error
	SendSummary(ctx context.Context, summary Summary) error
	Close() error
}
