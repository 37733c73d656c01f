package main

import (
	"context"
	"fmt"
	"image/color"
	"net/http"
	"os"
	"path/filepath"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/psyhelp/testdesk/internal/api"
	"github.com/psyhelp/testdesk/internal/journal"
	"github.com/psyhelp/testdesk/internal/logger"
	"github.com/psyhelp/testdesk/internal/metrics"
	"github.com/psyhelp/testdesk/internal/workflow"
)

// Theme colors (catppuccin mocha)
var (
	colorPrimary = lipgloss.Color("#cba6f7") // Mauve
	colorMuted   = lipgloss.Color("#a6adc8") // Subtext0
	colorBase    = lipgloss.Color("#cdd6f4") // Text
	colorSuccess = lipgloss.Color("#a6e3a1") // Green
	colorWarning = lipgloss.Color("#f9e2af") // Yellow
	colorError   = lipgloss.Color("#f38ba8") // Red
	colorBorder  = lipgloss.Color("#585b70") // Surface2
)

var titleStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

// app is the per-command wiring of client, journal, metrics and page.
type app struct {
	client  *api.HTTPClient
	metrics *metrics.Metrics
	journal *journal.Journal
	page    *workflow.Page
}

type appOptions struct {
	journal  bool
	notifier workflow.Notifier
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	m := metrics.New()
	client := api.NewHTTPClient(cfg.ServerURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		api.WithRateLimit(float64(cfg.RateLimit)),
		api.WithObserver(m),
	)

	a := &app{client: client, metrics: m}

	pageOpts := []workflow.PageOption{
		workflow.WithPendingObserver(m.SetPending),
	}
	if opts.notifier != nil {
		pageOpts = append(pageOpts, workflow.WithNotifier(opts.notifier))
	}

	if opts.journal && cfg.Journal {
		j, err := journal.Open(ctx, cfg.DataDir)
		if err != nil {
			// another testdesk process may hold the store
			logger.Warn("Journal unavailable, continuing without it: %v", err)
		} else {
			a.journal = j
			pageOpts = append(pageOpts, workflow.WithRecorder(j))
		}
	}

	a.page = workflow.NewPage(client, cfg.UserID, pageOpts...)
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warn("Failed to close journal: %v", err)
		}
	}
}

// styledTable renders rows with the shared theme. statusCol, when >= 0,
// colors cells via status.
func styledTable(headers []string, rows [][]string, statusCol int, status func(row int) color.Color) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().
					Foreground(colorPrimary).
					Bold(true).
					Padding(0, 1)
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == statusCol && status != nil {
				return style.Foreground(status(row))
			}
			if col == 0 {
				return style.Foreground(colorBase)
			}
			return style.Foreground(colorMuted)
		})
}

func draftDir() string {
	return filepath.Join(cfg.DataDir, "drafts")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)
