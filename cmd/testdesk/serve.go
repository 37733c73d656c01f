package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/logger"
	"github.com/psyhelp/testdesk/internal/mcpserver"
)

var serveMCPFlags struct {
	host        string
	port        int
	metricsAddr string
}

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the test catalog as MCP tools",
	Long: `Serve MCP tools over streamable HTTP until interrupted.

Tools: test-list, test-questions, test-validate, test-create, test-delete.
With --metrics-addr (or metrics_addr in config) Prometheus metrics are
served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServeMCP,
}

func init() {
	serveMCPCmd.Flags().StringVar(&serveMCPFlags.host, "host", "127.0.0.1", "Listen host")
	serveMCPCmd.Flags().IntVarP(&serveMCPFlags.port, "port", "p", 0, "Listen port (0 picks a free one)")
	serveMCPCmd.Flags().StringVar(&serveMCPFlags.metricsAddr, "metrics-addr", "", "Address for the /metrics endpoint")
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{journal: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpserver.New(a.page,
		mcpserver.WithHost(serveMCPFlags.host),
		mcpserver.WithPort(serveMCPFlags.port),
	)
	if _, err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			logger.Warn("Failed to stop MCP server: %v", err)
		}
	}()

	metricsAddr := serveMCPFlags.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	var metricsServer *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics on http://%s/metrics", metricsAddr)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, titleStyle.Render("MCP server listening"))
	_, _ = fmt.Fprintf(out, "  %s\n", srv.URL())

	<-ctx.Done()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to stop metrics server: %v", err)
		}
	}
	return nil
}
