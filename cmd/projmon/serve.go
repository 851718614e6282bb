package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/projmon/internal/httpapi"
	"github.com/rpggio/projmon/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var stdio bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contact API and MCP tools, and run the scheduled cycle",
		Long: `Serve HTTP (REST API under /api, MCP under /mcp, /metrics, /health) or MCP
over stdio. Both modes run reconcile + notify every schedule.interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, appOptions{stdio: stdio, logToStdout: true, needSource: true})
			if err != nil {
				return err
			}
			defer a.Close()

			reconciler := a.reconciler()
			notifier := a.dispatcher()
			contacts := a.contacts()

			go runScheduler(ctx, a.cfg.Schedule.Interval, a.logger, func(ctx context.Context) error {
				_, _, err := runCycle(ctx, reconciler, notifier)
				return err
			})

			mcpServer := mcp.NewServer(mcp.Config{
				Services: mcp.Services{
					Contacts: contacts,
					Notices:  a.ledger,
					Planner:  reconciler,
				},
				Resolver:      a.apiKeys,
				AuthEnabled:   a.cfg.Auth.Enabled,
				TransportMode: a.cfg.Transport.Mode,
				DefaultUser:   a.cfg.Transport.User,
				Version:       Version,
				Logger:        a.logger,
			})

			if a.cfg.Transport.Mode == "stdio" {
				a.logger.Info("starting stdio transport", "auth", "disabled")
				// Run blocks until stdin closes or the context is canceled.
				if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("stdio server: %w", err)
				}
				return nil
			}

			mcpHandler := sdkmcp.NewStreamableHTTPHandler(
				func(r *http.Request) *sdkmcp.Server { return mcpServer },
				&sdkmcp.StreamableHTTPOptions{
					Stateless:      false,
					SessionTimeout: 30 * time.Minute,
				},
			)

			router := httpapi.NewRouter(httpapi.Config{
				Services: httpapi.Services{
					Contacts: contacts,
					Notices:  a.ledger,
					Activity: a.audit,
				},
				Resolver:    a.apiKeys,
				AuthEnabled: a.cfg.Auth.Enabled,
				MCP:         mcpHandler,
				Metrics:     a.metrics.Handler(),
				Logger:      a.logger,
			})

			addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server listening", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			a.logger.Info("shutting down")
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("shutdown error", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve MCP over stdio instead of HTTP")
	return cmd
}

func init() {
	// gin prints route debug lines on stdout unless told otherwise.
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
