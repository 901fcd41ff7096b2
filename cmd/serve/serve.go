// Package serve implements the HTTP server command.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/platewell/qpcr-go/internal/api"
	"github.com/platewell/qpcr-go/internal/conf"
	"github.com/platewell/qpcr-go/internal/logging"
	"github.com/platewell/qpcr-go/internal/observability"
)

// Command creates the serve command running the HTTP API server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the qPCR planner HTTP API server",
		Long:  "Start the HTTP server exposing the planning API, exports and Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Address, "address", viper.GetString("webserver.address"), "Listen address and port, e.g. \":8080\"")
	cmd.Flags().StringVar(&settings.WebServer.LogPath, "logpath", viper.GetString("webserver.logpath"), "Path to the API request log file")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

func runServer(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("server")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if settings.WebServer.Cors.Enabled {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: settings.WebServer.Cors.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}))
	}

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	controller, err := api.New(e, settings, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	defer controller.Shutdown()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "address", settings.WebServer.Address)
		if err := e.Start(settings.WebServer.Address); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
