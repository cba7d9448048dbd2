package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/pitchside/prediction-engine/internal/app"
	"github.com/pitchside/prediction-engine/internal/config"
	"github.com/pitchside/prediction-engine/internal/observability"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	switch cmd {
	case "serve":
		err = runServe(cfg, logger)
	case "rebuild":
		err = runRebuild(cfg, logger)
	case "sync":
		err = runSync(cfg, logger, os.Args[2:])
	case "matchup":
		err = runMatchup(cfg, logger, os.Args[2:])
	default:
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func runServe(cfg config.Config, logger *logging.Logger) error {
	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("stop profiler", "error", err)
		}
	}()

	srv, a, err := app.NewHTTPServer(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("shutdown tracing", "error", err)
	}

	logger.Info("http server stopped")
	return nil
}

func runRebuild(cfg config.Config, logger *logging.Logger) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := a.FeatureService.Rebuild(ctx)
	if err != nil {
		return err
	}

	return printJSON(summary)
}

func runSync(cfg config.Config, logger *logging.Logger, args []string) error {
	competition := cfg.DefaultCompetition
	season := cfg.DefaultSeason
	if len(args) >= 1 {
		competition = args[0]
	}
	if len(args) >= 2 {
		season = args[1]
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := a.SyncService.Sync(ctx, competition, season)
	if err != nil {
		return err
	}

	return printJSON(summary)
}

func runMatchup(cfg config.Config, logger *logging.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("matchup requires <home> and <away> team names")
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	matchup, err := a.SnapshotService.Matchup(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	return printJSON(matchup)
}

func printJSON(payload any) error {
	encoder := sonic.ConfigDefault.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <serve|rebuild|sync|matchup> [args]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s serve\n", name)
	fmt.Fprintf(os.Stderr, "  %s rebuild\n", name)
	fmt.Fprintf(os.Stderr, "  %s sync EPL 2025\n", name)
	fmt.Fprintf(os.Stderr, "  %s matchup Arsenal Chelsea\n", name)
}
