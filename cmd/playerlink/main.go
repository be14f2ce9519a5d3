package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/app"
	"github.com/riskibarqy/playerlink/internal/config"
	"github.com/riskibarqy/playerlink/internal/observability"
	idgen "github.com/riskibarqy/playerlink/internal/platform/id"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/usecase"

	_ "time/tzdata"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger, cmd string, args []string) error {
	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = stopProfiler() }()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = observability.StopPprofServer(pprofSrv, logger, 5*time.Second) }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app failed", "error", err)
		}
	}()

	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "ingest-odds":
		return ingestOdds(ctx, a, args)
	case "consume":
		return consume(ctx, a, logger)
	case "reconcile":
		return reconcile(ctx, a, cfg, logger, args)
	case "mismatches":
		return listMismatches(ctx, a, args)
	case "resolve":
		return resolve(ctx, a, args)
	default:
		printUsage()
		return errors.Newf("unknown command %q", cmd)
	}
}

func ingestOdds(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("ingest-odds", flag.ContinueOnError)
	dateFlag := fs.String("date", "", "game date YYYY-MM-DD (US/Eastern), default today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	date, err := parseDateOrToday(*dateFlag)
	if err != nil {
		return err
	}

	result, err := a.OddsIngestion.IngestDate(ctx, date)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func consume(ctx context.Context, a *app.App, logger *logging.Logger) error {
	consumer, closeReader, err := a.NewOddsConsumer()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReader(); err != nil {
			logger.Warn("close kafka reader failed", "error", err)
		}
	}()

	srv := a.MetricsServer()
	go serveMetrics(srv, logger)
	defer shutdownMetrics(srv, logger)

	err = consumer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func reconcile(ctx context.Context, a *app.App, cfg config.Config, logger *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fromFlag := fs.String("from", "", "first game date YYYY-MM-DD, default yesterday")
	toFlag := fs.String("to", "", "last game date YYYY-MM-DD, inclusive, default from")
	events := fs.String("events", "", "comma separated event ids to limit the run")
	workers := fs.Int("workers", cfg.ReconcileGameWorkers, "games reconciled concurrently")
	serve := fs.Bool("metrics", false, "serve /metrics and /healthz while running")
	if err := fs.Parse(args); err != nil {
		return err
	}

	from := usecase.EasternDate(time.Now()).AddDate(0, 0, -1)
	if *fromFlag != "" {
		parsed, err := parseDate(*fromFlag)
		if err != nil {
			return err
		}
		from = parsed
	}
	var to time.Time
	if *toFlag != "" {
		parsed, err := parseDate(*toFlag)
		if err != nil {
			return err
		}
		to = parsed
	}

	if *serve {
		srv := a.MetricsServer()
		go serveMetrics(srv, logger)
		defer shutdownMetrics(srv, logger)
	}

	runID, err := idgen.NewRandomGenerator("run_").NewID()
	if err != nil {
		return err
	}
	logger.Info("reconciliation run started", "run_id", runID, "from", from.Format(time.DateOnly))

	result, err := a.Batch.Run(ctx, usecase.BatchReconcileInput{
		From:       from,
		To:         to,
		MaxWorkers: *workers,
		EventIDs:   splitList(*events),
	})
	if err != nil {
		return err
	}
	logger.Info("reconciliation run finished",
		"run_id", runID,
		"games", result.GameCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	return printJSON(result)
}

func listMismatches(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("mismatches", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "maximum entries to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := a.MismatchReview.ListUnresolved(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(entries)
}

func resolve(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	recordID := fs.Int64("record", 0, "betting-line record id")
	externalID := fs.String("external-id", "", "authoritative player id to bind to the record's identity")
	notes := fs.String("notes", "", "resolution notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return a.MismatchReview.ResolveMismatch(ctx, usecase.ResolveMismatchInput{
		RecordID:   *recordID,
		ExternalID: strings.TrimSpace(*externalID),
		Notes:      *notes,
	})
}

func serveMetrics(srv *http.Server, logger *logging.Logger) {
	logger.Info("metrics server starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}

func shutdownMetrics(srv *http.Server, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown failed", "error", err)
	}
}

func parseDateOrToday(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return usecase.EasternDate(time.Now()), nil
	}
	return parseDate(raw)
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <ingest-odds|consume|reconcile|mismatches|resolve> [flags]\n", name)
	fmt.Fprintln(os.Stderr, "sample invocations:")
	fmt.Fprintf(os.Stderr, "  %s ingest-odds -date 2024-01-10\n", name)
	fmt.Fprintf(os.Stderr, "  %s consume\n", name)
	fmt.Fprintf(os.Stderr, "  %s reconcile -from 2024-01-10 -to 2024-01-12 -metrics\n", name)
	fmt.Fprintf(os.Stderr, "  %s mismatches -limit 20\n", name)
	fmt.Fprintf(os.Stderr, "  %s resolve -record 42 -external-id 3136195 -notes \"checked box score\"\n", name)
}
