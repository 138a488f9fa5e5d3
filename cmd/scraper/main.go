// Command scraper walks every work list in the data directory, extracts one
// financial record per listed stock and appends it to the work list's result
// file. Progress is checkpointed after every row, so an interrupted run picks
// up where it stopped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finscrape/internal/browser"
	"finscrape/internal/config"
	"finscrape/internal/dataprocessing"
	"finscrape/internal/exporter"
	"finscrape/internal/extractor"
	"finscrape/internal/infrastructure"
	"finscrape/internal/operations"
	"finscrape/internal/repository/ledger"
	statushttp "finscrape/internal/transport/http"
	"finscrape/pkg/contracts"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

// cliFlags are the command line overrides applied on top of the loaded config
type cliFlags struct {
	configPath string
	dataDir    string
	statusAddr string
	once       string
	headless   bool
	version    bool
	set        map[string]bool
}

func parseFlags(args []string, output io.Writer) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&f.configPath, "config", "", "config file (defaults to config.yaml or configs/config.yaml if present)")
	fs.StringVar(&f.dataDir, "data", "", "directory holding the work lists")
	fs.StringVar(&f.statusAddr, "status-addr", "", "listen address of the status server, e.g. :8090")
	fs.StringVar(&f.once, "once", "", "process only this work list (a file name in the data directory or a path)")
	fs.BoolVar(&f.headless, "headless", true, "run Chrome headless")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overrides cfg with the flags given explicitly on the command line
func (f *cliFlags) apply(cfg *config.Config) {
	if f.set["data"] {
		cfg.Paths.DataDir = f.dataDir
	}
	if f.set["status-addr"] {
		cfg.Status.Addr = f.statusAddr
	}
	if f.set["headless"] {
		cfg.Browser.Headless = f.headless
	}
}

func loadConfig(f *cliFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	return cfg, cfg.Validate()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := parseFlags(args, os.Stderr)
	if err != nil {
		return exitError
	}
	if flags.version {
		fmt.Println(contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return exitError
	}

	paths, err := cfg.Paths.Resolve("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve paths: %v\n", err)
		return exitError
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directories: %v\n", err)
		return exitError
	}
	if cfg.Logging.Output != "console" && cfg.Logging.FilePath != "" {
		cfg.Logging.FilePath = paths.LogPath(cfg.Logging.FilePath)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return exitError
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// the item in flight finishes after the first signal; a second one kills the process
		<-ctx.Done()
		stop()
	}()
	ctx = infrastructure.EnsureRunID(ctx)

	logger.InfoContext(ctx, "Scraper starting",
		slog.String("version", contracts.Version),
		slog.String("data_dir", paths.DataDir),
		slog.String("logs_dir", paths.LogsDir),
		slog.String("results_dir", paths.ResultsDir))

	if err := scrape(ctx, cfg, paths, flags.once, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.WarnContext(ctx, "Scraper interrupted, progress is checkpointed")
			return exitInterrupted
		}
		logger.ErrorContext(ctx, "Scraper failed", slog.String("error", err.Error()))
		return exitError
	}
	return exitOK
}

func scrape(ctx context.Context, cfg *config.Config, paths *config.Paths, once string, logger *slog.Logger) error {
	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	layout := extractor.DefaultLayout()
	if cfg.Source.LayoutFile != "" {
		if layout, err = extractor.LoadLayout(cfg.Source.LayoutFile); err != nil {
			return err
		}
	}
	unit, err := dataprocessing.ParseUnit(cfg.Source.ResultUnit)
	if err != nil {
		return err
	}

	pacer := browser.NewPacer(cfg.Browser.PolitenessBase, cfg.Browser.PolitenessJitter, cfg.Browser.NavigationsPerMinute)
	// Chrome outlives the signal context so the item in flight can finish
	opener := browser.NewOpener(context.WithoutCancel(ctx), browser.Options{
		Headless:  cfg.Browser.Headless,
		ExecPath:  cfg.Browser.ExecPath,
		UserAgent: cfg.Browser.UserAgent,
	}, pacer, logger)
	defer opener.Close()

	ext := extractor.New(opener, layout,
		extractor.WithLocator(extractor.Locator{
			BaseURL:          cfg.Source.BaseURL,
			FinancialsSuffix: cfg.Source.FinancialsSuffix,
		}),
		extractor.WithFallbackRegistries(cfg.Source.FallbackRegistries...),
		extractor.WithResultUnit(unit),
		extractor.WithLogger(logger),
	)

	tracer, err := operations.NewBatchTracerFromProviders(providers)
	if err != nil {
		return fmt.Errorf("create batch metrics: %w", err)
	}
	controllerOpts := []operations.ControllerOption{
		operations.WithControllerLogger(logger),
		operations.WithBatchTracer(tracer),
		operations.WithDelimiter(cfg.WorkList.DelimiterRune()),
	}

	var attempts *ledger.Ledger
	if cfg.Ledger.Path != "" {
		if attempts, err = ledger.Open(paths.LogPath(cfg.Ledger.Path)); err != nil {
			return err
		}
		defer attempts.Close()
		controllerOpts = append(controllerOpts, operations.WithAttemptRecorder(attempts))
	}

	controller := operations.NewController(ext, operations.CSVSinks(logger), controllerOpts...)
	runnerOpts := []operations.RunnerOption{operations.WithRunnerLogger(logger)}
	if cfg.Export.XLSX {
		runnerOpts = append(runnerOpts, operations.WithWorkbookExport(exporter.ExportWorkbook))
	}
	runner := operations.NewRunner(controller, paths, cfg.WorkList.Patterns, runnerOpts...)

	var server *statushttp.Server
	if cfg.Status.Addr != "" {
		serverOpts := []statushttp.ServerOption{
			statushttp.WithServerLogger(logger),
			statushttp.WithVersion(contracts.Version),
			statushttp.WithMetricsHandler(providers.PrometheusHTTP),
			statushttp.WithShutdownTimeout(cfg.Status.ShutdownTimeout),
		}
		if httpMetrics, err := infrastructure.NewHTTPMetrics(providers.Meter); err == nil {
			serverOpts = append(serverOpts, statushttp.WithTelemetry(providers.Tracer, httpMetrics))
		} else {
			logger.Warn("HTTP metrics unavailable", slog.String("error", err.Error()))
		}
		if attempts != nil {
			serverOpts = append(serverOpts, statushttp.WithAttempts(attempts))
		}
		server = statushttp.NewServer(cfg.Status.Addr, runner, serverOpts...)
	}

	g, gctx := errgroup.WithContext(ctx)
	if server != nil {
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil {
				logger.Error("Status server failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	g.Go(func() error {
		if server != nil {
			defer func() {
				if err := server.Shutdown(context.Background()); err != nil {
					logger.Warn("Status server shutdown failed", slog.String("error", err.Error()))
				}
			}()
		}
		if once != "" {
			summary, err := runner.RunFile(gctx, onceWorkList(paths, once))
			logSummaries(gctx, logger, []operations.Summary{summary})
			if gctx.Err() != nil {
				return err
			}
			return nil
		}
		summaries, err := runner.RunAll(gctx)
		logSummaries(gctx, logger, summaries)
		return err
	})
	return g.Wait()
}

// onceWorkList resolves the -once argument. A bare file name is looked up in
// the data directory.
func onceWorkList(paths *config.Paths, once string) string {
	if filepath.Base(once) == once {
		return paths.WorkListPath(once)
	}
	return once
}

func logSummaries(ctx context.Context, logger *slog.Logger, summaries []operations.Summary) {
	var processed, completed int
	for _, s := range summaries {
		processed += s.Processed
		if s.Status == operations.JobStatusCompleted {
			completed++
		}
	}
	logger.InfoContext(ctx, "Batch finished",
		slog.Int("work_lists", len(summaries)),
		slog.Int("completed", completed),
		slog.Int("items_processed", processed))
}
