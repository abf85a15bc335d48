package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/adapter"
	"github.com/dexfetch/dexfetch/adapter/redis"
	"github.com/dexfetch/dexfetch/adapter/webhook"
	"github.com/dexfetch/dexfetch/cli/config"
	"github.com/dexfetch/dexfetch/cli/tui"
	"github.com/dexfetch/dexfetch/fetch"
	"github.com/dexfetch/dexfetch/history"
	"github.com/dexfetch/dexfetch/log"
	"github.com/dexfetch/dexfetch/metrics"
	"github.com/dexfetch/dexfetch/runtime"
	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// Exit codes.
const (
	exitSuccess      = 0
	exitFailedItems  = 1
	exitSetupFailure = 2
)

// RunCommand returns the run command, the only command that fetches.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch a batch of items (sequential by default, --parallel for the worker pool)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to dexfetch.yaml (flags override config values)",
			},
			&cli.StringSliceFlag{
				Name:  "items",
				Usage: "Item names to fetch (default: the starter batch)",
			},
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"p"},
				Usage:   "Worker bound for the parallel runner (0 = sequential)",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Upstream API base URL",
				Value: fetch.DefaultEndpoint,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: fetch.DefaultTimeout,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Max fetch attempts per item (including the first)",
				Value: runtime.DefaultMaxAttempts,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Fixed delay between attempts",
				Value: runtime.DefaultRetryDelay,
			},
			&cli.DurationFlag{
				Name:  "item-delay",
				Usage: "Inter-item delay for the sequential runner",
				Value: runtime.DefaultItemDelay,
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a JSON run report to this path (- for stderr)",
			},
			&cli.StringFlag{
				Name:  "failure-log",
				Usage: "Failure log path (default <output-dir>/failures.log for the fs backend)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show live progress in an interactive TUI (parallel runs)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress and summary output",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion notification adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint (webhook URL or redis URL)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel (redis adapter)",
			},
		}, StoreFlags()...),
		Action: runAction,
	}
}

// runSettings is the merged view of config file values and flags.
// CLI flags always override config values.
type runSettings struct {
	items      []string
	endpoint   string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	itemDelay  time.Duration
	parallel   int
	report     string
	failureLog string

	store storeChoice

	adapterType    string
	adapterURL     string
	adapterChannel string
	adapterHeaders map[string]string
	adapterTimeout time.Duration
	adapterRetries *int
}

func mergeSettings(c *cli.Context) (*runSettings, error) {
	s := &runSettings{
		items:          c.StringSlice("items"),
		endpoint:       c.String("endpoint"),
		timeout:        c.Duration("timeout"),
		retries:        c.Int("retries"),
		retryDelay:     c.Duration("retry-delay"),
		itemDelay:      c.Duration("item-delay"),
		parallel:       c.Int("parallel"),
		report:         c.String("report"),
		failureLog:     c.String("failure-log"),
		store:          storeChoiceFromFlags(c),
		adapterType:    c.String("adapter"),
		adapterURL:     c.String("adapter-url"),
		adapterChannel: c.String("adapter-channel"),
	}

	path := c.String("config")
	if path == "" {
		return s, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if !c.IsSet("items") && len(cfg.Items) > 0 {
		s.items = cfg.Items
	}
	if !c.IsSet("endpoint") && cfg.Endpoint != "" {
		s.endpoint = cfg.Endpoint
	}
	if !c.IsSet("timeout") && cfg.Timeout.Duration > 0 {
		s.timeout = cfg.Timeout.Duration
	}
	if !c.IsSet("retries") && cfg.Retries != nil {
		s.retries = *cfg.Retries
	}
	if !c.IsSet("retry-delay") && cfg.RetryDelay.Duration > 0 {
		s.retryDelay = cfg.RetryDelay.Duration
	}
	if !c.IsSet("item-delay") && cfg.ItemDelay.Duration > 0 {
		s.itemDelay = cfg.ItemDelay.Duration
	}
	if !c.IsSet("parallel") && cfg.Parallel != nil {
		s.parallel = *cfg.Parallel
	}
	if !c.IsSet("report") && cfg.Report != "" {
		s.report = cfg.Report
	}
	if !c.IsSet("failure-log") && cfg.FailureLog != "" {
		s.failureLog = cfg.FailureLog
	}

	mergeStorage(c, s, cfg.Storage)

	if !c.IsSet("adapter") && cfg.Adapter.Type != "" {
		s.adapterType = cfg.Adapter.Type
	}
	if !c.IsSet("adapter-url") && cfg.Adapter.URL != "" {
		s.adapterURL = cfg.Adapter.URL
	}
	if !c.IsSet("adapter-channel") && cfg.Adapter.Channel != "" {
		s.adapterChannel = cfg.Adapter.Channel
	}
	s.adapterHeaders = cfg.Adapter.Headers
	if cfg.Adapter.Timeout.Duration > 0 {
		s.adapterTimeout = cfg.Adapter.Timeout.Duration
	}
	s.adapterRetries = cfg.Adapter.Retries

	return s, nil
}

// mergeStorage folds the config file's storage section into the store
// choice. The storage path names the output directory for the fs
// backend and the bucket/prefix for s3.
func mergeStorage(c *cli.Context, s *runSettings, sc config.StorageConfig) {
	if !c.IsSet("store-backend") && sc.Backend != "" {
		s.store.backend = sc.Backend
	}
	if sc.Path != "" {
		switch s.store.backend {
		case "s3":
			if !c.IsSet("s3-path") {
				s.store.s3Path = sc.Path
			}
		default:
			if !c.IsSet("output-dir") {
				s.store.outputDir = sc.Path
			}
		}
	}
	if !c.IsSet("s3-region") && sc.Region != "" {
		s.store.s3Region = sc.Region
	}
	if !c.IsSet("s3-endpoint") && sc.Endpoint != "" {
		s.store.s3Endpoint = sc.Endpoint
	}
	if !c.IsSet("s3-path-style") && sc.S3PathStyle {
		s.store.s3PathStyle = true
	}
}

func runAction(c *cli.Context) error {
	settings, err := mergeSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), exitSetupFailure)
	}

	items, err := parseItems(settings.items)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid items: %v", err), exitFailedItems)
	}

	runID := uuid.NewString()
	mode := types.ModeSequential
	if settings.parallel > 0 {
		mode = types.ModeParallel
	}

	logger := log.Nop()
	var deferred bytes.Buffer
	if !c.Bool("quiet") {
		logger = log.NewLogger(runID, mode)
		if c.Bool("tui") {
			// The live view owns the terminal; hold structured logs
			// back and replay them once it exits.
			logger = logger.WithOutput(&deferred)
		}
	}
	defer func() { _ = logger.Sync() }()
	sug := logger.Sugar()

	st, err := settings.store.open(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	// Scratch is acquired once, scoped to this run, and released on
	// every exit path including interruption.
	scratch, err := runtime.NewScratch()
	if err != nil {
		return cli.Exit(fmt.Sprintf("scratch setup failed: %v", err), exitSetupFailure)
	}
	defer scratch.Release()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	failures, err := openFailureLog(settings, runID, mode)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failure log setup failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = failures.Close() }()

	coll := metrics.NewCollector(string(mode), settings.store.backend, runID)
	client := fetch.NewClient(fetch.Config{
		Endpoint: settings.endpoint,
		Timeout:  settings.timeout,
		TempDir:  scratch.Dir(),
	})

	runner, err := runtime.NewRunner(runtime.RunnerOptions{
		RunID: runID,
		Config: runtime.BatchConfig{
			Items:     items,
			Retry:     runtime.RetryConfig{MaxAttempts: settings.retries, Delay: settings.retryDelay},
			ItemDelay: settings.itemDelay,
			Parallel:  settings.parallel,
		},
		Client:    client,
		Store:     st,
		Logger:    logger,
		Collector: coll,
		Failures:  failures,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("runner setup failed: %v", err), exitSetupFailure)
	}

	sum := executeRun(ctx, runner, mode, c.Bool("tui"), c.Bool("quiet"))

	if deferred.Len() > 0 {
		_, _ = deferred.WriteTo(os.Stderr)
	}

	if settings.report != "" {
		report := runtime.BuildRunReport(sum, coll.Snapshot())
		if err := runtime.WriteRunReport(report, settings.report); err != nil {
			sug.Warnf("failed to write report: %v", err)
		}
	}

	if fs, ok := st.(*store.FSStore); ok {
		histPath := filepath.Join(fs.Root(), history.DefaultFileName)
		if err := history.Append(histPath, sum); err != nil {
			sug.Warnf("failed to append run history: %v", err)
		}
	}

	if settings.adapterType != "" {
		publishCompletion(ctx, settings, sum, sug)
	}

	if !c.Bool("quiet") {
		printRunSummary(sum)
	}

	if sum.Failed > 0 {
		return cli.Exit("", exitFailedItems)
	}
	return cli.Exit("", exitSuccess)
}

// executeRun runs the batch with the selected scheduler, keeping a live
// progress view on parallel runs unless quiet.
func executeRun(ctx context.Context, runner *runtime.Runner, mode types.RunMode, withTUI, quiet bool) *types.RunSummary {
	if mode == types.ModeSequential {
		return runner.RunSequential(ctx)
	}

	done := make(chan *types.RunSummary, 1)
	go func() {
		done <- runner.RunParallel(ctx)
	}()

	switch {
	case withTUI:
		if err := tui.RunProgressTUI(runner.Board(), 0); err != nil {
			fmt.Fprintf(os.Stderr, "progress view failed: %v\n", err)
		}
	case !quiet:
		monitor := runtime.NewMonitor(runner.Board(), 0, func(snap runtime.BoardSnapshot) {
			fmt.Fprintf(os.Stderr, "\rprogress: %d/%d done (running %d, failed %d)   ",
				snap.Completed(), snap.Total, snap.Running, snap.Failed)
		})
		monitor.Run(ctx)
		fmt.Fprintln(os.Stderr)
	}

	return <-done
}

// openFailureLog opens the per-run failure log. The fs backend gets one
// under the output directory by default; otherwise it is opt-in.
func openFailureLog(s *runSettings, runID string, mode types.RunMode) (*runtime.FailureLog, error) {
	path := s.failureLog
	if path == "" {
		if s.store.backend != "fs" && s.store.backend != "" {
			return nil, nil
		}
		if err := os.MkdirAll(s.store.outputDir, 0o755); err != nil {
			return nil, err
		}
		path = filepath.Join(s.store.outputDir, "failures.log")
	}
	return runtime.OpenFailureLog(path, runID, mode)
}

// publishCompletion sends the batch-completed event; failures are
// reported but never change the run outcome.
func publishCompletion(ctx context.Context, s *runSettings, sum *types.RunSummary, sug *log.SugaredLogger) {
	a, err := buildAdapter(s)
	if err != nil {
		sug.Errorf("adapter setup failed: %v", err)
		return
	}
	defer func() { _ = a.Close() }()

	event := adapter.FromSummary(sum, s.store.location())
	if err := a.Publish(ctx, event); err != nil {
		sug.Errorf("completion publish failed: %v", err)
	}
}

func buildAdapter(s *runSettings) (adapter.Adapter, error) {
	switch s.adapterType {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     s.adapterURL,
			Headers: s.adapterHeaders,
			Timeout: s.adapterTimeout,
			Retries: retriesOrDefault(s.adapterRetries, webhook.DefaultRetries),
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     s.adapterURL,
			Channel: s.adapterChannel,
			Timeout: s.adapterTimeout,
			Retries: retriesOrDefault(s.adapterRetries, redis.DefaultRetries),
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", s.adapterType)
	}
}

// retriesOrDefault resolves the configured retry count; nil means the
// adapter's documented default. An explicit zero disables retries.
func retriesOrDefault(configured *int, def int) int {
	if configured != nil {
		return *configured
	}
	return def
}

func printRunSummary(sum *types.RunSummary) {
	fmt.Printf("run %s (%s): %d items, %d succeeded, %d skipped, %d failed (%.0f%% in %s)\n",
		sum.RunID, sum.Mode, sum.Total(),
		sum.Succeeded, sum.Skipped, sum.Failed,
		sum.SuccessRate()*100, sum.Duration.Round(time.Millisecond))

	for _, res := range sum.Results {
		if res.State == types.StateFailed {
			fmt.Printf("  failed: %s (%s after %d attempts): %s\n",
				res.Item, res.Reason, res.Attempts, res.Err)
		}
	}
}
