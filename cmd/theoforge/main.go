package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lamim/theoforge/internal/archive"
	"github.com/lamim/theoforge/internal/config"
	"github.com/lamim/theoforge/internal/control"
	"github.com/lamim/theoforge/internal/metrics"
	"github.com/lamim/theoforge/internal/pool"
	"github.com/lamim/theoforge/internal/prover"
	"github.com/lamim/theoforge/internal/queue"
	"github.com/lamim/theoforge/internal/space"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	verbose    bool
	duration   time.Duration
	target     int
	listLimit  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "theoforge",
		Short: "TheoForge - Automated Theorem Discovery Engine",
		Long: `TheoForge explores a bounded space of logical statements, attempts to
prove each candidate, and archives every theorem it discovers.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the discovery pipeline",
		Long: `Run the complete discovery pipeline:
1. Generate candidate statements from the configured space
2. Attempt proofs with the configured prover
3. Archive each newly proved theorem
4. Feed discoveries back into guided generation`,
		RunE: runDiscovery,
	}

	runCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	runCmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = run until interrupted)")
	runCmd.Flags().IntVar(&target, "target", 0, "Stop after this many new discoveries (0 = no target)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the theorem archive",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived theorems, most recent first",
		RunE:  listArchive,
	}
	listCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum theorems to show (0 = all)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		RunE:  showStats,
	}
	statsCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")

	archiveCmd.AddCommand(listCmd)
	archiveCmd.AddCommand(statsCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(archiveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable stores first: the archive seeds the in-memory proven set so a
	// restarted run never re-records old discoveries.
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	var attempts pool.AttemptRecorder
	if cfg.Archive.AttemptLogPath != "" {
		log, err := archive.OpenAttemptLog(cfg.Archive.AttemptLogPath)
		if err != nil {
			return fmt.Errorf("failed to open attempt log: %w", err)
		}
		defer log.Close()
		attempts = log
	}

	plane := control.NewPlane()
	known, err := store.Fingerprints(ctx)
	if err != nil {
		return fmt.Errorf("failed to read archive fingerprints: %w", err)
	}
	plane.SeedProven(known)
	logger.Info("archive loaded",
		"path", cfg.Archive.Path,
		"known_theorems", len(known))

	sp := space.Default()
	sp.MaxTermDepth = cfg.Space.MaxTermDepth
	sp.MaxQuantifiers = cfg.Space.MaxQuantifiers
	seed := cfg.Space.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator := space.NewGenerator(sp, seed, nil)

	prv, err := prover.New(prover.Options{
		Kind:               cfg.Prover.Kind,
		Bin:                cfg.Prover.Bin,
		Timeout:            time.Duration(cfg.Prover.TimeoutSeconds) * time.Second,
		RateLimitPerMinute: cfg.Prover.RateLimitPerMinute,
		SuccessRate:        cfg.Prover.SuccessRate,
		Seed:               seed,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to build prover: %w", err)
	}

	collector := metrics.NewCollector(logger)
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("metrics listener started", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn("metrics listener failed", "error", err)
			}
		}()
	}

	q := queue.New(cfg.Engine.QueueCapacity)
	workers := pool.New(pool.Options{
		NumGenerators:  cfg.Engine.NumGenerators,
		NumProvers:     cfg.Engine.NumProvers,
		BatchSize:      cfg.Engine.BatchSize,
		DequeueTimeout: time.Duration(cfg.Engine.DequeueTimeoutMillis) * time.Millisecond,
	}, generator, q, plane, prv, store, attempts, collector, logger)

	workers.Start(ctx)
	err = driveRun(ctx, workers, plane)

	stopTimeout := time.Duration(cfg.Engine.StopTimeoutSeconds) * time.Second
	if stopErr := workers.Stop(stopTimeout); stopErr != nil {
		logger.Warn("shutdown incomplete", "error", stopErr)
	}

	stats := workers.Stats()
	logger.Info("run finished",
		"generated", stats.Generated,
		"attempted", stats.Attempted,
		"proven", stats.Proven,
		"verified", stats.Verified,
		"elapsed", stats.Elapsed.Round(time.Second),
		"rate_proven_per_sec", fmt.Sprintf("%.3f", stats.RateProven))
	return err
}

// driveRun blocks until the run should end: interrupt, the optional
// --duration deadline, or the optional --target discovery count.
func driveRun(ctx context.Context, workers *pool.Pool, plane *control.Plane) error {
	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	baseline := plane.ProvenCount()
	bar := newProgressBar()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr)
			return nil
		case <-deadline:
			fmt.Fprintln(os.Stderr)
			return nil
		case <-ticker.C:
			stats := plane.Snapshot()
			discovered := int(stats.Proven)
			bar.Describe(fmt.Sprintf("discovered %d | attempted %d", discovered, stats.Attempted))
			_ = bar.Set(discovered)
			if target > 0 && plane.ProvenCount()-baseline >= target {
				fmt.Fprintln(os.Stderr)
				return nil
			}
		}
	}
}

func newProgressBar() *progressbar.ProgressBar {
	total := int64(-1)
	if target > 0 {
		total = int64(target)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("discovering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSpinnerType(14),
	)
}

func listArchive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	records, err := store.GetAll(context.Background(), listLimit)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("Archive is empty.")
		return nil
	}

	for _, rec := range records {
		verified := ""
		if rec.Verified {
			verified = " [verified]"
		}
		fmt.Printf("%s  %s%s\n", rec.Fingerprint, rec.Name, verified)
		fmt.Printf("    %s\n", rec.Statement.String())
		fmt.Printf("    proved %s in %s\n",
			rec.ProvenAt.Format(time.RFC3339), rec.ProofTime.Round(time.Microsecond))
	}
	fmt.Printf("\n%d theorem(s)\n", len(records))
	return nil
}

func showStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	stats, err := store.Statistics(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	fmt.Printf("Theorems archived:  %d\n", stats.Count)
	fmt.Printf("Avg proof time:     %s\n", stats.AvgProofTime.Round(time.Microsecond))
	fmt.Printf("Total proof time:   %s\n", stats.TotalProofTime.Round(time.Millisecond))
	return nil
}
