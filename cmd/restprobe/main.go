package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/restprobe/internal/app"
	"github.com/samvad-hq/restprobe/internal/config"
	"github.com/samvad-hq/restprobe/internal/domain"
	"github.com/samvad-hq/restprobe/internal/logger"
	"github.com/samvad-hq/restprobe/internal/storage"
)

// errChecksFailed makes `check` exit non-zero without printing a usage error.
var errChecksFailed = errors.New("one or more checks failed")

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "restprobe: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "restprobe",
		Short:         "Probe REST endpoints and report unexpected status codes",
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCheckCmd(), newHistoryCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var checksFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run checks on the configured interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			logger.InfoObj("restprobe starting", "config", cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			prober, err := app.NewProber(ctx, cfg, log, app.WithChecksFile(firstSet(checksFile, cfg.ChecksFile)))
			if err != nil {
				logger.ErrorObj("failed to initialize prober", "error", err)
				return err
			}
			if err := prober.Run(ctx); err != nil {
				return fmt.Errorf("prober run: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&checksFile, "checks", "", "checks file (overrides CHECKS_FILE)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		checksFile string
		verbose    bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every enabled check once and exit non-zero on failure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			prober, err := app.NewProber(ctx, cfg, log,
				app.WithChecksFile(firstSet(checksFile, cfg.ChecksFile)),
				app.WithVerbose(verbose),
				app.WithTraceWriter(cmd.OutOrStdout()),
			)
			if err != nil {
				return err
			}
			defer prober.Close()

			report, runErr := prober.RunOnce(ctx)
			if errors.Is(runErr, context.Canceled) {
				return runErr
			}
			if runErr != nil {
				logger.ErrorObj("probe completed with alerting errors", "error", runErr)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}
			if len(report.Failed()) > 0 {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&checksFile, "checks", "", "checks file (overrides CHECKS_FILE)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print a request trace for every check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent recorded failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			records, err := readHistory(cfg, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records to show")
	return cmd
}

// readHistory opens only the failure store; checks and publishers are not
// needed to list past failures.
func readHistory(cfg *config.Config, limit int) ([]domain.FailureRecord, error) {
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		AlertTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	records, err := store.History(limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return records, nil
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printReport(w io.Writer, report domain.RunReport) {
	for _, res := range report.Results {
		status := "PASS"
		if !res.OK {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-4s %-24s %-6s %s -> %d (expected %s)", status, res.CheckID, res.Method, res.BaseURL, res.StatusCode, res.Expected)
		if res.Reason != "" {
			fmt.Fprintf(w, ": %s", res.Reason)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d checks, %d failed, %d requests in %s\n",
		len(report.Results), len(report.Failed()), report.Requests, report.Elapsed.Round(time.Millisecond))
}

func printHistory(w io.Writer, records []domain.FailureRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no failures recorded")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s %-24s %-6s %s -> %d (expected %s) %s\n",
			rec.ObservedAt.Format(time.RFC3339), rec.CheckID, rec.Method, rec.BaseURL, rec.StatusCode, rec.Expected, rec.Reason)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
