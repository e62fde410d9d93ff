// Package cmd provides the CLI commands for the fpgatime tool.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatefoundry/fpga-timing/config"
	"github.com/gatefoundry/fpga-timing/core"
	"github.com/gatefoundry/fpga-timing/internal/logging"
	"github.com/gatefoundry/fpga-timing/internal/observability"
	"github.com/gatefoundry/fpga-timing/netlist"
)

var rootCmd = &cobra.Command{
	Use:   "fpgatime",
	Short: "FPGA timing budgeting and analysis",
	Long: `fpgatime runs static timing passes over a placed design.

budget mode annotates every connection with the maximum delay it may
consume without missing the target clock period; analyze mode reports
the achieved frequency, the critical path, and the slack distribution.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfig      string
	flagNetlist     string
	flagDelays      string
	flagMetricsAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a TOML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&flagNetlist, "netlist", "", "path to the placed design JSON")
	rootCmd.PersistentFlags().StringVar(&flagDelays, "delays", "", "path to the delay table JSON")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")

	_ = rootCmd.MarkPersistentFlagRequired("netlist")
	_ = rootCmd.MarkPersistentFlagRequired("delays")

	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fpgatime: %v\n", err)
		return 1
	}
	return 0
}

// environment is everything a subcommand needs after setup.
type environment struct {
	cfg       config.Config
	log       logging.Logger
	nl        *netlist.Netlist
	dm        *core.TableModel
	collector *observability.TimingCollector
}

// setup loads config, logging, metrics, the netlist, and the delay table.
func setup(ctx context.Context) (*environment, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.LoadFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	collector, err := observability.NewTimingCollector(nil)
	if err != nil {
		return nil, fmt.Errorf("initialising metrics: %w", err)
	}
	if flagMetricsAddr != "" {
		serveMetrics(ctx, flagMetricsAddr, collector, log)
	}

	nl := netlist.New()
	f, err := os.Open(flagNetlist)
	if err != nil {
		return nil, fmt.Errorf("opening netlist %q: %w", flagNetlist, err)
	}
	defer f.Close()
	summary, err := netlist.LoadDesign(nl, f)
	if err != nil {
		return nil, err
	}

	df, err := os.Open(flagDelays)
	if err != nil {
		return nil, fmt.Errorf("opening delay table %q: %w", flagDelays, err)
	}
	defer df.Close()
	dm, err := core.LoadDelayTable(df)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "design loaded",
		logging.Int("cells", len(summary.CellNames)),
		logging.Int("nets", len(summary.NetNames)),
		logging.String("netlist", flagNetlist))

	return &environment{
		cfg:       cfg,
		log:       log,
		nl:        nl,
		dm:        dm,
		collector: collector,
	}, nil
}

// serveMetrics exposes /metrics in the background for the lifetime of the
// process. Batch commands are short-lived, so no graceful shutdown is
// plumbed; scrapes race the process exit.
func serveMetrics(ctx context.Context, addr string, collector *observability.TimingCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	log.Info(ctx, "serving metrics", logging.String("addr", addr))
}
