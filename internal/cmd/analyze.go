package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatefoundry/fpga-timing/core"
	"github.com/gatefoundry/fpga-timing/internal/observability"
	"github.com/gatefoundry/fpga-timing/model"
)

var (
	flagPath      bool
	flagHistogram bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report achieved frequency, critical path, and slack distribution",
	Long: `analyze runs a read-only timing pass with realized route delays and
reports the achieved worst-case frequency. It can additionally print
the critical path and a histogram of per-endpoint slack.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagPath, "path", false, "print the critical path")
	analyzeCmd.Flags().BoolVar(&flagHistogram, "histogram", false, "print the slack histogram")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := setup(ctx)
	if err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), env.log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, env.log)

	engine := core.New(env.nl, env.dm,
		core.WithLogger(env.log),
		core.WithMetricsRecorder(env.collector),
	)

	params := core.AnalyzeParams{
		Period:      model.PeriodFromMHz(env.cfg.TargetMHz),
		CapturePath: flagPath,
	}
	if flagHistogram {
		params.HistogramBins = env.cfg.Histogram.Bins
	}

	report, err := engine.Analyze(ctx, params)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderReport(report, env.cfg.Histogram.BarWidth, flagPath))
	return nil
}
