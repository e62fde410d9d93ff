package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatefoundry/fpga-timing/core"
	"github.com/gatefoundry/fpga-timing/internal/logging"
	"github.com/gatefoundry/fpga-timing/internal/observability"
	"github.com/gatefoundry/fpga-timing/model"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Annotate connections with timing budgets",
	Long: `budget resets and recomputes the per-connection timing budgets for
the target frequency, writing them back into the netlist. With auto
frequency enabled it iterates, folding each pass's minimum slack into
the next target period.`,
	RunE: runBudget,
}

func runBudget(cmd *cobra.Command, args []string) error {
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

	period := model.PeriodFromMHz(env.cfg.TargetMHz)
	var outcome *core.BudgetOutcome

	// Adaptive frequency search is a driver concern: the engine computes
	// one pass, the loop feeds the achieved period back in.
	for i := 0; i < env.cfg.BudgetIterations; i++ {
		outcome, err = engine.AssignBudgets(ctx, core.BudgetParams{
			Period:      period,
			RoutingIter: env.cfg.RoutingIter,
			AutoFreq:    env.cfg.AutoFreq,
		})
		if err != nil {
			return err
		}
		if !env.cfg.AutoFreq {
			break
		}
		env.log.Info(ctx, "adjusting target frequency",
			logging.Float64("min_slack_ns", outcome.MinSlack.Nanoseconds()),
			logging.Float64("next_target_mhz", model.MHzFromPeriod(outcome.NextPeriod)))
		period = outcome.NextPeriod
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderBudgetSummary(outcome, period))
	return nil
}
