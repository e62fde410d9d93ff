package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatefoundry/fpga-timing/internal/logging"
	"github.com/gatefoundry/fpga-timing/model"
	"github.com/gatefoundry/fpga-timing/netlist"
)

// PassRecorder receives pass-level measurements. It is satisfied by
// observability.TimingCollector; a nil recorder disables recording.
type PassRecorder interface {
	RecordPass(mode string, duration time.Duration, netsOrdered int)
	RecordMinSlack(slackPs int64)
	RecordEndpoints(count int)
	RecordNegativeBudgets(count int)
}

// Engine runs timing passes over one netlist snapshot. The three phases
// (linearize, forward, backward) are strictly sequential; per-net working
// records live only for the duration of one pass.
type Engine struct {
	nl  *netlist.Netlist
	dm  DelayModel
	log logging.Logger
	rec PassRecorder

	tracer trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger to the engine.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetricsRecorder attaches a pass recorder (e.g. the Prometheus
// collector) to the engine.
func WithMetricsRecorder(rec PassRecorder) Option {
	return func(e *Engine) { e.rec = rec }
}

// New creates an engine over a netlist and a delay model.
func New(nl *netlist.Netlist, dm DelayModel, opts ...Option) *Engine {
	e := &Engine{
		nl:     nl,
		dm:     dm,
		log:    logging.Noop(),
		tracer: otel.Tracer("github.com/gatefoundry/fpga-timing/core"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BudgetParams controls one budgeting pass.
type BudgetParams struct {
	// Period is the target clock period.
	Period model.Delay
	// RoutingIter counts completed routing iterations. Until routing has
	// run at least once, route delays carry no information and are treated
	// as zero; cell and clock-to-output delays alone shape the budgets.
	RoutingIter int
	// AutoFreq indicates the target frequency is being searched rather than
	// user-fixed, so negative budgets are informative, not a violation.
	AutoFreq bool
}

// BudgetOutcome summarizes a budgeting pass.
type BudgetOutcome struct {
	MinSlack model.Delay
	// NextPeriod is the achieved period, Period − MinSlack. An
	// auto-frequency driver feeds it into the next iteration.
	NextPeriod      model.Delay
	NegativeBudgets int
	Checksum        uint32
}

// AssignBudgets runs budgeting mode: every sink budget is reset to the
// loosest value and then tightened to the maximum delay the connection may
// consume while every path through it still meets Period.
func (e *Engine) AssignBudgets(ctx context.Context, p BudgetParams) (*BudgetOutcome, error) {
	ctx, pid := logging.EnsurePassID(ctx)
	log := e.log.With(logging.String("pass_id", pid), logging.String("mode", "budget"))

	log.Info(ctx, "annotating connections with timing budgets",
		logging.Float64("target_mhz", model.MHzFromPeriod(p.Period)),
		logging.Int("routing_iter", p.RoutingIter))

	e.nl.ResetBudgets()

	start := time.Now()
	netDelays := p.RoutingIter > 0
	order, _, res, err := e.runPasses(ctx, p.Period, netDelays, true, false, nil)
	if err != nil {
		return nil, err
	}

	negative := e.checkBudgets(ctx, log, p.AutoFreq)

	if e.rec != nil {
		e.rec.RecordPass("budget", time.Since(start), len(order))
		e.rec.RecordMinSlack(int64(res.minSlack))
		e.rec.RecordEndpoints(res.endpoints)
		e.rec.RecordNegativeBudgets(negative)
	}

	checksum := e.nl.Checksum()
	log.Info(ctx, "budget pass complete",
		logging.Int("nets_ordered", len(order)),
		logging.Float64("min_slack_ns", res.minSlack.Nanoseconds()),
		logging.Any("checksum", checksum))

	return &BudgetOutcome{
		MinSlack:        res.minSlack,
		NextPeriod:      p.Period - res.minSlack,
		NegativeBudgets: negative,
		Checksum:        checksum,
	}, nil
}

// AnalyzeParams controls one analysis pass.
type AnalyzeParams struct {
	Period model.Delay
	// CapturePath enables critical-path back-pointer recording and
	// reconstruction.
	CapturePath bool
	// HistogramBins, when positive, requests a slack histogram with that
	// many equal-width bins.
	HistogramBins int
}

// Analyze runs analysis mode: a read-only pass over the netlist with realized
// route delays, producing the achieved-frequency report.
func (e *Engine) Analyze(ctx context.Context, p AnalyzeParams) (*Report, error) {
	ctx, pid := logging.EnsurePassID(ctx)
	log := e.log.With(logging.String("pass_id", pid), logging.String("mode", "analyze"))

	var samples map[int]uint
	if p.HistogramBins > 0 {
		samples = make(map[int]uint)
	}

	start := time.Now()
	order, states, res, err := e.runPasses(ctx, p.Period, true, false, p.CapturePath, samples)
	if err != nil {
		return nil, err
	}

	if e.rec != nil {
		e.rec.RecordPass("analyze", time.Since(start), len(order))
		e.rec.RecordMinSlack(int64(res.minSlack))
		e.rec.RecordEndpoints(res.endpoints)
	}

	report := &Report{
		Period:   p.Period,
		MinSlack: res.minSlack,
		FmaxMHz:  achievedMHz(p.Period, res.minSlack),
	}
	if p.CapturePath {
		report.Path = e.reconstructPath(states, res)
	}
	if samples != nil {
		report.Histogram = NewHistogram(samples, p.HistogramBins)
	}

	log.Info(ctx, "analysis complete",
		logging.Int("nets_ordered", len(order)),
		logging.Int("endpoints", res.endpoints),
		logging.Float64("min_slack_ns", res.minSlack.Nanoseconds()),
		logging.Float64("fmax_mhz", report.FmaxMHz))

	return report, nil
}

// runPasses executes linearize → forward → backward over one snapshot.
func (e *Engine) runPasses(
	ctx context.Context,
	period model.Delay,
	netDelays, update, capturePath bool,
	histogram map[int]uint,
) ([]*model.Net, map[*model.Net]*netState, backwardResult, error) {
	ctx, span := e.tracer.Start(ctx, "timing.linearize")
	order, states, err := e.linearize()
	span.SetAttributes(attribute.Int("timing.nets_ordered", len(order)))
	span.End()
	if err != nil {
		e.log.Error(ctx, "linearization failed", logging.String("error", err.Error()))
		return nil, nil, backwardResult{}, err
	}

	_, span = e.tracer.Start(ctx, "timing.forward")
	e.forward(order, states, netDelays, capturePath)
	span.End()

	_, span = e.tracer.Start(ctx, "timing.backward")
	res := e.backward(order, states, period, netDelays, update, histogram)
	span.SetAttributes(
		attribute.Int("timing.endpoints", res.endpoints),
		attribute.Int64("timing.min_slack_ps", int64(res.minSlack)),
	)
	span.End()

	return order, states, res, nil
}

// checkBudgets logs every assigned budget at debug level and counts the
// negative ones. Negative budgets are warnings only when the frequency was
// user-fixed; in auto-frequency mode they feed the next period adjustment.
func (e *Engine) checkBudgets(ctx context.Context, log logging.Logger, autoFreq bool) int {
	negative := 0
	for _, net := range e.nl.Nets() {
		for _, usr := range net.Users {
			if usr.Budget < 0 {
				negative++
				if !autoFreq {
					log.Warn(ctx, "negative timing budget",
						logging.String("cell", usr.Cell.Name),
						logging.String("port", usr.Port),
						logging.String("net", net.Name),
						logging.Float64("budget_ns", usr.Budget.Nanoseconds()))
				}
				continue
			}
			log.Debug(ctx, "timing budget",
				logging.String("cell", usr.Cell.Name),
				logging.String("port", usr.Port),
				logging.String("net", net.Name),
				logging.Float64("budget_ns", usr.Budget.Nanoseconds()))
		}
	}
	return negative
}

// achievedMHz derives the frequency estimate from how much of the period the
// worst path left unused.
func achievedMHz(period, minSlack model.Delay) float64 {
	return model.MHzFromPeriod(period - minSlack)
}
