// Package risk scores mitigation strategies for the project risk register.
// The optimizer walks the full Cartesian product of per-risk mitigation
// choices; that is exact and tractable only because each risk carries a
// handful of options. It is not a general solver and does not try to be.
package risk

import (
	"context"

	"girder/internal/domain/model"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

// defaultTimeValuePerDay converts a day of avoided delay into currency when
// scoring mitigation benefits.
const defaultTimeValuePerDay = 1000.0

// Selection records the option chosen for one risk.
type Selection struct {
	RiskID int
	Option model.MitigationOption
}

// Strategy is the winning mitigation combination.
type Strategy struct {
	Selections            []Selection
	TotalCost             float64
	ExpectedReduction     float64 // probability-weighted benefit in currency
	ExpectedTimeReduction float64 // probability-weighted days
	NetBenefit            float64
}

// Scenario is an aggregate cost/time impact view over the risk register.
type Scenario struct {
	Cost     float64
	TimeDays float64
}

// Option applies a configuration option to the Optimizer.
type Option func(*Optimizer)

// WithTimeValuePerDay sets the currency value of one avoided delay day.
func WithTimeValuePerDay(v float64) Option {
	return func(o *Optimizer) {
		if v > 0 {
			o.timeValuePerDay = v
		}
	}
}

// WithBudget caps the total mitigation spend. Zero means unconstrained.
func WithBudget(budget float64) Option {
	return func(o *Optimizer) {
		if budget > 0 {
			o.budget = budget
		}
	}
}

// WithLogger sets a custom logger for the optimizer.
func WithLogger(lg logger.Logger) Option {
	return func(o *Optimizer) {
		if lg != nil {
			o.logger = lg
		}
	}
}

// Optimizer selects one mitigation option per risk by exhaustive search.
type Optimizer struct {
	timeValuePerDay float64
	budget          float64
	logger          logger.Logger
}

// New creates an Optimizer with default scoring parameters.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		timeValuePerDay: defaultTimeValuePerDay,
		logger:          logger.Named("risk"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize evaluates every combination in the Cartesian product of per-risk
// mitigation options and returns the one with the strictly highest net
// benefit (expected probability-weighted reduction minus total option cost).
// Combinations over budget are skipped; ties keep the first combination seen,
// which is deterministic because options are walked in declaration order.
// The winning option is written onto each risk's Selected field. Returns nil
// when the risk list is empty or the budget excludes every combination;
// callers must handle the absent strategy.
func (o *Optimizer) Optimize(ctx context.Context, risks []*model.Risk) *Strategy {
	if len(risks) == 0 {
		return nil
	}

	total := 1
	for _, r := range risks {
		total *= len(r.Options)
	}
	o.logger.Info(ctx, "evaluating mitigation combinations", logger.Int("combinations", total))

	var best *Strategy
	evaluated, skipped := 0, 0

	indices := make([]int, len(risks))
	for {
		cost := 0.0
		for i, r := range risks {
			cost += r.Options[indices[i]].Cost
		}

		if o.budget > 0 && cost > o.budget {
			skipped++
		} else {
			evaluated++
			reduction, timeReduction := 0.0, 0.0
			for i, r := range risks {
				opt := r.Options[indices[i]]
				reduction += r.Probability * (opt.CostReduction + float64(opt.TimeReduction)*o.timeValuePerDay)
				timeReduction += r.Probability * float64(opt.TimeReduction)
			}
			net := reduction - cost
			if best == nil || net > best.NetBenefit {
				selections := make([]Selection, len(risks))
				for i, r := range risks {
					selections[i] = Selection{RiskID: r.ID, Option: r.Options[indices[i]]}
				}
				best = &Strategy{
					Selections:            selections,
					TotalCost:             cost,
					ExpectedReduction:     reduction,
					ExpectedTimeReduction: timeReduction,
					NetBenefit:            net,
				}
			}
		}

		if !advance(indices, risks) {
			break
		}
	}

	metrics.RecordCombinationsEvaluated(evaluated)
	metrics.RecordCombinationsSkipped(skipped)

	if best == nil {
		o.logger.Warn(ctx, "no feasible mitigation combination within budget",
			logger.Float64("budget", o.budget),
		)
		return nil
	}

	for i, r := range risks {
		opt := best.Selections[i].Option
		r.Selected = &opt
	}
	o.logger.Info(ctx, "mitigation strategy selected",
		logger.Float64("total_cost", best.TotalCost),
		logger.Float64("net_benefit", best.NetBenefit),
	)
	return best
}

// advance steps the per-risk option indices like an odometer. Returns false
// once the product is exhausted.
func advance(indices []int, risks []*model.Risk) bool {
	for i := len(indices) - 1; i >= 0; i-- {
		indices[i]++
		if indices[i] < len(risks[i].Options) {
			return true
		}
		indices[i] = 0
	}
	return false
}

// WorstCase sums raw impacts over all risks, ignoring probability.
func WorstCase(risks []*model.Risk) Scenario {
	var s Scenario
	for _, r := range risks {
		s.Cost += r.CostImpact
		s.TimeDays += float64(r.TimeImpactDays)
	}
	return s
}

// ExpectedValue sums probability-weighted impacts with no mitigation applied.
func ExpectedValue(risks []*model.Risk) Scenario {
	var s Scenario
	for _, r := range risks {
		s.Cost += r.ExpectedValue()
		s.TimeDays += r.Probability * float64(r.TimeImpactDays)
	}
	return s
}

// Residual sums probability-weighted impacts after the selected mitigation's
// reductions, floored at zero per risk. Risks without a selection keep their
// full expected impact.
func Residual(risks []*model.Risk) Scenario {
	var s Scenario
	for _, r := range risks {
		if r.Selected == nil {
			s.Cost += r.ExpectedValue()
			s.TimeDays += r.Probability * float64(r.TimeImpactDays)
			continue
		}
		s.Cost += r.Probability * max(0, r.CostImpact-r.Selected.CostReduction)
		s.TimeDays += r.Probability * max(0, float64(r.TimeImpactDays-r.Selected.TimeReduction))
	}
	return s
}
