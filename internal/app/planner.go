// Package app provides the planning service that wires the scheduler,
// allocator, critical-path finder and risk optimizer into one synchronous
// run over a project definition.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"girder/internal/domain/allocate"
	"girder/internal/domain/critpath"
	"girder/internal/domain/plan"
	"girder/internal/domain/risk"
	"girder/internal/domain/schedule"
	"girder/internal/project"
	"girder/pkg/logger"
)

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithMaxTasksPerResource caps concurrent assignments per resource.
func WithMaxTasksPerResource(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxTasks = n
		}
	}
}

// WithHoursPerSurplus sets the duration-adjustment factor in hours per
// aggregate surplus point.
func WithHoursPerSurplus(h float64) Option {
	return func(p *Planner) {
		if h > 0 {
			p.hoursPerSurplus = h
		}
	}
}

// WithHoursPerDay sets the working-day length.
func WithHoursPerDay(h int) Option {
	return func(p *Planner) {
		if h > 0 {
			p.hoursPerDay = h
		}
	}
}

// WithTimeValuePerDay sets the currency value of one avoided delay day.
func WithTimeValuePerDay(v float64) Option {
	return func(p *Planner) {
		if v > 0 {
			p.timeValuePerDay = v
		}
	}
}

// WithMitigationBudget caps total mitigation spend. Zero means
// unconstrained.
func WithMitigationBudget(b float64) Option {
	return func(p *Planner) {
		if b > 0 {
			p.mitigationBudget = b
		}
	}
}

// WithLogger sets a custom logger for the planner.
func WithLogger(lg logger.Logger) Option {
	return func(p *Planner) {
		if lg != nil {
			p.logger = lg
		}
	}
}

// Planner runs the full planning pipeline. It is single-threaded and runs
// to completion; the only loop-back in control flow is the allocator
// re-invoking the scheduler after a duration adjustment.
type Planner struct {
	maxTasks         int
	hoursPerSurplus  float64
	hoursPerDay      int
	timeValuePerDay  float64
	mitigationBudget float64
	logger           logger.Logger
	now              func() time.Time
}

// New creates a Planner with default engine parameters.
func New(opts ...Option) *Planner {
	p := &Planner{
		maxTasks:        6,
		hoursPerSurplus: 2,
		hoursPerDay:     8,
		timeValuePerDay: 1000,
		logger:          logger.Named("planner"),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan runs scheduling, allocation, the critical-path pass and risk
// optimization over the definition and assembles the read-only result
// bundle. The definition's activities and resources are mutated in place
// (assignments, adjusted durations, accumulated costs); pass a freshly
// loaded definition per run. Degraded conditions (unscheduled activities,
// fallback allocations, absent mitigation strategy) are reported in the
// result, never raised as errors.
func (p *Planner) Plan(ctx context.Context, def *project.Definition) *plan.Result {
	started := p.now()
	p.logger.Info(ctx, "planning started",
		logger.String("project", def.Name),
		logger.Int("activities", len(def.Activities)),
		logger.Int("resources", len(def.Resources)),
		logger.Int("risks", len(def.Risks)),
	)

	sched := schedule.New(def.Start, schedule.WithLogger(p.logger.Named("schedule")))
	alloc := allocate.New(
		allocate.WithMaxTasksPerResource(p.maxTasks),
		allocate.WithHoursPerSurplus(p.hoursPerSurplus),
		allocate.WithHoursPerDay(p.hoursPerDay),
		allocate.WithLogger(p.logger.Named("allocate")),
	)
	outcome := alloc.Run(ctx, sched, def.Activities, def.Resources)

	critical := critpath.Find(def.Activities, outcome.Schedule)

	optimizer := risk.New(
		risk.WithTimeValuePerDay(p.timeValuePerDay),
		risk.WithBudget(p.mitigationBudget),
		risk.WithLogger(p.logger.Named("risk")),
	)
	analysis := plan.RiskAnalysis{
		WorstCase:     risk.WorstCase(def.Risks),
		ExpectedValue: risk.ExpectedValue(def.Risks),
	}
	analysis.Strategy = optimizer.Optimize(ctx, def.Risks)
	analysis.Residual = risk.Residual(def.Risks)

	result := &plan.Result{
		RunID:       uuid.New().String(),
		ProjectName: def.Name,
		GeneratedAt: started,

		Schedule:     outcome.Schedule,
		Completion:   outcome.Completion,
		Unscheduled:  outcome.Schedule.Unscheduled(),
		CriticalPath: critical,

		Allocations:   outcome.Allocations,
		Utilization:   outcome.Utilization,
		ActivityCosts: outcome.ActivityCosts,
		ResourcesUsed: outcome.ResourcesUsed,
		Activities:    len(def.Activities),

		EstimatedCost: outcome.TotalCost,
		CoreTeamCost:  outcome.CoreTeamCost,

		Deadline: def.Deadline,
		Risks:    analysis,
	}

	result.TotalCost = result.EstimatedCost
	if analysis.Strategy != nil {
		result.TotalCost += analysis.Strategy.TotalCost
	}

	result.BudgetLimit = def.BudgetWithReserve()
	result.BudgetStatus = plan.StatusWithinBudget
	if result.TotalCost > result.BudgetLimit {
		result.BudgetStatus = plan.StatusOverBudget
	}

	result.TimelineStatus = plan.StatusOnTrack
	if !outcome.Completion.IsZero() {
		result.BufferDays = int(def.Deadline.Sub(outcome.Completion).Hours() / 24)
		if outcome.Completion.After(def.Deadline) {
			result.TimelineStatus = plan.StatusDelayed
		}
	}

	p.logger.Info(ctx, "planning finished",
		logger.String("run_id", result.RunID),
		logger.Float64("total_cost", result.TotalCost),
		logger.String("budget_status", result.BudgetStatus),
		logger.String("timeline_status", result.TimelineStatus),
		logger.Int("critical_activities", len(result.CriticalPath)),
		logger.Int("unscheduled", len(result.Unscheduled)),
	)
	return result
}
