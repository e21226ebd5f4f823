// Package allocate assigns named resources to activities by skill match and
// cost, revises activity durations from the aggregate skill surplus of the
// assigned team, and accounts activity and core-team costs.
package allocate

import (
	"context"
	"sort"
	"time"

	"girder/internal/domain/model"
	"girder/internal/domain/plan"
	"girder/internal/domain/schedule"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

// Default allocation parameters.
const (
	defaultMaxTasksPerResource = 6
	defaultHoursPerSurplus     = 2.0 // hours shaved per aggregate surplus point
	defaultHoursPerDay         = 8
	// Duration adjustment never cuts below this share of baseline effort.
	minEffortShare = 0.5
)

// Outcome carries everything one allocation pass produces.
type Outcome struct {
	Allocations   map[int][]string
	Schedule      schedule.Schedule
	ActivityCosts map[int]float64
	Utilization   map[string]plan.Utilization
	TotalCost     float64
	CoreTeamCost  float64
	Completion    time.Time
	ResourcesUsed int

	start time.Time // project start, for week derivation
}

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithMaxTasksPerResource caps how many activities one resource can hold.
func WithMaxTasksPerResource(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxTasks = n
		}
	}
}

// WithHoursPerSurplus sets the hours shaved per aggregate skill surplus point.
func WithHoursPerSurplus(h float64) Option {
	return func(a *Allocator) {
		if h > 0 {
			a.hoursPerSurplus = h
		}
	}
}

// WithHoursPerDay sets the working-day length used for effort conversions.
func WithHoursPerDay(h int) Option {
	return func(a *Allocator) {
		if h > 0 {
			a.hoursPerDay = h
		}
	}
}

// WithLogger sets a custom logger for the allocator.
func WithLogger(lg logger.Logger) Option {
	return func(a *Allocator) {
		if lg != nil {
			a.logger = lg
		}
	}
}

// Allocator runs the greedy skill-based assignment pass. It mutates the
// activities (assigned names, possibly duration) and the resource pool
// (task lists, accumulated hours and cost) in place; the engine is
// single-threaded, so no locking is involved.
type Allocator struct {
	maxTasks        int
	hoursPerSurplus float64
	hoursPerDay     int
	logger          logger.Logger
}

// New creates an Allocator with default parameters.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		maxTasks:        defaultMaxTasksPerResource,
		hoursPerSurplus: defaultHoursPerSurplus,
		hoursPerDay:     defaultHoursPerDay,
		logger:          logger.Named("allocate"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type candidate struct {
	resource *model.Resource
	surplus  int
}

// Run schedules the activities, assigns resources to each in ascending id
// order, adjusts durations from skill surplus (re-running the scheduler when
// a duration changes, since every downstream activity can shift), and then
// computes costs. The duration of any given activity is adjusted at most
// once, which bounds the schedule feedback loop.
func (a *Allocator) Run(ctx context.Context, sched *schedule.Scheduler, activities []*model.Activity, pool []*model.Resource) *Outcome {
	out := &Outcome{
		Allocations:   make(map[int][]string, len(activities)),
		ActivityCosts: make(map[int]float64, len(activities)),
		Utilization:   make(map[string]plan.Utilization, len(pool)),
		start:         sched.Start(),
	}
	out.Schedule = sched.Compute(ctx, activities)

	ordered := make([]*model.Activity, len(activities))
	copy(ordered, activities)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, activity := range ordered {
		assigned := a.assign(ctx, activity, out, pool)
		if len(assigned) == 0 {
			continue
		}
		if adjusted := a.adjustDuration(activity, assigned); adjusted != activity.DurationDays {
			a.logger.Info(ctx, "activity duration adjusted",
				logger.Int("activity_id", activity.ID),
				logger.Int("from_days", activity.DurationDays),
				logger.Int("to_days", adjusted),
			)
			activity.DurationDays = adjusted
			metrics.RecordDurationAdjustment()
			// Duration changes can shift every downstream activity.
			out.Schedule = sched.Compute(ctx, activities)
			metrics.RecordScheduleRecompute()
		}
	}

	a.settleCosts(sched, activities, pool, out)
	return out
}

// assign picks resources for one activity: qualified candidates ranked by
// surplus descending then hourly cost ascending, or the pool-order fallback
// when nobody qualifies. Returns the skill-matched resources only; fallback
// assignments are recorded but never trigger a duration adjustment.
func (a *Allocator) assign(ctx context.Context, activity *model.Activity, out *Outcome, pool []*model.Resource) []*model.Resource {
	week := a.activityWeek(out, activity)

	var candidates []candidate
	for _, r := range pool {
		metrics.RecordCandidatesEvaluated(1)
		if !r.AvailableInWeek(week) || !r.CanTakeTask(a.maxTasks) {
			continue
		}
		if ok, surplus := r.MatchSkills(activity.Skills); ok {
			candidates = append(candidates, candidate{resource: r, surplus: surplus})
		}
	}

	if len(candidates) == 0 {
		a.fallback(ctx, activity, out, pool, week)
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].surplus != candidates[j].surplus {
			return candidates[i].surplus > candidates[j].surplus
		}
		return candidates[i].resource.CostPerHour < candidates[j].resource.CostPerHour
	})

	n := activity.People
	if n > len(candidates) {
		n = len(candidates)
	}
	assigned := make([]*model.Resource, 0, n)
	for _, c := range candidates[:n] {
		c.resource.AssignedTasks = append(c.resource.AssignedTasks, activity.ID)
		activity.Assigned = append(activity.Assigned, c.resource.Name)
		assigned = append(assigned, c.resource)
	}
	out.Allocations[activity.ID] = append([]string(nil), activity.Assigned...)
	return assigned
}

// fallback assigns the first available, non-overloaded resources in pool
// order regardless of skill match. A degraded allocation, never fatal.
func (a *Allocator) fallback(ctx context.Context, activity *model.Activity, out *Outcome, pool []*model.Resource, week int) {
	a.logger.Warn(ctx, "no skill-qualified resource available; falling back to availability only",
		logger.Int("activity_id", activity.ID),
		logger.String("activity", activity.Name),
		logger.Int("week", week),
	)
	metrics.RecordFallbackAllocation()

	for _, r := range pool {
		if len(activity.Assigned) >= activity.People {
			break
		}
		if r.AvailableInWeek(week) && r.CanTakeTask(a.maxTasks) {
			r.AssignedTasks = append(r.AssignedTasks, activity.ID)
			activity.Assigned = append(activity.Assigned, r.Name)
		}
	}
	if len(activity.Assigned) > 0 {
		out.Allocations[activity.ID] = append([]string(nil), activity.Assigned...)
	}
}

// activityWeek derives the 1-based project week the activity starts in,
// defaulting to week 1 while it is unscheduled.
func (a *Allocator) activityWeek(out *Outcome, activity *model.Activity) int {
	span := out.Schedule[activity.ID]
	if !span.Scheduled() {
		return 1
	}
	return schedule.WeekOf(out.start, span.Start)
}

// adjustDuration revises the activity duration from the aggregate skill
// surplus of the assigned team: surplus points convert to hours shaved off
// the baseline effort (deficits add hours back), floored at half the
// baseline. The result is clamped to at least one day and never exceeds the
// duration the activity already had.
func (a *Allocator) adjustDuration(activity *model.Activity, assigned []*model.Resource) int {
	totalSurplus := 0
	for _, r := range assigned {
		for skill, required := range activity.Skills {
			if required <= 0 {
				continue
			}
			totalSurplus += r.Skills[skill] - required
		}
	}

	baseHours := activity.TotalHours(a.hoursPerDay)
	adjustedHours := baseHours - a.hoursPerSurplus*float64(totalSurplus)
	if floor := baseHours * minEffortShare; adjustedHours < floor {
		adjustedHours = floor
	}

	days := int(adjustedHours/(float64(activity.People)*float64(a.hoursPerDay)) + 0.5)
	if days < 1 {
		days = 1
	}
	if days > activity.DurationDays {
		days = activity.DurationDays
	}
	return days
}

// settleCosts computes per-activity costs, per-resource utilization and the
// core-team span billing. Hours are split evenly across the resources
// actually assigned to each activity; core-team members additionally bill
// their availability over every working day of the project, once each,
// independent of task assignment.
func (a *Allocator) settleCosts(sched *schedule.Scheduler, activities []*model.Activity, pool []*model.Resource, out *Outcome) {
	byName := make(map[string]*model.Resource, len(pool))
	for _, r := range pool {
		byName[r.Name] = r
	}

	for _, activity := range activities {
		assigned := out.Allocations[activity.ID]
		if len(assigned) == 0 {
			out.ActivityCosts[activity.ID] = 0
			continue
		}
		hoursEach := float64(activity.DurationDays*a.hoursPerDay) / float64(len(assigned))
		cost := 0.0
		for _, name := range assigned {
			r := byName[name]
			cost += r.CostPerHour * hoursEach
			r.TotalHours += hoursEach
			r.TotalCost += r.CostPerHour * hoursEach
		}
		out.ActivityCosts[activity.ID] = cost
		out.TotalCost += cost
	}

	completion, ok := out.Schedule.Completion()
	if ok {
		out.Completion = completion
		projectWorkingDays := schedule.CountWorkingDays(sched.Start(), completion)
		for _, r := range pool {
			if !r.CoreTeam {
				continue
			}
			hours := float64(projectWorkingDays*a.hoursPerDay) * r.Availability
			cost := hours * r.CostPerHour
			out.CoreTeamCost += cost
			r.TotalHours += hours
			r.TotalCost += cost
		}
		out.TotalCost += out.CoreTeamCost
	}

	for _, r := range pool {
		if len(r.AssignedTasks) > 0 || r.CoreTeam {
			out.ResourcesUsed++
		}
		if r.TotalHours > 0 {
			out.Utilization[r.Name] = plan.Utilization{
				Hours: r.TotalHours,
				Cost:  r.TotalCost,
				Tasks: len(r.AssignedTasks),
			}
		}
	}
}
