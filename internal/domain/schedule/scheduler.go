// Package schedule computes activity start and end dates with a forward pass
// over the dependency graph, respecting a five-day work week.
package schedule

import (
	"context"
	"sort"
	"time"

	"girder/internal/domain/model"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

// Span holds the computed dates for one activity. Days snapshots the
// duration the span was computed from, which the critical-path pass needs
// after later duration adjustments. An activity whose predecessors never
// resolved keeps a zero Start.
type Span struct {
	Start time.Time
	End   time.Time
	Days  int
}

// Scheduled reports whether the span carries real dates.
func (s Span) Scheduled() bool {
	return !s.Start.IsZero()
}

// Schedule maps activity id to its computed span.
type Schedule map[int]Span

// Completion returns the latest end date over all scheduled activities.
// ok is false when nothing was scheduled.
func (s Schedule) Completion() (time.Time, bool) {
	var end time.Time
	for _, span := range s {
		if span.Scheduled() && span.End.After(end) {
			end = span.End
		}
	}
	return end, !end.IsZero()
}

// Unscheduled returns the sorted ids of activities left without dates.
func (s Schedule) Unscheduled() []int {
	var ids []int
	for id, span := range s {
		if !span.Scheduled() {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger for the scheduler.
func WithLogger(lg logger.Logger) Option {
	return func(s *Scheduler) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// Scheduler performs the forward pass from a fixed project start date.
// It is re-entrant: Compute fully overwrites its result on every call, so
// it can be re-run after the allocator adjusts durations.
type Scheduler struct {
	start  time.Time
	logger logger.Logger
}

// New creates a Scheduler anchored at the given project start date.
func New(projectStart time.Time, opts ...Option) *Scheduler {
	s := &Scheduler{
		start:  projectStart,
		logger: logger.Named("schedule"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start returns the project start date the scheduler is anchored at.
func (s *Scheduler) Start() time.Time {
	return s.start
}

// Compute derives a span for every activity: the start is the latest end
// among its predecessors (the project start when it has none), pushed to the
// next weekday, and the end lies the activity's duration in working days
// further on. Activities are visited in ascending id order; the pass repeats
// until a sweep makes no progress or the iteration cap of twice the activity
// count is hit. A dependency cycle or a reference to a missing predecessor
// therefore leaves the affected activities unscheduled rather than failing
// the run; callers should report them via Schedule.Unscheduled.
func (s *Scheduler) Compute(ctx context.Context, activities []*model.Activity) Schedule {
	ordered := make([]*model.Activity, len(activities))
	copy(ordered, activities)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	sched := make(Schedule, len(ordered))
	for _, a := range ordered {
		sched[a.ID] = Span{Days: a.DurationDays}
	}

	maxIterations := len(ordered) * 2
	for iteration := 0; iteration < maxIterations; iteration++ {
		progress := false
		for _, a := range ordered {
			if sched[a.ID].Scheduled() {
				continue
			}
			start, ok := s.earliestStart(sched, a)
			if !ok {
				continue
			}
			start = NextWorkingDay(start)
			sched[a.ID] = Span{
				Start: start,
				End:   AddWorkingDays(start, a.DurationDays),
				Days:  a.DurationDays,
			}
			progress = true
		}
		if !progress {
			break
		}
	}

	if unresolved := sched.Unscheduled(); len(unresolved) > 0 {
		metrics.RecordActivitiesUnscheduled(len(unresolved))
		s.logger.Warn(ctx, "activities left unscheduled; dependency cycle or missing predecessor",
			logger.Any("activity_ids", unresolved),
		)
	}
	metrics.RecordActivitiesScheduled(len(ordered) - len(sched.Unscheduled()))
	return sched
}

// earliestStart returns the latest predecessor end, or the project start for
// an activity without predecessors. ok is false while any predecessor is
// still unresolved or unknown.
func (s *Scheduler) earliestStart(sched Schedule, a *model.Activity) (time.Time, bool) {
	start := s.start
	for _, pred := range a.Predecessors {
		span, known := sched[pred]
		if !known || !span.Scheduled() {
			return time.Time{}, false
		}
		if span.End.After(start) {
			start = span.End
		}
	}
	return start, true
}
