// Package critpath identifies zero-slack activities with a backward pass
// over the final schedule.
package critpath

import (
	"sort"
	"time"

	"girder/internal/domain/model"
	"girder/internal/domain/schedule"
)

// slackTolerance absorbs the rounding that weekend skipping introduces when
// comparing earliest and latest starts.
const slackTolerance = 24 * time.Hour

// Find returns the sorted ids of activities on the critical path. An
// activity is critical when its earliest start equals its latest start
// within one day. Latest finishes propagate backward: an activity's latest
// finish is the minimum over its successors of (successor latest finish -
// successor duration), and the project completion date for activities with
// no successors. Unscheduled activities are skipped.
func Find(activities []*model.Activity, sched schedule.Schedule) []int {
	projectEnd, ok := sched.Completion()
	if !ok {
		return nil
	}

	ordered := make([]*model.Activity, len(activities))
	copy(ordered, activities)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID > ordered[j].ID })

	successors := make(map[int][]*model.Activity, len(ordered))
	for _, a := range ordered {
		for _, pred := range a.Predecessors {
			successors[pred] = append(successors[pred], a)
		}
	}

	latestFinish := make(map[int]time.Time, len(ordered))
	for _, a := range ordered {
		latestFinish[a.ID] = projectEnd
	}
	for _, a := range ordered {
		succs := successors[a.ID]
		if len(succs) == 0 {
			continue
		}
		var minStart time.Time
		for _, s := range succs {
			start := latestFinish[s.ID].AddDate(0, 0, -sched[s.ID].Days)
			if minStart.IsZero() || start.Before(minStart) {
				minStart = start
			}
		}
		latestFinish[a.ID] = minStart
	}

	var critical []int
	for _, a := range ordered {
		span := sched[a.ID]
		if !span.Scheduled() {
			continue
		}
		latestStart := latestFinish[a.ID].AddDate(0, 0, -span.Days)
		slack := span.Start.Sub(latestStart)
		if slack < 0 {
			slack = -slack
		}
		if slack <= slackTolerance {
			critical = append(critical, a.ID)
		}
	}
	sort.Ints(critical)
	return critical
}
