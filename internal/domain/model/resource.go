package model

// Resource is a named team member that can be assigned to activities.
// AssignedTasks, TotalHours and TotalCost are accumulated in place by the
// allocator during a run.
type Resource struct {
	Name          string         `yaml:"name"`
	CostPerHour   float64        `yaml:"cost_per_hour"`
	Availability  float64        `yaml:"availability"` // fraction in (0,1], models part-time work
	StartWeek     int            `yaml:"start_week"`   // first project week the resource can work
	VacationWeeks []int          `yaml:"vacation_weeks"`
	Skills        map[string]int `yaml:"skills"` // proficiency level per skill, 0 means absent
	CoreTeam      bool           `yaml:"core_team"`

	// Set by the engine during a run.
	AssignedTasks []int   `yaml:"-"`
	TotalHours    float64 `yaml:"-"`
	TotalCost     float64 `yaml:"-"`
}

// AvailableInWeek reports whether the resource can work in the given
// project week: the week must not precede the resource's start week and
// must not be a vacation week.
func (r *Resource) AvailableInWeek(week int) bool {
	if week < r.StartWeek {
		return false
	}
	for _, w := range r.VacationWeeks {
		if w == week {
			return false
		}
	}
	return true
}

// CanTakeTask reports whether the resource is below the concurrent-task cap.
func (r *Resource) CanTakeTask(maxTasks int) bool {
	return len(r.AssignedTasks) < maxTasks
}

// MatchSkills checks the resource against an activity's skill requirements.
// A resource missing any required skill entirely (level 0) is disqualified.
// For a qualifying resource the returned surplus sums level-minus-required
// over all required skills; per-skill deficits are not floored, so the total
// can be negative.
func (r *Resource) MatchSkills(requirements map[string]int) (bool, int) {
	surplus := 0
	for skill, required := range requirements {
		if required <= 0 {
			continue
		}
		level := r.Skills[skill]
		if level == 0 {
			return false, 0
		}
		surplus += level - required
	}
	return true, surplus
}
