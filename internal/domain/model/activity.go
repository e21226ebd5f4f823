// Package model contains the project planning entities passed between layers:
// activities, resources and risks. The types are plain data holders with
// small query methods; all heavier logic lives in the schedule, allocate,
// critpath and risk packages.
package model

// Activity is a unit of project work with dependency and skill constraints.
// DurationDays and Assigned are mutated in place during a planning run:
// the allocator may revise the duration downward (never below one day and
// never below half the configured value) and records the assigned resource
// names.
type Activity struct {
	ID           int            `yaml:"id"`
	Name         string         `yaml:"name"`
	DurationDays int            `yaml:"duration_days"`
	People       int            `yaml:"people"`
	Predecessors []int          `yaml:"predecessors"`
	Skills       map[string]int `yaml:"skills"` // required level per skill, 0 means not required

	// Set by the engine during a run.
	Assigned []string `yaml:"-"`
}

// TotalHours returns the baseline effort of the activity in person-hours
// for the given working-day length.
func (a *Activity) TotalHours(hoursPerDay int) float64 {
	return float64(a.People) * float64(a.DurationDays) * float64(hoursPerDay)
}

// RequiredSkills returns the subset of Skills with a nonzero required level.
func (a *Activity) RequiredSkills() map[string]int {
	req := make(map[string]int, len(a.Skills))
	for skill, level := range a.Skills {
		if level > 0 {
			req[skill] = level
		}
	}
	return req
}
