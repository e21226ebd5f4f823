// Package plan defines the read-only result bundle a planning run produces.
// It is the sole contract between the engine and downstream consumers such
// as the workbook exporter, the interchange XML exporter and the narrative
// generator; nothing in here feeds back into the engine.
package plan

import (
	"time"

	"girder/internal/domain/risk"
	"girder/internal/domain/schedule"
)

// Budget/timeline compliance statuses.
const (
	StatusWithinBudget = "within budget"
	StatusOverBudget   = "over budget"
	StatusOnTrack      = "on track"
	StatusDelayed      = "delayed"
)

// Utilization summarizes one resource's load after allocation.
type Utilization struct {
	Hours float64
	Cost  float64
	Tasks int
}

// RiskAnalysis bundles the optimizer output with the static scenarios.
type RiskAnalysis struct {
	WorstCase     risk.Scenario
	ExpectedValue risk.Scenario
	Strategy      *risk.Strategy // nil when no feasible combination exists
	Residual      risk.Scenario
}

// Result is the complete output of one planning run.
type Result struct {
	RunID       string
	ProjectName string
	GeneratedAt time.Time

	// Scheduling
	Schedule     schedule.Schedule
	Completion   time.Time
	Unscheduled  []int
	CriticalPath []int

	// Allocation
	Allocations   map[int][]string // activity id -> assigned resource names, in rank order
	Utilization   map[string]Utilization
	ActivityCosts map[int]float64
	ResourcesUsed int
	Activities    int

	// Costs
	EstimatedCost float64 // activity costs plus core-team span billing
	CoreTeamCost  float64
	TotalCost     float64 // estimated cost plus selected mitigation cost

	// Compliance against the project definition
	BudgetLimit    float64 // budget including management reserve
	BudgetStatus   string
	Deadline       time.Time
	TimelineStatus string
	BufferDays     int // positive: days of slack before the deadline; negative: days late

	// Risks
	Risks RiskAnalysis
}
