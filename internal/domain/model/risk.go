package model

// MitigationOption is one way to respond to a risk. A zero-cost option with
// zero reductions acts as the "accept risk" null mitigation.
type MitigationOption struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Cost          float64 `yaml:"cost"`
	CostReduction float64 `yaml:"cost_reduction"`
	TimeReduction int     `yaml:"time_reduction"` // days
}

// Risk is a threat against a single activity with a menu of mitigation
// options. Selected is written once by the optimizer and read-only
// afterwards.
type Risk struct {
	ID             int                `yaml:"id"`
	Name           string             `yaml:"name"`
	ActivityID     int                `yaml:"activity_id"`
	Probability    float64            `yaml:"probability"` // in [0,1]
	CostImpact     float64            `yaml:"cost_impact"`
	TimeImpactDays int                `yaml:"time_impact_days"`
	Options        []MitigationOption `yaml:"options"`

	// Set by the optimizer.
	Selected *MitigationOption `yaml:"-"`
}

// ExpectedValue returns the probability-weighted monetary impact of the risk.
func (r *Risk) ExpectedValue() float64 {
	return r.Probability * r.CostImpact
}
