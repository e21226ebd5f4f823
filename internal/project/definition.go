// Package project loads and validates the project definition the engine
// plans: the activity network, the resource pool and the risk register,
// plus budget and calendar metadata. The definition is an explicit input
// so the engine can be run against arbitrary synthetic graphs; a complete
// equipment-installation project ships embedded as the default.
package project

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"girder/internal/domain/model"
)

//go:embed default.yaml
var defaultDefinition []byte

// dateLayout is the wire format for dates in definition files.
const dateLayout = "2006-01-02"

// Definition is one project to plan.
type Definition struct {
	Name           string
	Start          time.Time
	Deadline       time.Time
	Budget         float64
	ReserveFract   float64 // management reserve as a fraction of Budget
	PenaltyPerTerm float64 // contractual penalty per missed deadline
	Holidays       []time.Time

	Activities []*model.Activity
	Resources  []*model.Resource
	Risks      []*model.Risk
}

// BudgetWithReserve returns the budget cap including the management reserve.
func (d *Definition) BudgetWithReserve() float64 {
	return d.Budget * (1 + d.ReserveFract)
}

// document mirrors the YAML layout of a definition file.
type document struct {
	Name           string   `yaml:"name"`
	Start          string   `yaml:"start"`
	Deadline       string   `yaml:"deadline"`
	Budget         float64  `yaml:"budget"`
	ReserveFract   float64  `yaml:"reserve_fraction"`
	PenaltyPerTerm float64  `yaml:"penalty_per_delay"`
	Holidays       []string `yaml:"holidays"`

	Activities []*model.Activity `yaml:"activities"`
	Resources  []*model.Resource `yaml:"resources"`
	Risks      []*model.Risk     `yaml:"risks"`
}

// Default returns the embedded equipment-installation project.
func Default() (*Definition, error) {
	return parse(defaultDefinition)
}

// Load reads and validates a definition from a YAML file.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDefinition, err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Definition, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDefinition, err)
	}

	def := &Definition{
		Name:           doc.Name,
		Budget:         doc.Budget,
		ReserveFract:   doc.ReserveFract,
		PenaltyPerTerm: doc.PenaltyPerTerm,
		Activities:     doc.Activities,
		Resources:      doc.Resources,
		Risks:          doc.Risks,
	}

	var err error
	if def.Start, err = parseDate(doc.Start); err != nil {
		return nil, fmt.Errorf("%w: start: %w", ErrLoadDefinition, err)
	}
	if def.Deadline, err = parseDate(doc.Deadline); err != nil {
		return nil, fmt.Errorf("%w: deadline: %w", ErrLoadDefinition, err)
	}
	for _, h := range doc.Holidays {
		d, err := parseDate(h)
		if err != nil {
			return nil, fmt.Errorf("%w: holiday: %w", ErrLoadDefinition, err)
		}
		def.Holidays = append(def.Holidays, d)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// Validate checks referential integrity and value ranges. It does not check
// the dependency graph for cycles; the scheduler reports those as
// unscheduled activities rather than refusing the definition.
func (d *Definition) Validate() error {
	if len(d.Activities) == 0 {
		return fmt.Errorf("%w: no activities", ErrInvalidDefinition)
	}
	ids := make(map[int]bool, len(d.Activities))
	for _, a := range d.Activities {
		if a.ID <= 0 {
			return fmt.Errorf("%w: activity %q: id must be positive", ErrInvalidDefinition, a.Name)
		}
		if ids[a.ID] {
			return fmt.Errorf("%w: duplicate activity id %d", ErrInvalidDefinition, a.ID)
		}
		ids[a.ID] = true
		if a.DurationDays < 1 {
			return fmt.Errorf("%w: activity %d: duration must be at least one day", ErrInvalidDefinition, a.ID)
		}
		if a.People < 1 {
			return fmt.Errorf("%w: activity %d: headcount must be at least one", ErrInvalidDefinition, a.ID)
		}
	}
	for _, a := range d.Activities {
		for _, pred := range a.Predecessors {
			if !ids[pred] {
				return fmt.Errorf("%w: activity %d references unknown predecessor %d", ErrInvalidDefinition, a.ID, pred)
			}
		}
	}

	names := make(map[string]bool, len(d.Resources))
	for _, r := range d.Resources {
		if r.Name == "" {
			return fmt.Errorf("%w: resource with empty name", ErrInvalidDefinition)
		}
		if names[r.Name] {
			return fmt.Errorf("%w: duplicate resource name %q", ErrInvalidDefinition, r.Name)
		}
		names[r.Name] = true
		if r.Availability <= 0 || r.Availability > 1 {
			return fmt.Errorf("%w: resource %q: availability must be in (0,1]", ErrInvalidDefinition, r.Name)
		}
		if r.StartWeek < 1 {
			return fmt.Errorf("%w: resource %q: start week must be at least 1", ErrInvalidDefinition, r.Name)
		}
	}

	for _, r := range d.Risks {
		if r.Probability < 0 || r.Probability > 1 {
			return fmt.Errorf("%w: risk %d: probability must be in [0,1]", ErrInvalidDefinition, r.ID)
		}
		if !ids[r.ActivityID] {
			return fmt.Errorf("%w: risk %d references unknown activity %d", ErrInvalidDefinition, r.ID, r.ActivityID)
		}
		if len(r.Options) == 0 {
			return fmt.Errorf("%w: risk %d has no mitigation options", ErrInvalidDefinition, r.ID)
		}
	}
	return nil
}
