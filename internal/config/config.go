// Package config defines process configuration and loading hooks.
//
// Conventions:
// - Provide New() defaults and Load(ctx) layering file and env on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

// Config contains process configuration for one planning run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ProjectFile points at a YAML project definition. Empty selects the
	// built-in equipment-installation project.
	ProjectFile string `koanf:"project_file"`

	// OutputDir is where artifacts (XML, workbooks, summary, metrics
	// snapshot) are written.
	OutputDir string `koanf:"output_dir"`

	// MaxTasksPerResource caps concurrent assignments per resource.
	MaxTasksPerResource int `koanf:"max_tasks_per_resource"`

	// HoursPerSurplus converts aggregate skill surplus points into hours
	// shaved from an activity's baseline effort.
	HoursPerSurplus float64 `koanf:"hours_per_surplus"`

	// HoursPerDay is the working-day length for effort conversions.
	HoursPerDay int `koanf:"hours_per_day"`

	// TimeValuePerDay is the currency value of one avoided delay day when
	// scoring mitigations.
	TimeValuePerDay float64 `koanf:"time_value_per_day"`

	// MitigationBudget caps total mitigation spend. Zero means
	// unconstrained.
	MitigationBudget float64 `koanf:"mitigation_budget"`

	// NarrativeEnabled toggles the narrative generation step.
	NarrativeEnabled bool `koanf:"narrative_enabled"`

	// NarrativeBaseURL and NarrativeModel configure the chat-completions
	// endpoint used for report prose.
	NarrativeBaseURL string `koanf:"narrative_base_url"`
	NarrativeModel   string `koanf:"narrative_model"`

	// NarrativeAPIKey is the bearer token for the narrative endpoint.
	NarrativeAPIKey string `koanf:"narrative_api_key"`

	// BiblioEnabled toggles literature lookups for the report appendix.
	BiblioEnabled bool `koanf:"biblio_enabled"`

	// BiblioBaseURL configures the literature search endpoint.
	BiblioBaseURL string `koanf:"biblio_base_url"`

	// BiblioRows caps references fetched per planning topic.
	BiblioRows int `koanf:"biblio_rows"`

	// MetricsSnapshot is the metrics textfile name, written inside
	// OutputDir after a run.
	MetricsSnapshot string `koanf:"metrics_snapshot"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		OutputDir:           "output",
		MaxTasksPerResource: 6,
		HoursPerSurplus:     2,
		HoursPerDay:         8,
		TimeValuePerDay:     1000,
		MitigationBudget:    0,
		NarrativeEnabled:    false,
		NarrativeBaseURL:    "https://api.openai.com",
		NarrativeModel:      "gpt-4o-mini",
		BiblioEnabled:       false,
		BiblioBaseURL:       "https://api.crossref.org",
		BiblioRows:          3,
		MetricsSnapshot:     "metrics.prom",
	}
}
