package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"girder/internal/adapters/biblio"
	"girder/internal/adapters/export/msproject"
	"girder/internal/adapters/export/workbook"
	"girder/internal/adapters/narrative"
	app "girder/internal/app"
	"girder/internal/config"
	"girder/internal/domain/plan"
	"girder/internal/project"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

// Artifact file names written under the output directory.
const (
	projectXMLFile = "project.xml"
	rosterFile     = "resources.xlsx"
	planFile       = "plan.xlsx"
	summaryFile    = "summary.txt"
	outputDirPerm  = 0o755
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	def, err := loadDefinition(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load project definition", logger.Error(err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutputDir, outputDirPerm); err != nil {
		loggerInstance.Error(ctx, "failed to create output directory", logger.Error(err))
		os.Exit(1)
	}

	planner := app.New(
		app.WithLogger(loggerInstance),
		app.WithMaxTasksPerResource(cfg.MaxTasksPerResource),
		app.WithHoursPerSurplus(cfg.HoursPerSurplus),
		app.WithHoursPerDay(cfg.HoursPerDay),
		app.WithTimeValuePerDay(cfg.TimeValuePerDay),
		app.WithMitigationBudget(cfg.MitigationBudget),
	)
	result := planner.Plan(ctx, def)

	renderConsole(os.Stdout, def, result)

	failures := 0

	xml := msproject.New(msproject.WithLogger(loggerInstance))
	if err := xml.Write(ctx, def, result, filepath.Join(cfg.OutputDir, projectXMLFile)); err != nil {
		loggerInstance.Error(ctx, "interchange XML export failed", logger.Error(err))
		failures++
	}

	books := workbook.New(workbook.WithLogger(loggerInstance))
	if err := books.WriteRoster(ctx, def, filepath.Join(cfg.OutputDir, rosterFile)); err != nil {
		loggerInstance.Error(ctx, "roster export failed", logger.Error(err))
		failures++
	}
	if err := books.WritePlan(ctx, def, result, filepath.Join(cfg.OutputDir, planFile)); err != nil {
		loggerInstance.Error(ctx, "plan export failed", logger.Error(err))
		failures++
	}

	report := buildReport(ctx, cfg, def, result, loggerInstance)
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, summaryFile), []byte(report), 0o644); err != nil {
		loggerInstance.Error(ctx, "summary export failed", logger.Error(err))
		failures++
	}

	if err := metrics.Snapshot(filepath.Join(cfg.OutputDir, cfg.MetricsSnapshot)); err != nil {
		loggerInstance.Warn(ctx, "metrics snapshot failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "planning run finished",
		logger.String("run_id", result.RunID),
		logger.String("output_dir", cfg.OutputDir),
		logger.Int("failed_exports", failures),
	)
	if failures > 0 {
		os.Exit(1)
	}
}

// loadDefinition picks the configured project file or falls back to the
// built-in project.
func loadDefinition(cfg *config.Config) (*project.Definition, error) {
	if cfg.ProjectFile == "" {
		return project.Default()
	}
	return project.Load(cfg.ProjectFile)
}

// buildReport assembles the text summary, including generated prose and a
// bibliography when those integrations are enabled.
func buildReport(ctx context.Context, cfg *config.Config, def *project.Definition, result *plan.Result, lg logger.Logger) string {
	var prose, conclusions string
	if cfg.NarrativeEnabled {
		client := narrative.New(
			narrative.WithBaseURL(cfg.NarrativeBaseURL),
			narrative.WithModel(cfg.NarrativeModel),
			narrative.WithAPIKey(cfg.NarrativeAPIKey),
			narrative.WithLogger(lg),
		)
		prose = client.ExecutiveSummary(ctx, def, result)
		conclusions = client.Conclusions(ctx, def, result)
		usage := client.Usage()
		lg.Info(ctx, "narrative generated",
			logger.Int("requests", usage.Requests),
			logger.Int("input_tokens", usage.InputTokens),
			logger.Int("output_tokens", usage.OutputTokens),
		)
	}

	var refs []biblio.Reference
	if cfg.BiblioEnabled {
		client := biblio.New(
			biblio.WithBaseURL(cfg.BiblioBaseURL),
			biblio.WithRows(cfg.BiblioRows),
			biblio.WithLogger(lg),
		)
		refs = client.Gather(ctx, []string{
			"project scheduling resource allocation",
			"critical path method construction",
			"risk mitigation portfolio optimization",
		})
	}

	return renderSummary(def, result, prose, conclusions, refs)
}
