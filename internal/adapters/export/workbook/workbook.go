// Package workbook writes spreadsheet artifacts for a finished plan: a
// resource roster workbook and an allocation workbook with the schedule,
// utilization, cost summary and risk register.
package workbook

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"girder/internal/domain/plan"
	"girder/internal/project"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithLogger sets a custom logger for the writer.
func WithLogger(lg logger.Logger) Option {
	return func(w *Writer) {
		if lg != nil {
			w.logger = lg
		}
	}
}

// Writer produces the xlsx artifacts.
type Writer struct {
	logger logger.Logger
}

// New creates a Writer.
func New(opts ...Option) *Writer {
	w := &Writer{logger: logger.Named("workbook")}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRoster writes the resource roster workbook at path.
func (w *Writer) WriteRoster(ctx context.Context, def *project.Definition, path string) error {
	started := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Resources"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename roster sheet: %w", err)
	}

	header := []string{"Name", "Cost/Hour", "Availability", "Start Week", "Vacation Weeks", "Skills", "Core Team"}
	if err := w.writeHeader(f, sheet, header); err != nil {
		return err
	}

	for i, r := range def.Resources {
		row := i + 2
		core := "no"
		if r.CoreTeam {
			core = "yes"
		}
		values := []any{
			r.Name,
			r.CostPerHour,
			r.Availability,
			r.StartWeek,
			joinInts(r.VacationWeeks),
			formatSkills(r.Skills),
			core,
		}
		if err := w.writeRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "G", 18)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save roster workbook: %w", err)
	}

	metrics.ObserveExport("roster_xlsx", time.Since(started))
	w.logger.Info(ctx, "roster workbook written", logger.String("path", path))
	return nil
}

// WritePlan writes the allocation workbook at path.
func (w *Writer) WritePlan(ctx context.Context, def *project.Definition, result *plan.Result, path string) error {
	started := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Schedule"); err != nil {
		return fmt.Errorf("rename schedule sheet: %w", err)
	}
	if err := w.scheduleSheet(f, def, result); err != nil {
		return err
	}
	if err := w.utilizationSheet(f, result); err != nil {
		return err
	}
	if err := w.costSheet(f, def, result); err != nil {
		return err
	}
	if err := w.riskSheet(f, def, result); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save plan workbook: %w", err)
	}

	metrics.ObserveExport("plan_xlsx", time.Since(started))
	w.logger.Info(ctx, "plan workbook written", logger.String("path", path))
	return nil
}

func (w *Writer) scheduleSheet(f *excelize.File, def *project.Definition, result *plan.Result) error {
	const sheet = "Schedule"
	critical := make(map[int]bool, len(result.CriticalPath))
	for _, id := range result.CriticalPath {
		critical[id] = true
	}

	header := []string{"ID", "Activity", "Duration (days)", "Start", "Finish", "Assigned", "Critical"}
	if err := w.writeHeader(f, sheet, header); err != nil {
		return err
	}

	for i, a := range def.Activities {
		row := i + 2
		span := result.Schedule[a.ID]
		start, finish := "unscheduled", "unscheduled"
		if span.Scheduled() {
			start = span.Start.Format(dateLayout)
			finish = span.End.Format(dateLayout)
		}
		crit := ""
		if critical[a.ID] {
			crit = "yes"
		}
		values := []any{a.ID, a.Name, span.Days, start, finish, joinStrings(result.Allocations[a.ID]), crit}
		if err := w.writeRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "B", "F", 24)
	return nil
}

func (w *Writer) utilizationSheet(f *excelize.File, result *plan.Result) error {
	const sheet = "Utilization"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("add utilization sheet: %w", err)
	}
	if err := w.writeHeader(f, sheet, []string{"Resource", "Hours", "Cost", "Tasks"}); err != nil {
		return err
	}

	names := make([]string, 0, len(result.Utilization))
	for name := range result.Utilization {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		u := result.Utilization[name]
		if err := w.writeRow(f, sheet, i+2, []any{name, u.Hours, u.Cost, u.Tasks}); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "D", 18)
	return nil
}

func (w *Writer) costSheet(f *excelize.File, def *project.Definition, result *plan.Result) error {
	const sheet = "Costs"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("add cost sheet: %w", err)
	}
	if err := w.writeHeader(f, sheet, []string{"Item", "Amount"}); err != nil {
		return err
	}

	rows := [][]any{
		{"Estimated work cost", result.EstimatedCost},
		{"Core team cost", result.CoreTeamCost},
		{"Mitigation cost", strategyCost(result)},
		{"Total cost", result.TotalCost},
		{"Budget", def.Budget},
		{"Budget with reserve", def.BudgetWithReserve()},
		{"Budget status", result.BudgetStatus},
		{"Completion", formatDate(result.Completion)},
		{"Deadline", formatDate(def.Deadline)},
		{"Timeline status", result.TimelineStatus},
		{"Buffer (days)", result.BufferDays},
	}
	for i, values := range rows {
		if err := w.writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "B", 24)
	return nil
}

func (w *Writer) riskSheet(f *excelize.File, def *project.Definition, result *plan.Result) error {
	const sheet = "Risks"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("add risk sheet: %w", err)
	}
	header := []string{"ID", "Risk", "Activity", "Probability", "Cost Impact", "Time Impact (days)", "Selected Mitigation", "Mitigation Cost"}
	if err := w.writeHeader(f, sheet, header); err != nil {
		return err
	}

	for i, r := range def.Risks {
		row := i + 2
		selected, cost := "none", 0.0
		if r.Selected != nil {
			selected = r.Selected.Name
			cost = r.Selected.Cost
		}
		values := []any{r.ID, r.Name, r.ActivityID, r.Probability, r.CostImpact, r.TimeImpactDays, selected, cost}
		if err := w.writeRow(f, sheet, row, values); err != nil {
			return err
		}
	}

	base := len(def.Risks) + 3
	scenarios := [][]any{
		{"Worst case exposure", result.Risks.WorstCase.Cost, result.Risks.WorstCase.TimeDays},
		{"Expected exposure", result.Risks.ExpectedValue.Cost, result.Risks.ExpectedValue.TimeDays},
		{"Residual exposure", result.Risks.Residual.Cost, result.Risks.Residual.TimeDays},
	}
	for i, values := range scenarios {
		if err := w.writeRow(f, sheet, base+i, values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "B", "H", 20)
	return nil
}

func (w *Writer) writeHeader(f *excelize.File, sheet string, header []string) error {
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := w.writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}

func (w *Writer) writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func strategyCost(result *plan.Result) float64 {
	if result.Risks.Strategy == nil {
		return 0
	}
	return result.Risks.Strategy.TotalCost
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unscheduled"
	}
	return t.Format(dateLayout)
}

func formatSkills(skills map[string]int) string {
	keys := make([]string, 0, len(skills))
	for k := range skills {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s:%d", k, skills[k])
	}
	return out
}

func joinInts(values []int) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(v)
	}
	return out
}

func joinStrings(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
