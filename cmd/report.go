package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"girder/internal/adapters/biblio"
	"girder/internal/domain/plan"
	"girder/internal/project"
)

const dateLayout = "2006-01-02"

// renderConsole prints the plan as a set of tables.
func renderConsole(w io.Writer, def *project.Definition, result *plan.Result) {
	fmt.Fprintf(w, "\n%s (run %s)\n\n", result.ProjectName, result.RunID)

	renderSchedule(w, def, result)
	renderUtilization(w, result)
	renderCosts(w, def, result)
	renderRisks(w, def, result)
}

func renderSchedule(w io.Writer, def *project.Definition, result *plan.Result) {
	critical := make(map[int]bool, len(result.CriticalPath))
	for _, id := range result.CriticalPath {
		critical[id] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Schedule")
	t.AppendHeader(table.Row{"ID", "Activity", "Days", "Start", "Finish", "Assigned", "Critical"})
	for _, a := range def.Activities {
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
		t.AppendRow(table.Row{a.ID, a.Name, span.Days, start, finish, strings.Join(result.Allocations[a.ID], ", "), crit})
	}
	t.Render()
	fmt.Fprintln(w)
}

func renderUtilization(w io.Writer, result *plan.Result) {
	names := make([]string, 0, len(result.Utilization))
	for name := range result.Utilization {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Resource Utilization")
	t.AppendHeader(table.Row{"Resource", "Hours", "Cost", "Tasks"})
	for _, name := range names {
		u := result.Utilization[name]
		t.AppendRow(table.Row{name, fmt.Sprintf("%.1f", u.Hours), fmt.Sprintf("%.2f", u.Cost), u.Tasks})
	}
	t.Render()
	fmt.Fprintln(w)
}

func renderCosts(w io.Writer, def *project.Definition, result *plan.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Cost and Timeline")
	t.AppendRow(table.Row{"Estimated work cost", fmt.Sprintf("%.2f", result.EstimatedCost)})
	t.AppendRow(table.Row{"Core team cost", fmt.Sprintf("%.2f", result.CoreTeamCost)})
	t.AppendRow(table.Row{"Total cost", fmt.Sprintf("%.2f", result.TotalCost)})
	t.AppendRow(table.Row{"Budget with reserve", fmt.Sprintf("%.2f", result.BudgetLimit)})
	t.AppendRow(table.Row{"Budget status", result.BudgetStatus})
	t.AppendRow(table.Row{"Completion", formatDate(result.Completion)})
	t.AppendRow(table.Row{"Deadline", formatDate(def.Deadline)})
	t.AppendRow(table.Row{"Timeline status", result.TimelineStatus})
	t.AppendRow(table.Row{"Buffer (days)", result.BufferDays})
	t.Render()
	fmt.Fprintln(w)
}

func renderRisks(w io.Writer, def *project.Definition, result *plan.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Risk Register")
	t.AppendHeader(table.Row{"ID", "Risk", "Activity", "P", "Cost Impact", "Delay (d)", "Mitigation", "Cost"})
	for _, r := range def.Risks {
		selected, cost := "none", 0.0
		if r.Selected != nil {
			selected = r.Selected.Name
			cost = r.Selected.Cost
		}
		t.AppendRow(table.Row{r.ID, r.Name, r.ActivityID, r.Probability, r.CostImpact, r.TimeImpactDays, selected, cost})
	}
	t.AppendFooter(table.Row{"", "Worst case", "", "", fmt.Sprintf("%.2f", result.Risks.WorstCase.Cost), fmt.Sprintf("%.1f", result.Risks.WorstCase.TimeDays), "", ""})
	t.AppendFooter(table.Row{"", "Expected", "", "", fmt.Sprintf("%.2f", result.Risks.ExpectedValue.Cost), fmt.Sprintf("%.2f", result.Risks.ExpectedValue.TimeDays), "", ""})
	t.AppendFooter(table.Row{"", "Residual", "", "", fmt.Sprintf("%.2f", result.Risks.Residual.Cost), fmt.Sprintf("%.2f", result.Risks.Residual.TimeDays), "", ""})
	t.Render()
	fmt.Fprintln(w)
}

// renderSummary builds the summary.txt artifact.
func renderSummary(def *project.Definition, result *plan.Result, prose, conclusions string, refs []biblio.Reference) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", result.ProjectName)
	fmt.Fprintf(&b, "Run %s, generated %s\n\n", result.RunID, result.GeneratedAt.Format(time.RFC3339))

	if prose != "" {
		b.WriteString("EXECUTIVE SUMMARY\n\n")
		b.WriteString(strings.TrimSpace(prose))
		b.WriteString("\n\n")
	}

	b.WriteString("PLAN FIGURES\n\n")
	fmt.Fprintf(&b, "Activities: %d (%d unscheduled)\n", result.Activities, len(result.Unscheduled))
	fmt.Fprintf(&b, "Resources used: %d\n", result.ResourcesUsed)
	fmt.Fprintf(&b, "Completion: %s (deadline %s, %s, buffer %d days)\n",
		formatDate(result.Completion), formatDate(def.Deadline), result.TimelineStatus, result.BufferDays)
	fmt.Fprintf(&b, "Total cost: %.2f (limit %.2f, %s)\n",
		result.TotalCost, result.BudgetLimit, result.BudgetStatus)
	fmt.Fprintf(&b, "Critical path: %v\n\n", result.CriticalPath)

	b.WriteString("RISK ANALYSIS\n\n")
	fmt.Fprintf(&b, "Worst case exposure: %.2f and %.1f delay days\n",
		result.Risks.WorstCase.Cost, result.Risks.WorstCase.TimeDays)
	fmt.Fprintf(&b, "Expected exposure: %.2f and %.2f delay days\n",
		result.Risks.ExpectedValue.Cost, result.Risks.ExpectedValue.TimeDays)
	fmt.Fprintf(&b, "Residual exposure: %.2f and %.2f delay days\n",
		result.Risks.Residual.Cost, result.Risks.Residual.TimeDays)
	if result.Risks.Strategy != nil {
		fmt.Fprintf(&b, "Selected mitigations cost %.2f for a net benefit of %.2f\n",
			result.Risks.Strategy.TotalCost, result.Risks.Strategy.NetBenefit)
	} else {
		b.WriteString("No feasible mitigation strategy within budget\n")
	}
	b.WriteString("\n")

	if conclusions != "" {
		b.WriteString("CONCLUSIONS\n\n")
		b.WriteString(strings.TrimSpace(conclusions))
		b.WriteString("\n\n")
	}

	if len(refs) > 0 {
		b.WriteString("REFERENCES\n\n")
		for i, ref := range refs {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, ref.String())
		}
	}

	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unscheduled"
	}
	return t.Format(dateLayout)
}
