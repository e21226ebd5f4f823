// Package msproject emits a Microsoft-Project-compatible XML document from
// a finished plan. It is a pure consumer of the plan result; nothing here
// feeds back into the engine.
package msproject

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"girder/internal/domain/plan"
	"girder/internal/project"
	"girder/pkg/logger"
	"girder/pkg/metrics"
)

const (
	projectNamespace = "http://schemas.microsoft.com/project"
	dateTimeLayout   = "2006-01-02T15:04:05"
	workDayStart     = "08:00:00"
	workDayEnd       = "17:00:00"
)

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithLogger sets a custom logger for the exporter.
func WithLogger(lg logger.Logger) Option {
	return func(e *Exporter) {
		if lg != nil {
			e.logger = lg
		}
	}
}

// WithNow overrides the clock used for the CurrentDate property.
func WithNow(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// Exporter writes the interchange XML artifact.
type Exporter struct {
	logger logger.Logger
	now    func() time.Time
}

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		logger: logger.Named("msproject"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Write renders the project plan as interchange XML at path.
func (e *Exporter) Write(ctx context.Context, def *project.Definition, result *plan.Result, path string) error {
	started := time.Now()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Project")
	root.CreateAttr("xmlns", projectNamespace)

	e.addProperties(root, def)
	e.addCalendar(root)
	e.addTasks(root, def, result)
	resourceUIDs := e.addResources(root, def)
	e.addAssignments(root, def, result, resourceUIDs)

	doc.Indent(2)
	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf("write project xml: %w", err)
	}

	metrics.ObserveExport("msproject_xml", time.Since(started))
	e.logger.Info(ctx, "interchange XML written", logger.String("path", path))
	return nil
}

func (e *Exporter) addProperties(root *etree.Element, def *project.Definition) {
	set := func(name, value string) {
		root.CreateElement(name).SetText(value)
	}
	set("SaveVersion", "14")
	set("Name", def.Name)
	set("Title", def.Name)
	set("StartDate", def.Start.Format("2006-01-02")+"T"+workDayStart)
	set("ScheduleFromStart", "1")
	set("CurrentDate", e.now().Format(dateTimeLayout))
	set("CalendarUID", "1")
	set("DefaultStartTime", workDayStart)
	set("DefaultFinishTime", workDayEnd)
	set("HoursPerDay", "8.0")
	set("HoursPerWeek", "40.0")
	set("DaysPerMonth", "20")
	set("CurrencySymbol", "€")
}

// addCalendar writes the standard Monday-Friday base calendar. Day types
// follow the interchange convention: 1 is Sunday, 7 is Saturday.
func (e *Exporter) addCalendar(root *etree.Element) {
	calendars := root.CreateElement("Calendars")
	cal := calendars.CreateElement("Calendar")
	cal.CreateElement("UID").SetText("1")
	cal.CreateElement("Name").SetText("Standard")
	cal.CreateElement("IsBaseCalendar").SetText("1")

	weekdays := cal.CreateElement("WeekDays")
	for dayType := 1; dayType <= 7; dayType++ {
		day := weekdays.CreateElement("WeekDay")
		day.CreateElement("DayType").SetText(fmt.Sprint(dayType))
		working := dayType >= 2 && dayType <= 6
		if !working {
			day.CreateElement("DayWorking").SetText("0")
			continue
		}
		day.CreateElement("DayWorking").SetText("1")
		wt := day.CreateElement("WorkingTimes").CreateElement("WorkingTime")
		wt.CreateElement("FromTime").SetText(workDayStart)
		wt.CreateElement("ToTime").SetText(workDayEnd)
	}
}

func (e *Exporter) addTasks(root *etree.Element, def *project.Definition, result *plan.Result) {
	critical := make(map[int]bool, len(result.CriticalPath))
	for _, id := range result.CriticalPath {
		critical[id] = true
	}

	tasks := root.CreateElement("Tasks")
	for _, a := range def.Activities {
		task := tasks.CreateElement("Task")
		task.CreateElement("UID").SetText(fmt.Sprint(a.ID))
		task.CreateElement("ID").SetText(fmt.Sprint(a.ID))
		task.CreateElement("Name").SetText(a.Name)
		task.CreateElement("Type").SetText("0")
		task.CreateElement("DurationFormat").SetText("7") // days

		span := result.Schedule[a.ID]
		if span.Scheduled() {
			task.CreateElement("Start").SetText(span.Start.Format("2006-01-02") + "T" + workDayStart)
			task.CreateElement("Finish").SetText(span.End.Format("2006-01-02") + "T" + workDayEnd)
		}
		task.CreateElement("Duration").SetText(fmt.Sprintf("PT%dH0M0S", a.DurationDays*8))
		if critical[a.ID] {
			task.CreateElement("Critical").SetText("1")
		} else {
			task.CreateElement("Critical").SetText("0")
		}

		for _, pred := range a.Predecessors {
			link := task.CreateElement("PredecessorLink")
			link.CreateElement("PredecessorUID").SetText(fmt.Sprint(pred))
			link.CreateElement("Type").SetText("1") // finish-to-start
		}
	}
}

func (e *Exporter) addResources(root *etree.Element, def *project.Definition) map[string]int {
	uids := make(map[string]int, len(def.Resources))
	resources := root.CreateElement("Resources")
	for i, r := range def.Resources {
		uid := i + 1
		uids[r.Name] = uid
		res := resources.CreateElement("Resource")
		res.CreateElement("UID").SetText(fmt.Sprint(uid))
		res.CreateElement("ID").SetText(fmt.Sprint(uid))
		res.CreateElement("Name").SetText(r.Name)
		res.CreateElement("Type").SetText("1") // work resource
		res.CreateElement("StandardRate").SetText(fmt.Sprintf("%.2f", r.CostPerHour))
		res.CreateElement("MaxUnits").SetText(fmt.Sprintf("%.2f", r.Availability))
	}
	return uids
}

func (e *Exporter) addAssignments(root *etree.Element, def *project.Definition, result *plan.Result, resourceUIDs map[string]int) {
	assignments := root.CreateElement("Assignments")
	uid := 1
	for _, a := range def.Activities {
		for _, name := range result.Allocations[a.ID] {
			resourceUID, ok := resourceUIDs[name]
			if !ok {
				continue
			}
			as := assignments.CreateElement("Assignment")
			as.CreateElement("UID").SetText(fmt.Sprint(uid))
			as.CreateElement("TaskUID").SetText(fmt.Sprint(a.ID))
			as.CreateElement("ResourceUID").SetText(fmt.Sprint(resourceUID))
			as.CreateElement("Units").SetText("1.00")
			uid++
		}
	}
}
