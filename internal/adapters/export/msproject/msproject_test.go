package msproject_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/smartystreets/goconvey/convey"

	"girder/internal/adapters/export/msproject"
	"girder/internal/domain/model"
	"girder/internal/domain/plan"
	"girder/internal/domain/schedule"
	"girder/internal/project"
)

func fixture() (*project.Definition, *plan.Result) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	def := &project.Definition{
		Name:  "warehouse fit-out",
		Start: start,
		Activities: []*model.Activity{
			{ID: 1, Name: "demolition", DurationDays: 2, People: 1},
			{ID: 2, Name: "flooring", DurationDays: 3, People: 1, Predecessors: []int{1}},
		},
		Resources: []*model.Resource{
			{Name: "Rui", CostPerHour: 22, Availability: 1, StartWeek: 1},
			{Name: "Vera", CostPerHour: 18, Availability: 0.5, StartWeek: 1},
		},
	}
	result := &plan.Result{
		ProjectName: def.Name,
		Schedule: schedule.Schedule{
			1: {Start: start, End: start.AddDate(0, 0, 2), Days: 2},
			2: {Start: start.AddDate(0, 0, 2), End: start.AddDate(0, 0, 7), Days: 3},
		},
		CriticalPath: []int{1, 2},
		Allocations: map[int][]string{
			1: {"Rui"},
			2: {"Vera"},
		},
	}
	return def, result
}

func TestExporter(t *testing.T) {
	convey.Convey("Given a finished plan", t, func() {
		ctx := context.Background()
		def, result := fixture()
		path := filepath.Join(t.TempDir(), "project.xml")

		convey.Convey("When writing the interchange XML", func() {
			err := msproject.New().Write(ctx, def, result, path)

			convey.Convey("Then the file parses and carries the project name", func() {
				convey.So(err, convey.ShouldBeNil)

				doc := etree.NewDocument()
				convey.So(doc.ReadFromFile(path), convey.ShouldBeNil)
				root := doc.SelectElement("Project")
				convey.So(root, convey.ShouldNotBeNil)
				convey.So(root.SelectElement("Name").Text(), convey.ShouldEqual, "warehouse fit-out")
			})

			convey.Convey("Then every activity becomes a task with its links", func() {
				doc := etree.NewDocument()
				convey.So(doc.ReadFromFile(path), convey.ShouldBeNil)

				tasks := doc.FindElements("//Project/Tasks/Task")
				convey.So(tasks, convey.ShouldHaveLength, 2)

				first := tasks[0]
				convey.So(first.SelectElement("UID").Text(), convey.ShouldEqual, "1")
				convey.So(first.SelectElement("Critical").Text(), convey.ShouldEqual, "1")
				convey.So(first.SelectElement("Start").Text(), convey.ShouldEqual, "2026-01-05T08:00:00")

				second := tasks[1]
				link := second.SelectElement("PredecessorLink")
				convey.So(link, convey.ShouldNotBeNil)
				convey.So(link.SelectElement("PredecessorUID").Text(), convey.ShouldEqual, "1")
			})

			convey.Convey("Then resources and assignments are cross-referenced", func() {
				doc := etree.NewDocument()
				convey.So(doc.ReadFromFile(path), convey.ShouldBeNil)

				resources := doc.FindElements("//Project/Resources/Resource")
				convey.So(resources, convey.ShouldHaveLength, 2)
				convey.So(resources[0].SelectElement("Name").Text(), convey.ShouldEqual, "Rui")

				assignments := doc.FindElements("//Project/Assignments/Assignment")
				convey.So(assignments, convey.ShouldHaveLength, 2)
				convey.So(assignments[0].SelectElement("TaskUID").Text(), convey.ShouldEqual, "1")
				convey.So(assignments[0].SelectElement("ResourceUID").Text(), convey.ShouldEqual, "1")
				convey.So(assignments[1].SelectElement("ResourceUID").Text(), convey.ShouldEqual, "2")
			})

			convey.Convey("Then the base calendar keeps weekends non-working", func() {
				doc := etree.NewDocument()
				convey.So(doc.ReadFromFile(path), convey.ShouldBeNil)

				days := doc.FindElements("//Project/Calendars/Calendar/WeekDays/WeekDay")
				convey.So(days, convey.ShouldHaveLength, 7)
				convey.So(days[0].SelectElement("DayWorking").Text(), convey.ShouldEqual, "0") // Sunday
				convey.So(days[1].SelectElement("DayWorking").Text(), convey.ShouldEqual, "1") // Monday
				convey.So(days[6].SelectElement("DayWorking").Text(), convey.ShouldEqual, "0") // Saturday
			})
		})

		convey.Convey("When an activity is unscheduled", func() {
			result.Schedule[2] = schedule.Span{Days: 3}
			err := msproject.New().Write(ctx, def, result, path)

			convey.Convey("Then its task omits the date fields", func() {
				convey.So(err, convey.ShouldBeNil)

				doc := etree.NewDocument()
				convey.So(doc.ReadFromFile(path), convey.ShouldBeNil)
				tasks := doc.FindElements("//Project/Tasks/Task")
				convey.So(tasks[1].SelectElement("Start"), convey.ShouldBeNil)
				convey.So(tasks[1].SelectElement("Finish"), convey.ShouldBeNil)
			})
		})
	})
}
