package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"girder/internal/app"
	"girder/internal/domain/model"
	"girder/internal/domain/plan"
	"girder/internal/project"
)

func smallProject() *project.Definition {
	return &project.Definition{
		Name:         "site preparation",
		Start:        time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		Deadline:     time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC),
		Budget:       50000,
		ReserveFract: 0.1,
		Activities: []*model.Activity{
			{ID: 1, Name: "clear site", DurationDays: 1, People: 1, Skills: map[string]int{"construction": 1}},
			{ID: 2, Name: "lay foundation", DurationDays: 2, People: 2, Predecessors: []int{1}, Skills: map[string]int{"construction": 2}},
			{ID: 3, Name: "final inspection", DurationDays: 1, People: 1, Predecessors: []int{2}, Skills: map[string]int{"finance": 1}},
		},
		Resources: []*model.Resource{
			{Name: "Rui", CostPerHour: 22, Availability: 1, StartWeek: 1, Skills: map[string]int{"construction": 3}},
			{Name: "Vera", CostPerHour: 18, Availability: 1, StartWeek: 1, Skills: map[string]int{"construction": 2, "finance": 2}},
			{Name: "Miguel", CostPerHour: 35, Availability: 0.25, StartWeek: 1, CoreTeam: true, Skills: map[string]int{"management": 3}},
		},
		Risks: []*model.Risk{
			{
				ID: 1, Name: "ground water", ActivityID: 2, Probability: 0.3,
				CostImpact: 6000, TimeImpactDays: 4,
				Options: []model.MitigationOption{
					{ID: "accept", Name: "Accept risk"},
					{ID: "pump", Name: "Install pumps", Cost: 400, CostReduction: 4000, TimeReduction: 2},
				},
			},
		},
	}
}

func TestPlanner(t *testing.T) {
	convey.Convey("Given a planner and a small project", t, func() {
		ctx := context.Background()

		convey.Convey("When planning end to end", func() {
			def := smallProject()
			result := app.New().Plan(ctx, def)

			convey.Convey("Then the result carries run identity and counts", func() {
				convey.So(result.RunID, convey.ShouldNotBeEmpty)
				convey.So(result.ProjectName, convey.ShouldEqual, "site preparation")
				convey.So(result.Activities, convey.ShouldEqual, 3)
				convey.So(result.Unscheduled, convey.ShouldBeEmpty)
			})

			convey.Convey("Then every activity is scheduled in dependency order", func() {
				convey.So(result.Schedule[1].Scheduled(), convey.ShouldBeTrue)
				convey.So(result.Schedule[2].Start, convey.ShouldEqual, result.Schedule[1].End)
				convey.So(result.Schedule[3].Start, convey.ShouldEqual, result.Schedule[2].End)
				convey.So(result.Completion, convey.ShouldEqual, result.Schedule[3].End)
			})

			convey.Convey("Then every activity got resources", func() {
				convey.So(result.Allocations[1], convey.ShouldNotBeEmpty)
				convey.So(result.Allocations[2], convey.ShouldHaveLength, 2)
				convey.So(result.Allocations[3], convey.ShouldResemble, []string{"Vera"})
			})

			convey.Convey("Then the single chain is the critical path", func() {
				convey.So(result.CriticalPath, convey.ShouldResemble, []int{1, 2, 3})
			})

			convey.Convey("Then costs include core team billing and mitigation spend", func() {
				convey.So(result.CoreTeamCost, convey.ShouldBeGreaterThan, 0)
				convey.So(result.EstimatedCost, convey.ShouldBeGreaterThan, result.CoreTeamCost)
				convey.So(result.Risks.Strategy, convey.ShouldNotBeNil)
				convey.So(result.TotalCost, convey.ShouldAlmostEqual, result.EstimatedCost+result.Risks.Strategy.TotalCost)
			})

			convey.Convey("Then the profitable mitigation is selected", func() {
				// 0.3 * (4000 + 2*1000) = 1800 benefit against 400 spend.
				convey.So(def.Risks[0].Selected, convey.ShouldNotBeNil)
				convey.So(def.Risks[0].Selected.ID, convey.ShouldEqual, "pump")
				convey.So(result.Risks.Residual.Cost, convey.ShouldBeLessThan, result.Risks.ExpectedValue.Cost)
			})

			convey.Convey("Then compliance statuses are set", func() {
				convey.So(result.BudgetStatus, convey.ShouldEqual, plan.StatusWithinBudget)
				convey.So(result.TimelineStatus, convey.ShouldEqual, plan.StatusOnTrack)
				convey.So(result.BufferDays, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the deadline is before the computed completion", func() {
			def := smallProject()
			def.Deadline = def.Start.AddDate(0, 0, 2)
			result := app.New().Plan(ctx, def)

			convey.Convey("Then the plan is reported delayed", func() {
				convey.So(result.TimelineStatus, convey.ShouldEqual, plan.StatusDelayed)
				convey.So(result.BufferDays, convey.ShouldBeLessThan, 0)
			})
		})

		convey.Convey("When the budget cannot cover the work", func() {
			def := smallProject()
			def.Budget = 100
			def.ReserveFract = 0
			result := app.New().Plan(ctx, def)

			convey.Convey("Then the plan is reported over budget", func() {
				convey.So(result.BudgetStatus, convey.ShouldEqual, plan.StatusOverBudget)
			})
		})

		convey.Convey("When a mitigation budget forbids all paid options", func() {
			def := smallProject()
			result := app.New(app.WithMitigationBudget(100)).Plan(ctx, def)

			convey.Convey("Then the accept option carries the strategy", func() {
				convey.So(result.Risks.Strategy, convey.ShouldNotBeNil)
				convey.So(result.Risks.Strategy.TotalCost, convey.ShouldAlmostEqual, 0.0)
				convey.So(def.Risks[0].Selected.ID, convey.ShouldEqual, "accept")
			})
		})

		convey.Convey("When the dependency graph contains a cycle", func() {
			def := smallProject()
			def.Activities[0].Predecessors = []int{3}
			result := app.New().Plan(ctx, def)

			convey.Convey("Then the cycle members are reported unscheduled", func() {
				convey.So(result.Unscheduled, convey.ShouldResemble, []int{1, 2, 3})
				convey.So(result.Completion.IsZero(), convey.ShouldBeTrue)
				convey.So(result.CriticalPath, convey.ShouldBeEmpty)
			})
		})
	})
}
