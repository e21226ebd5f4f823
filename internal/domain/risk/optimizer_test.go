package risk_test

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"girder/internal/domain/model"
	"girder/internal/domain/risk"
)

func acceptOption() model.MitigationOption {
	return model.MitigationOption{ID: "accept", Name: "Accept risk"}
}

func TestOptimizer(t *testing.T) {
	convey.Convey("Given a risk register and the exhaustive optimizer", t, func() {
		ctx := context.Background()

		convey.Convey("When every paid mitigation costs more than it saves", func() {
			risks := []*model.Risk{
				{
					ID: 1, Name: "server failure", ActivityID: 7,
					Probability: 0.05, CostImpact: 8000, TimeImpactDays: 2,
					Options: []model.MitigationOption{
						acceptOption(),
						{ID: "m1", Name: "redundant hardware", Cost: 500, CostReduction: 2000},
						{ID: "m2", Name: "hot standby", Cost: 2000, CostReduction: 900},
					},
				},
			}
			strategy := risk.New().Optimize(ctx, risks)

			convey.Convey("Then accepting the risk wins with zero spend", func() {
				convey.So(strategy, convey.ShouldNotBeNil)
				convey.So(strategy.TotalCost, convey.ShouldAlmostEqual, 0.0)
				convey.So(strategy.NetBenefit, convey.ShouldAlmostEqual, 0.0)
				convey.So(risks[0].Selected, convey.ShouldNotBeNil)
				convey.So(risks[0].Selected.ID, convey.ShouldEqual, "accept")
			})
		})

		convey.Convey("When a mitigation clearly pays for itself", func() {
			risks := []*model.Risk{
				{
					ID: 1, Name: "quality defects", ActivityID: 10,
					Probability: 0.5, CostImpact: 10000, TimeImpactDays: 3,
					Options: []model.MitigationOption{
						acceptOption(),
						{ID: "m1", Name: "extra inspection", Cost: 100, CostReduction: 5000},
					},
				},
			}
			strategy := risk.New().Optimize(ctx, risks)

			convey.Convey("Then it is selected over accepting", func() {
				convey.So(strategy, convey.ShouldNotBeNil)
				convey.So(risks[0].Selected.ID, convey.ShouldEqual, "m1")
				convey.So(strategy.TotalCost, convey.ShouldAlmostEqual, 100.0)
				// 0.5 * 5000 reduction minus 100 spend.
				convey.So(strategy.NetBenefit, convey.ShouldAlmostEqual, 2400.0)
				convey.So(strategy.ExpectedReduction, convey.ShouldAlmostEqual, 2500.0)
			})
		})

		convey.Convey("When time reductions carry value", func() {
			risks := []*model.Risk{
				{
					ID: 1, Name: "priority conflict", ActivityID: 13,
					Probability: 0.25, CostImpact: 6000, TimeImpactDays: 7,
					Options: []model.MitigationOption{
						acceptOption(),
						{ID: "m1", Name: "dedicated crew", Cost: 900, CostReduction: 0, TimeReduction: 4},
					},
				},
			}
			strategy := risk.New(risk.WithTimeValuePerDay(2000)).Optimize(ctx, risks)

			convey.Convey("Then the configured day value drives the benefit", func() {
				// 0.25 * 4 days * 2000 = 2000 benefit against 900 spend.
				convey.So(risks[0].Selected.ID, convey.ShouldEqual, "m1")
				convey.So(strategy.NetBenefit, convey.ShouldAlmostEqual, 1100.0)
				convey.So(strategy.ExpectedTimeReduction, convey.ShouldAlmostEqual, 1.0)
			})
		})

		convey.Convey("When a budget excludes the best combination", func() {
			risks := []*model.Risk{
				{
					ID: 1, Name: "quality defects", ActivityID: 10,
					Probability: 0.5, CostImpact: 10000,
					Options: []model.MitigationOption{
						acceptOption(),
						{ID: "m1", Name: "extra inspection", Cost: 100, CostReduction: 5000},
					},
				},
			}
			strategy := risk.New(risk.WithBudget(50)).Optimize(ctx, risks)

			convey.Convey("Then the cheapest feasible combination is chosen", func() {
				convey.So(strategy, convey.ShouldNotBeNil)
				convey.So(risks[0].Selected.ID, convey.ShouldEqual, "accept")
				convey.So(strategy.TotalCost, convey.ShouldAlmostEqual, 0.0)
			})
		})

		convey.Convey("When the budget excludes every combination", func() {
			risks := []*model.Risk{
				{
					ID: 1, Name: "no way out", ActivityID: 1,
					Probability: 0.5, CostImpact: 10000,
					Options: []model.MitigationOption{
						{ID: "m1", Name: "pricey", Cost: 100, CostReduction: 5000},
						{ID: "m2", Name: "pricier", Cost: 200, CostReduction: 9000},
					},
				},
			}
			strategy := risk.New(risk.WithBudget(50)).Optimize(ctx, risks)

			convey.Convey("Then no strategy is returned and nothing is selected", func() {
				convey.So(strategy, convey.ShouldBeNil)
				convey.So(risks[0].Selected, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the register is empty", func() {
			convey.Convey("Then no strategy is returned", func() {
				convey.So(risk.New().Optimize(ctx, nil), convey.ShouldBeNil)
			})
		})

		convey.Convey("When multiple risks combine", func() {
			risks := []*model.Risk{
				{
					ID: 1, Name: "r1", ActivityID: 1, Probability: 0.2, CostImpact: 4000, TimeImpactDays: 2,
					Options: []model.MitigationOption{
						acceptOption(),
						{ID: "a1", Name: "one", Cost: 300, CostReduction: 2500},
						{ID: "a2", Name: "two", Cost: 700, CostReduction: 4000, TimeReduction: 1},
					},
				},
				{
					ID: 2, Name: "r2", ActivityID: 2, Probability: 0.6, CostImpact: 9000, TimeImpactDays: 5,
					Options: []model.MitigationOption{
						acceptOption(),
						{ID: "b1", Name: "three", Cost: 1200, CostReduction: 3000, TimeReduction: 2},
						{ID: "b2", Name: "four", Cost: 2500, CostReduction: 8000, TimeReduction: 4},
						{ID: "b3", Name: "five", Cost: 5000, CostReduction: 9000, TimeReduction: 5},
					},
				},
			}
			strategy := risk.New().Optimize(ctx, risks)

			convey.Convey("Then the winner matches a brute-force search over the product", func() {
				convey.So(strategy, convey.ShouldNotBeNil)

				bestNet := 0.0
				first := true
				var bestCost float64
				for _, o1 := range risks[0].Options {
					for _, o2 := range risks[1].Options {
						cost := o1.Cost + o2.Cost
						benefit := risks[0].Probability*(o1.CostReduction+float64(o1.TimeReduction)*1000) +
							risks[1].Probability*(o2.CostReduction+float64(o2.TimeReduction)*1000)
						net := benefit - cost
						if first || net > bestNet {
							first = false
							bestNet = net
							bestCost = cost
						}
					}
				}

				convey.So(strategy.NetBenefit, convey.ShouldAlmostEqual, bestNet)
				convey.So(strategy.TotalCost, convey.ShouldAlmostEqual, bestCost)
				convey.So(strategy.Selections, convey.ShouldHaveLength, 2)
			})
		})
	})
}

func TestScenarios(t *testing.T) {
	convey.Convey("Given a risk register", t, func() {
		risks := []*model.Risk{
			{ID: 1, Probability: 0.05, CostImpact: 8000, TimeImpactDays: 2},
			{ID: 2, Probability: 0.15, CostImpact: 12000, TimeImpactDays: 3},
		}

		convey.Convey("When computing the worst case", func() {
			s := risk.WorstCase(risks)
			convey.Convey("Then raw impacts are summed", func() {
				convey.So(s.Cost, convey.ShouldAlmostEqual, 20000.0)
				convey.So(s.TimeDays, convey.ShouldAlmostEqual, 5.0)
			})
		})

		convey.Convey("When computing the expected value", func() {
			s := risk.ExpectedValue(risks)
			convey.Convey("Then impacts are probability weighted", func() {
				convey.So(s.Cost, convey.ShouldAlmostEqual, 0.05*8000+0.15*12000)
				convey.So(s.TimeDays, convey.ShouldAlmostEqual, 0.05*2+0.15*3)
			})
		})

		convey.Convey("When computing the residual after mitigation", func() {
			risks[0].Selected = &model.MitigationOption{CostReduction: 10000, TimeReduction: 5}
			risks[1].Selected = &model.MitigationOption{CostReduction: 2000, TimeReduction: 1}
			s := risk.Residual(risks)

			convey.Convey("Then reductions apply and never push a risk negative", func() {
				// Risk 1 is over-mitigated and floors at zero.
				convey.So(s.Cost, convey.ShouldAlmostEqual, 0.15*(12000-2000))
				convey.So(s.TimeDays, convey.ShouldAlmostEqual, 0.15*2)
			})
		})

		convey.Convey("When a risk has no selection", func() {
			bare := []*model.Risk{{ID: 3, Probability: 0.5, CostImpact: 1000, TimeImpactDays: 4}}
			s := risk.Residual(bare)

			convey.Convey("Then it keeps its full expected impact", func() {
				convey.So(s.Cost, convey.ShouldAlmostEqual, 500.0)
				convey.So(s.TimeDays, convey.ShouldAlmostEqual, 2.0)
			})
		})
	})
}
