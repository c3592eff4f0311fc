package stats_test

import (
	"math"
	"testing"

	"github.com/pathwise/bandit/internal/domain/model"
	"github.com/pathwise/bandit/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUpdater_Apply(t *testing.T) {
	Convey("Given a fresh arm with the uniform prior", t, func() {
		arm := model.NewArm(model.ArmConfig{ArmID: "hint-basic", Intervention: model.InterventionHint})
		updater := stats.NewUpdater()

		Convey("When applying a full reward", func() {
			updater.Apply(arm, 1.0, 1)

			Convey("Then the posterior absorbs the success", func() {
				So(arm.TotalPulls, ShouldEqual, 1)
				So(arm.TotalReward, ShouldEqual, 1.0)
				So(arm.BetaAlpha, ShouldEqual, 2.0)
				So(arm.BetaBeta, ShouldEqual, 1.0)
				So(arm.AverageReward(), ShouldEqual, 1.0)
			})
		})

		Convey("When applying a fractional reward", func() {
			updater.Apply(arm, 0.3, 1)

			Convey("Then alpha and beta split the observation", func() {
				So(arm.BetaAlpha, ShouldAlmostEqual, 1.3, 1e-9)
				So(arm.BetaBeta, ShouldAlmostEqual, 1.7, 1e-9)
			})
		})

		Convey("When applying many mixed rewards", func() {
			rewards := []float64{1.0, 0.0, 0.5, 0.8, 0.2, 1.0, 0.0, 0.65}
			var n int64
			for _, r := range rewards {
				n++
				updater.Apply(arm, r, n)
			}

			Convey("Then the pseudo-count identity holds", func() {
				So(arm.BetaAlpha+arm.BetaBeta, ShouldAlmostEqual, float64(arm.TotalPulls)+2, 1e-9)
				So(arm.BetaAlpha, ShouldBeGreaterThanOrEqualTo, 1.0)
				So(arm.BetaBeta, ShouldBeGreaterThanOrEqualTo, 1.0)
			})

			Convey("And the UCB1 score is finite and above the average", func() {
				So(math.IsInf(arm.UCB1Value, 0), ShouldBeFalse)
				So(arm.UCB1Value, ShouldBeGreaterThan, arm.AverageReward())
			})
		})
	})
}

func TestUpdater_Trend(t *testing.T) {
	Convey("Given an updater with default trend thresholds", t, func() {
		updater := stats.NewUpdater()

		arm := func(pulls int64, avg float64) *model.Arm {
			return &model.Arm{
				ID:          "a",
				TotalPulls:  pulls,
				TotalReward: avg * float64(pulls),
				BetaAlpha:   1,
				BetaBeta:    1,
				Active:      true,
			}
		}

		Convey("When the arm has too few pulls", func() {
			So(updater.Trend(arm(20, 0.9)), ShouldEqual, model.TrendStable)
		})

		Convey("When a seasoned arm performs well", func() {
			So(updater.Trend(arm(25, 0.65)), ShouldEqual, model.TrendImproving)
		})

		Convey("When a seasoned arm performs poorly", func() {
			So(updater.Trend(arm(25, 0.2)), ShouldEqual, model.TrendDeclining)
		})

		Convey("When a seasoned arm sits between the thresholds", func() {
			So(updater.Trend(arm(25, 0.45)), ShouldEqual, model.TrendStable)
		})
	})

	Convey("Given custom trend thresholds", t, func() {
		updater := stats.NewUpdater(stats.WithTrendThresholds(5, 0.8, 0.1))

		Convey("Then classification follows the configured bands", func() {
			arm := &model.Arm{TotalPulls: 6, TotalReward: 4.5, BetaAlpha: 1, BetaBeta: 1}
			So(updater.Trend(arm), ShouldEqual, model.TrendStable)
			arm.TotalReward = 5.4 // avg 0.9
			So(updater.Trend(arm), ShouldEqual, model.TrendImproving)
		})
	})
}

func TestUCB1(t *testing.T) {
	Convey("Given the UCB1 score function", t, func() {
		Convey("When the arm has never been pulled", func() {
			So(math.IsInf(stats.UCB1(0, 0, 100), 1), ShouldBeTrue)
		})

		Convey("When the arm has history", func() {
			score := stats.UCB1(0.5, 10, 100)

			Convey("Then it equals the average plus the exploration bonus", func() {
				So(score, ShouldAlmostEqual, 0.5+math.Sqrt(2*math.Log(100)/10), 1e-9)
			})
		})

		Convey("When pulls grow with a fixed total", func() {
			Convey("Then the bonus shrinks", func() {
				So(stats.UCB1(0.5, 50, 100), ShouldBeLessThan, stats.UCB1(0.5, 10, 100))
			})
		})
	})
}

func TestConfidenceInterval(t *testing.T) {
	Convey("Given arms with different amounts of evidence", t, func() {
		light := &model.Arm{BetaAlpha: 3, BetaBeta: 3}
		heavy := &model.Arm{BetaAlpha: 51, BetaBeta: 51}

		Convey("When computing their 95% intervals", func() {
			lightLower, lightUpper := stats.ConfidenceInterval(light)
			heavyLower, heavyUpper := stats.ConfidenceInterval(heavy)

			Convey("Then both are centered on the posterior mean", func() {
				So((lightLower+lightUpper)/2, ShouldAlmostEqual, 0.5, 1e-9)
				So((heavyLower+heavyUpper)/2, ShouldAlmostEqual, 0.5, 1e-9)
			})

			Convey("And more evidence tightens the interval", func() {
				So(heavyUpper-heavyLower, ShouldBeLessThan, lightUpper-lightLower)
			})
		})
	})
}
