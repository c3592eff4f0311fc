package model_test

import (
	"testing"
	"time"

	"github.com/pathwise/bandit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewArm(t *testing.T) {
	Convey("Given an arm catalog entry", t, func() {
		cfg := model.ArmConfig{ArmID: "hint-basic", Intervention: model.InterventionHint}

		Convey("When creating the arm", func() {
			arm := model.NewArm(cfg)

			Convey("Then it starts active with the uniform prior", func() {
				So(arm.ID, ShouldEqual, "hint-basic")
				So(arm.Intervention, ShouldEqual, model.InterventionHint)
				So(arm.BetaAlpha, ShouldEqual, 1.0)
				So(arm.BetaBeta, ShouldEqual, 1.0)
				So(arm.Active, ShouldBeTrue)
				So(arm.TotalPulls, ShouldEqual, 0)
				So(arm.AverageReward(), ShouldEqual, 0)
				So(arm.SuccessRate(), ShouldEqual, 0.5)
			})
		})
	})
}

func TestArm_Clone(t *testing.T) {
	Convey("Given a retired arm", t, func() {
		retiredAt := time.Now().UTC()
		arm := &model.Arm{
			ID:               "a",
			BetaAlpha:        5,
			BetaBeta:         3,
			Active:           false,
			RetiredAt:        &retiredAt,
			RetirementReason: "dominated_95ci",
		}

		Convey("When cloning it", func() {
			clone := arm.Clone()
			*clone.RetiredAt = clone.RetiredAt.Add(time.Hour)

			Convey("Then the clone does not share the timestamp", func() {
				So(arm.RetiredAt.Equal(retiredAt), ShouldBeTrue)
			})
		})
	})
}

func TestRawOutcome_Valid(t *testing.T) {
	Convey("Given the known raw outcomes", t, func() {
		So(model.OutcomeHelped.Valid(), ShouldBeTrue)
		So(model.OutcomeIgnored.Valid(), ShouldBeTrue)
		So(model.OutcomeDismissed.Valid(), ShouldBeTrue)

		Convey("And anything else is invalid", func() {
			So(model.RawOutcome("").Valid(), ShouldBeFalse)
			So(model.RawOutcome("meh").Valid(), ShouldBeFalse)
		})
	})
}

func TestOutcome_Clone(t *testing.T) {
	Convey("Given a resolved outcome with components", t, func() {
		resolvedAt := time.Now().UTC()
		outcome := &model.Outcome{
			ID:         "o-1",
			ArmID:      "a",
			Status:     model.StatusResolved,
			Reward:     0.8,
			Components: map[string]float64{"base": 0.5, "engagement": 0.3},
			ResolvedAt: &resolvedAt,
		}

		Convey("When cloning and mutating the clone", func() {
			clone := outcome.Clone()
			clone.Components["base"] = 0
			*clone.ResolvedAt = clone.ResolvedAt.Add(time.Minute)

			Convey("Then the original is untouched", func() {
				So(outcome.Components["base"], ShouldEqual, 0.5)
				So(outcome.ResolvedAt.Equal(resolvedAt), ShouldBeTrue)
			})
		})
	})
}

func TestContextFeatures_Hash(t *testing.T) {
	Convey("Given context feature bags", t, func() {
		Convey("When the bag is nil or empty", func() {
			So(model.ContextFeatures(nil).Hash(), ShouldEqual, "")
			So(model.ContextFeatures{}.Hash(), ShouldEqual, "")
		})

		Convey("When two bags hold the same pairs", func() {
			a := model.ContextFeatures{"difficulty": "hard", "phase": "review"}
			b := model.ContextFeatures{"phase": "review", "difficulty": "hard"}

			Convey("Then the fingerprint is order-independent", func() {
				So(a.Hash(), ShouldEqual, b.Hash())
				So(a.Hash(), ShouldHaveLength, 16)
			})
		})

		Convey("When a value changes", func() {
			a := model.ContextFeatures{"difficulty": "hard"}
			b := model.ContextFeatures{"difficulty": "easy"}

			Convey("Then the fingerprint changes", func() {
				So(a.Hash(), ShouldNotEqual, b.Hash())
			})
		})
	})
}
