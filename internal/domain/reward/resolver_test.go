package reward_test

import (
	"errors"
	"math"
	"testing"

	"github.com/pathwise/bandit/internal/domain/model"
	"github.com/pathwise/bandit/internal/domain/reward"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolver_Resolve(t *testing.T) {
	Convey("Given a resolver with default signal weights", t, func() {
		resolver := reward.NewResolver()

		Convey("When resolving a helped outcome with no signals", func() {
			res, err := resolver.Resolve(model.OutcomeHelped, nil)

			Convey("Then the base reward carries the full weight", func() {
				So(err, ShouldBeNil)
				So(res.Reward, ShouldEqual, 1.0)
				So(res.Components["base"], ShouldEqual, 1.0)
				So(res.Confidence, ShouldEqual, 0.8)
			})
		})

		Convey("When resolving an ignored outcome with no signals", func() {
			res, err := resolver.Resolve(model.OutcomeIgnored, nil)

			Convey("Then the reward is zero with low confidence", func() {
				So(err, ShouldBeNil)
				So(res.Reward, ShouldEqual, 0.0)
				So(res.Confidence, ShouldEqual, 0.4)
			})
		})

		Convey("When resolving a dismissed outcome with no signals", func() {
			res, err := resolver.Resolve(model.OutcomeDismissed, nil)

			Convey("Then the reward is zero but confidence is high", func() {
				So(err, ShouldBeNil)
				So(res.Reward, ShouldEqual, 0.0)
				// An explicit dismissal is more informative than silence.
				So(res.Confidence, ShouldEqual, 0.7)
				So(res.Confidence, ShouldBeGreaterThan, 0.4)
			})
		})

		Convey("When resolving a helped outcome with all three signals", func() {
			signals := []model.RewardSignal{
				{Type: model.SignalEngagement, Value: 0.5},
				{Type: model.SignalLearningGain, Value: 0.8},
				{Type: model.SignalCompletion, Value: 1.0},
			}
			res, err := resolver.Resolve(model.OutcomeHelped, signals)

			Convey("Then the signals take over the full weight budget", func() {
				So(err, ShouldBeNil)
				// 0.5*0.2 + 0.8*0.5 + 1.0*0.3 with nothing left for base.
				So(res.Reward, ShouldAlmostEqual, 0.8, 1e-9)
				So(res.Components["base"], ShouldAlmostEqual, 0, 1e-9)
				So(res.Components["engagement"], ShouldAlmostEqual, 0.1, 1e-9)
				So(res.Components["learning_gain"], ShouldAlmostEqual, 0.4, 1e-9)
				So(res.Components["completion"], ShouldAlmostEqual, 0.3, 1e-9)
			})
		})

		Convey("When resolving with a partial signal set", func() {
			signals := []model.RewardSignal{
				{Type: model.SignalEngagement, Value: 1.0},
			}
			res, err := resolver.Resolve(model.OutcomeHelped, signals)

			Convey("Then the base keeps the unclaimed weight", func() {
				So(err, ShouldBeNil)
				// base 1.0 * (1 - 0.2) + 1.0 * 0.2
				So(res.Reward, ShouldAlmostEqual, 1.0, 1e-9)
				So(res.Components["base"], ShouldAlmostEqual, 0.8, 1e-9)
			})
		})

		Convey("When signals accompany a negative outcome", func() {
			signals := []model.RewardSignal{
				{Type: model.SignalLearningGain, Value: 0.9},
			}
			res, err := resolver.Resolve(model.OutcomeDismissed, signals)

			Convey("Then the reward reflects only the signal evidence", func() {
				So(err, ShouldBeNil)
				So(res.Reward, ShouldAlmostEqual, 0.45, 1e-9)
			})
		})

		Convey("When the raw outcome is unknown", func() {
			_, err := resolver.Resolve(model.RawOutcome("shrugged"), nil)

			Convey("Then it is rejected as invalid input", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, reward.ErrInvalidRewardInput), ShouldBeTrue)
			})
		})

		Convey("When a signal type is unknown", func() {
			_, err := resolver.Resolve(model.OutcomeHelped, []model.RewardSignal{
				{Type: model.SignalType("vibes"), Value: 0.5},
			})

			Convey("Then it is rejected as invalid input", func() {
				So(errors.Is(err, reward.ErrInvalidRewardInput), ShouldBeTrue)
			})
		})

		Convey("When a signal value falls outside the unit interval", func() {
			for _, v := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1)} {
				_, err := resolver.Resolve(model.OutcomeHelped, []model.RewardSignal{
					{Type: model.SignalEngagement, Value: v},
				})
				So(errors.Is(err, reward.ErrInvalidRewardInput), ShouldBeTrue)
			}
		})
	})
}

func TestResolver_Confidence(t *testing.T) {
	Convey("Given a resolver with default signal weights", t, func() {
		resolver := reward.NewResolver()

		Convey("When adding corroborating signals one at a time", func() {
			signalPool := []model.RewardSignal{
				{Type: model.SignalEngagement, Value: 0.5},
				{Type: model.SignalLearningGain, Value: 0.5},
				{Type: model.SignalCompletion, Value: 0.5},
			}

			Convey("Then confidence strictly increases and stays below 1", func() {
				prev := -1.0
				for n := 0; n <= len(signalPool); n++ {
					res, err := resolver.Resolve(model.OutcomeIgnored, signalPool[:n])
					So(err, ShouldBeNil)
					So(res.Confidence, ShouldBeGreaterThan, prev)
					So(res.Confidence, ShouldBeLessThanOrEqualTo, 1.0)
					prev = res.Confidence
				}
			})
		})
	})
}

func TestResolver_CustomWeights(t *testing.T) {
	Convey("Given a resolver with custom weights from configuration", t, func() {
		resolver := reward.NewResolver(reward.WithSignalWeights(map[string]float64{
			"engagement": 0.5,
			"completion": 0.5,
		}))

		Convey("When resolving with a reweighted signal", func() {
			res, err := resolver.Resolve(model.OutcomeIgnored, []model.RewardSignal{
				{Type: model.SignalEngagement, Value: 1.0},
			})

			Convey("Then the configured weight applies", func() {
				So(err, ShouldBeNil)
				So(res.Reward, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})

		Convey("When resolving with a signal the config dropped", func() {
			_, err := resolver.Resolve(model.OutcomeIgnored, []model.RewardSignal{
				{Type: model.SignalLearningGain, Value: 1.0},
			})

			Convey("Then the unknown signal is rejected", func() {
				So(errors.Is(err, reward.ErrInvalidRewardInput), ShouldBeTrue)
			})
		})
	})
}
