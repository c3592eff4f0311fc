package lifecycle_test

import (
	"testing"

	"github.com/pathwise/bandit/internal/domain/lifecycle"
	"github.com/pathwise/bandit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// arm builds an active arm whose posterior reflects successes/failures on
// top of the uniform prior.
func arm(id string, successes, failures float64) model.Arm {
	return model.Arm{
		ID:         id,
		BetaAlpha:  1 + successes,
		BetaBeta:   1 + failures,
		TotalPulls: int64(successes + failures),
		Active:     true,
	}
}

func TestManager_Evaluate(t *testing.T) {
	Convey("Given a lifecycle manager with default thresholds", t, func() {
		mgr := lifecycle.New()

		Convey("When a weak arm is dominated but only two arms are active", func() {
			arms := []model.Arm{
				arm("strong", 45, 5),
				arm("weak", 2, 48),
			}

			Convey("Then the minimum-active floor blocks retirement", func() {
				So(mgr.Evaluate(arms), ShouldBeEmpty)
			})
		})

		Convey("When a third arm joins and one is clearly dominated", func() {
			arms := []model.Arm{
				arm("strong", 45, 5),
				arm("middling", 35, 15),
				arm("weak", 2, 48),
			}

			Convey("Then only the dominated arm retires", func() {
				retired := mgr.Evaluate(arms)
				So(retired, ShouldResemble, []string{"weak"})
			})
		})

		Convey("When a dominated arm lacks the evidence floor", func() {
			arms := []model.Arm{
				arm("strong", 45, 5),
				arm("middling", 35, 15),
				arm("weak", 0, 5),
			}

			Convey("Then it survives despite the gap", func() {
				So(mgr.Evaluate(arms), ShouldBeEmpty)
			})
		})

		Convey("When several arms are dominated at once", func() {
			arms := []model.Arm{
				arm("strong", 90, 10),
				arm("weak-1", 3, 97),
				arm("weak-2", 5, 95),
			}

			Convey("Then retirement stops at the active floor, weakest first", func() {
				retired := mgr.Evaluate(arms)
				So(retired, ShouldResemble, []string{"weak-1"})
			})
		})

		Convey("When arms overlap statistically", func() {
			arms := []model.Arm{
				arm("a", 30, 20),
				arm("b", 27, 23),
				arm("c", 25, 25),
			}

			Convey("Then nobody retires", func() {
				So(mgr.Evaluate(arms), ShouldBeEmpty)
			})
		})

		Convey("When retired arms are present", func() {
			dead := arm("dead", 1, 30)
			dead.Active = false
			arms := []model.Arm{
				arm("strong", 45, 5),
				arm("weak", 2, 48),
				dead,
			}

			Convey("Then they count toward nothing", func() {
				// Only two active arms remain, so the floor holds.
				So(mgr.Evaluate(arms), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a manager with a relaxed active floor", t, func() {
		mgr := lifecycle.New(lifecycle.WithMinActiveArms(1))

		Convey("When one of two arms is dominated", func() {
			arms := []model.Arm{
				arm("strong", 45, 5),
				arm("weak", 2, 48),
			}

			Convey("Then it retires down to a single survivor", func() {
				So(mgr.Evaluate(arms), ShouldResemble, []string{"weak"})
			})
		})
	})

	Convey("Given a manager with a raised evidence floor", t, func() {
		mgr := lifecycle.New(lifecycle.WithMinSampleSize(100), lifecycle.WithMinActiveArms(1))

		Convey("When a dominated arm has fewer pulls than the floor", func() {
			arms := []model.Arm{
				arm("strong", 45, 5),
				arm("weak", 2, 48),
			}

			Convey("Then it survives", func() {
				So(mgr.Evaluate(arms), ShouldBeEmpty)
			})
		})
	})
}
