package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pathwise/bandit/internal/adapters/store"
	"github.com/pathwise/bandit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryStore(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		st := store.NewInMemoryStore()
		ctx := context.Background()

		Convey("When loading arms before any save", func() {
			arms, err := st.LoadArms(ctx)

			Convey("Then the result is empty", func() {
				So(err, ShouldBeNil)
				So(arms, ShouldBeEmpty)
			})
		})

		Convey("When saving and reloading an arm", func() {
			arm := model.Arm{
				ID:          "hint-basic",
				TotalPulls:  12,
				TotalReward: 7.5,
				BetaAlpha:   8.5,
				BetaBeta:    5.5,
				Active:      true,
			}
			So(st.SaveArm(ctx, arm), ShouldBeNil)

			arms, err := st.LoadArms(ctx)

			Convey("Then the snapshot round-trips", func() {
				So(err, ShouldBeNil)
				So(arms, ShouldHaveLength, 1)
				So(arms[0].ID, ShouldEqual, "hint-basic")
				So(arms[0].TotalPulls, ShouldEqual, 12)
				So(arms[0].BetaAlpha, ShouldEqual, 8.5)
			})
		})

		Convey("When saving the same arm twice", func() {
			arm := model.Arm{ID: "a", TotalPulls: 1, Active: true}
			So(st.SaveArm(ctx, arm), ShouldBeNil)
			arm.TotalPulls = 2
			So(st.SaveArm(ctx, arm), ShouldBeNil)

			arms, _ := st.LoadArms(ctx)

			Convey("Then the later snapshot wins", func() {
				So(arms, ShouldHaveLength, 1)
				So(arms[0].TotalPulls, ShouldEqual, 2)
			})
		})

		Convey("When saving an outcome", func() {
			now := time.Now().UTC()
			outcome := model.Outcome{
				ID:         "o-1",
				ArmID:      "a",
				Status:     model.StatusResolved,
				Reward:     0.8,
				ResolvedAt: &now,
			}
			So(st.SaveOutcome(ctx, outcome), ShouldBeNil)

			Convey("Then it can be read back", func() {
				got, ok := st.Outcome("o-1")
				So(ok, ShouldBeTrue)
				So(got.Reward, ShouldEqual, 0.8)
			})
		})
	})

	Convey("Given a store with injected failures", t, func() {
		st := store.NewInMemoryStore(store.WithFailures(2))
		ctx := context.Background()
		arm := model.Arm{ID: "a", Active: true}

		Convey("When writing through the failure budget", func() {
			err1 := st.SaveArm(ctx, arm)
			err2 := st.SaveArm(ctx, arm)
			err3 := st.SaveArm(ctx, arm)

			Convey("Then the first writes fail and then recover", func() {
				So(errors.Is(err1, store.ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err2, store.ErrUnavailable), ShouldBeTrue)
				So(err3, ShouldBeNil)
			})
		})
	})
}
