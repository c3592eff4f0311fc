package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/pathwise/bandit/internal/adapters/mq/queue"
	"github.com/pathwise/bandit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		ctx := context.Background()

		job := queue.Job{Arm: &model.Arm{ID: "a"}}

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, job), ShouldBeTrue)
			So(q.Enqueue(ctx, job), ShouldBeTrue)

			Convey("Then the length reflects the pending jobs", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a further enqueue is dropped, not blocked", func() {
				So(q.Enqueue(ctx, job), ShouldBeFalse)
			})
		})

		Convey("When dequeuing", func() {
			So(q.Enqueue(ctx, job), ShouldBeTrue)

			jobs := q.Dequeue(ctx)

			Convey("Then the job flows out", func() {
				select {
				case got := <-jobs:
					So(got.Arm.ID, ShouldEqual, "a")
				case <-time.After(time.Second):
					t.Fatal("timed out waiting for job")
				}
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, job), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then it reports closed and drops new jobs", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job), ShouldBeFalse)
			})

			Convey("And buffered jobs still drain before the channel closes", func() {
				jobs := q.Dequeue(ctx)
				var drained []queue.Job
				for j := range jobs {
					drained = append(drained, j)
				}
				So(drained, ShouldHaveLength, 1)
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
