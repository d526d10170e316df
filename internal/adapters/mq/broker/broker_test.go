package broker_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/okian/sportiq/internal/adapters/mq/broker"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func collect(b bus.Bus, topic string, n int) (func() []string, <-chan struct{}) {
	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{})
	b.Subscribe(topic, func(_ context.Context, e model.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Payload.String("seq"))
		if len(got) == n {
			close(done)
		}
	})
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), got...)
	}, done
}

func delivered(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestBroker(t *testing.T) {
	ctx := context.Background()

	Convey("Given an asynchronous broker", t, func() {
		b := broker.New(ctx, broker.WithShards(3), broker.WithQueueCapacity(256))
		defer func() { So(b.Close(ctx), ShouldBeNil) }()

		Convey("When many events are published on two topics", func() {
			views, viewsDone := collect(b, "article:view", 100)
			clicks, clicksDone := collect(b, "ui:click", 100)
			for i := 0; i < 100; i++ {
				b.Publish(ctx, "article:view", model.Payload{"seq": fmt.Sprintf("%03d", i)})
				b.Publish(ctx, "ui:click", model.Payload{"seq": fmt.Sprintf("%03d", i)})
			}

			Convey("Then each topic should be delivered in publish order", func() {
				So(delivered(viewsDone), ShouldBeTrue)
				So(delivered(clicksDone), ShouldBeTrue)
				for _, got := range [][]string{views(), clicks()} {
					So(got, ShouldHaveLength, 100)
					for i, seq := range got {
						So(seq, ShouldEqual, fmt.Sprintf("%03d", i))
					}
				}
			})
		})

		Convey("When a handler panics", func() {
			b.Subscribe("content:new", func(context.Context, model.Event) { panic("boom") })
			_, done := collect(b, "content:new", 1)
			b.Publish(ctx, "content:new", model.Payload{"seq": "1"})

			Convey("Then later handlers should still receive the event", func() {
				So(delivered(done), ShouldBeTrue)
			})
		})

		Convey("When the broker is closed", func() {
			So(b.Close(ctx), ShouldBeNil)
			got, _ := collect(b, "search:query", 1)

			Convey("Then publications should be dropped silently", func() {
				So(func() { b.Publish(ctx, "search:query", model.Payload{"seq": "x"}) }, ShouldNotPanic)
				So(b.Pending(ctx), ShouldEqual, 0)
				So(got(), ShouldBeEmpty)
				So(b.TryPublish(ctx, "search:query", nil), ShouldEqual, broker.ErrClosed)
			})
		})
	})

	Convey("Given a broker whose single shard is blocked", t, func() {
		b := broker.New(ctx, broker.WithShards(1), broker.WithQueueCapacity(2))
		release := make(chan struct{})
		started := make(chan struct{}, 1)
		b.Subscribe("ui:click", func(context.Context, model.Event) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		})

		Convey("When more events arrive than the queue holds", func() {
			b.Publish(ctx, "ui:click", nil)
			<-started
			for i := 0; i < 10; i++ {
				b.Publish(ctx, "ui:click", nil)
			}

			Convey("Then the overflow should be dropped instead of blocking", func() {
				So(b.Pending(ctx), ShouldBeLessThanOrEqualTo, 3)
				So(b.TryPublish(ctx, "ui:click", nil), ShouldEqual, broker.ErrFull)
			})
		})

		close(release)
		So(b.Close(ctx), ShouldBeNil)
	})
}
