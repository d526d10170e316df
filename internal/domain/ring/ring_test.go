package ring_test

import (
	"testing"

	"github.com/okian/sportiq/internal/domain/ring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuffer(t *testing.T) {
	Convey("Given a buffer with capacity 3", t, func() {
		b := ring.New[int](3)

		Convey("When pushing fewer elements than its capacity", func() {
			_, evicted := b.Push(1)
			b.Push(2)

			Convey("Then nothing should be evicted", func() {
				So(evicted, ShouldBeFalse)
				So(b.Len(), ShouldEqual, 2)
				So(b.Items(), ShouldResemble, []int{1, 2})
			})
		})

		Convey("When pushing past capacity", func() {
			for i := 1; i <= 3; i++ {
				b.Push(i)
			}
			old, evicted := b.Push(4)
			b.Push(5)

			Convey("Then the oldest elements should go first", func() {
				So(evicted, ShouldBeTrue)
				So(old, ShouldEqual, 1)
				So(b.Len(), ShouldEqual, 3)
				So(b.Items(), ShouldResemble, []int{3, 4, 5})
			})
		})

		Convey("When resetting", func() {
			b.Push(1)
			b.Reset()

			Convey("Then it should be empty", func() {
				So(b.Len(), ShouldEqual, 0)
				So(b.Items(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a non-positive capacity", t, func() {
		b := ring.New[string](0)

		Convey("Then the buffer should hold one element", func() {
			So(b.Cap(), ShouldEqual, 1)
			b.Push("a")
			b.Push("b")
			So(b.Items(), ShouldResemble, []string{"b"})
		})
	})

	Convey("Given a slice longer than the capacity", t, func() {
		b := ring.FromSlice(2, []int{1, 2, 3, 4})

		Convey("Then only the newest elements should be kept", func() {
			So(b.Items(), ShouldResemble, []int{3, 4})
		})
	})
}
