package catalog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/sportiq/internal/adapters/catalog"
	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC)

	Convey("Given an empty catalog", t, func() {
		kv := storage.NewMemory()
		c := catalog.New(ctx, catalog.WithStore(kv), catalog.WithClock(func() time.Time { return now }))

		Convey("When an item without a publish time is added", func() {
			item, err := c.Add(ctx, model.ContentItem{ID: " a1 ", Title: "Derby", Tags: []string{"football"}, Popularity: -3})

			Convey("Then it should be normalized and stored", func() {
				So(err, ShouldBeNil)
				So(item.ID, ShouldEqual, "a1")
				So(item.PublishedAt, ShouldEqual, now)
				So(item.Popularity, ShouldEqual, 0)
				got, err := c.Get(ctx, "a1")
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "Derby")
			})

			Convey("And adding the same id again should replace it in place", func() {
				_, err := c.Add(ctx, model.ContentItem{ID: "b2"})
				So(err, ShouldBeNil)
				_, err = c.Add(ctx, model.ContentItem{ID: "a1", Title: "Derby day"})
				So(err, ShouldBeNil)
				list := c.List(ctx)
				So(list, ShouldHaveLength, 2)
				So(list[0].Title, ShouldEqual, "Derby day")
			})

			Convey("And a reload should see it", func() {
				again := catalog.New(ctx, catalog.WithStore(kv))
				So(again.Len(), ShouldEqual, 1)
			})

			Convey("And removing it should empty the pool", func() {
				So(c.Remove(ctx, "a1"), ShouldBeNil)
				So(c.Remove(ctx, "a1"), ShouldEqual, catalog.ErrNotFound)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When an item has no id", func() {
			_, err := c.Add(ctx, model.ContentItem{Title: "nameless"})

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, catalog.ErrInvalidItem)
			})
		})

		Convey("When the stored pool is corrupt", func() {
			So(kv.Put(ctx, storage.KeyContent, []byte("{")), ShouldBeNil)
			again := catalog.New(ctx, catalog.WithStore(kv))

			Convey("Then it should start empty", func() {
				So(again.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a catalog capped at three items", t, func() {
		c := catalog.New(ctx, catalog.WithMaxItems(3))
		for i := 0; i < 5; i++ {
			_, err := c.Add(ctx, model.ContentItem{ID: fmt.Sprintf("item-%d", i)})
			So(err, ShouldBeNil)
		}

		Convey("Then the oldest additions should be evicted", func() {
			list := c.List(ctx)
			So(list, ShouldHaveLength, 3)
			So(list[0].ID, ShouldEqual, "item-2")
			_, err := c.Get(ctx, "item-0")
			So(err, ShouldEqual, catalog.ErrNotFound)
		})
	})
}
