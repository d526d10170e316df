package simulate

import (
	"testing"

	"github.com/okian/sportiq/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	Convey("Given a generator with a fixed seed", t, func() {
		cfg := Config{Fans: 10, Items: 12, Seed: 42, DuplicateRate: 0.1, SignalRate: 0.25}
		g := NewGenerator(cfg)

		Convey("Then fans and content should be built up front", func() {
			So(g.Fans(), ShouldHaveLength, 10)
			So(g.Fans()[0].ID, ShouldEqual, "fan-001")
			So(g.Content(), ShouldHaveLength, 12)
			for _, f := range g.Fans() {
				So(len(f.Favourites), ShouldBeBetweenOrEqual, 1, 2)
			}
			for _, item := range g.Content() {
				So(item.ID, ShouldNotBeEmpty)
				So(item.Tags, ShouldNotBeEmpty)
				So(item.Category, ShouldEqual, sportCategory[item.Tags[0]])
				So(item.Popularity, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("When actions are generated", func() {
			actions := g.Actions(500)

			Convey("Then every action should be well formed", func() {
				So(actions, ShouldHaveLength, 500)
				for _, a := range actions {
					So(a.Submission.UserID, ShouldStartWith, "fan-")
					So(a.Submission.Metadata.Tags, ShouldHaveLength, 1)
					if a.IsSignal() {
						So(a.Submission.EventID, ShouldBeEmpty)
						So(a.Topic, ShouldBeIn, signalTopics)
					} else {
						So(a.Submission.EventID, ShouldNotBeEmpty)
						So(a.Submission.Type.Valid(), ShouldBeTrue)
					}
				}
			})

			Convey("And the mix should contain signals and replays", func() {
				signals, seen, replays := 0, map[string]bool{}, 0
				for _, a := range actions {
					if a.IsSignal() {
						signals++
						continue
					}
					if seen[a.Submission.EventID] {
						replays++
					}
					seen[a.Submission.EventID] = true
				}
				So(signals, ShouldBeGreaterThan, 0)
				So(replays, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When two generators share a seed", func() {
			other := NewGenerator(cfg)

			Convey("Then they should produce the same fans and catalog", func() {
				So(other.Fans(), ShouldResemble, g.Fans())
				So(len(other.Content()), ShouldEqual, len(g.Content()))
				for i := range g.Content() {
					So(other.Content()[i].Tags, ShouldResemble, g.Content()[i].Tags)
				}
			})
		})
	})

	Convey("Given an empty configuration", t, func() {
		var cfg Config
		cfg.withDefaults()

		Convey("Then defaults should be filled in", func() {
			So(cfg.BaseURL, ShouldEqual, "http://localhost:9080")
			So(cfg.Fans, ShouldEqual, defaultFans)
			So(cfg.Workers, ShouldBeGreaterThan, 0)
			So(cfg.Retries, ShouldEqual, defaultRetries)
			So(cfg.Seed, ShouldNotEqual, 0)
			So(cfg.SignalRate, ShouldEqual, 0)
		})
	})

	Convey("Given the interaction mix", t, func() {
		Convey("Then every weighted type should be known", func() {
			for _, m := range interactionMix {
				So(m.kind.Valid(), ShouldBeTrue)
			}
			So(model.InteractionTypes, ShouldHaveLength, len(interactionMix))
		})
	})
}
