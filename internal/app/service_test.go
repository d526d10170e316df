package service_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/sportiq/internal/adapters/repository"
	"github.com/okian/sportiq/internal/adapters/storage"
	service "github.com/okian/sportiq/internal/app"
	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/internal/domain/gamification"
	"github.com/okian/sportiq/internal/domain/interest"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/internal/domain/types"
	"github.com/okian/sportiq/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// syncService starts a service delivering events inline, so every effect
// is visible when the call returns.
func syncService(ctx context.Context, now *time.Time, mutate func(*config.Config)) (*service.Service, storage.KV) {
	cfg := config.New()
	cfg.Bus.Mode = config.BusSync
	if mutate != nil {
		mutate(cfg)
	}
	kv := storage.NewMemory()
	svc := service.New(
		service.WithConfig(cfg),
		service.WithStore(kv),
		service.WithClock(func() time.Time { return *now }),
		service.WithRandSource(rand.NewSource(1)),
		service.WithLogger(logger.Nop()),
	)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, kv
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new service", t, func() {
		svc := service.New(service.WithConfig(config.New()), service.WithLogger(logger.Nop()))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then it should report stopped before Start", func() {
			So(svc.GetStats(ctx).Started, ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When starting the service twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be running on the async broker", func() {
				stats := svc.GetStats(ctx)
				So(stats.Started, ShouldBeTrue)
				So(stats.BusMode, ShouldEqual, config.BusAsync)
				So(stats.Shards, ShouldEqual, 4)
				So(stats.BoardCap, ShouldEqual, 100)
				So(stats.Boards, ShouldHaveLength, len(repository.Boards))
			})

			Convey("And stopping should be idempotent", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
			})
		})
	})
}

func TestService_Interactions(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a synchronous service", t, func() {
		now := base
		svc, _ := syncService(ctx, &now, nil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		Convey("When a fan shares a football story", func() {
			dup, err := svc.SubmitInteraction(ctx, types.Submission{
				EventID:  "evt-1",
				UserID:   "ana",
				Type:     model.InteractionShare,
				Metadata: model.Metadata{Tags: []string{"Football", "Derby"}, Category: "Sport"},
			})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)

			Convey("Then the interest profile should be boosted by the share weight", func() {
				p, top, err := svc.Profile(ctx, "ana")
				So(err, ShouldBeNil)
				So(p.Interests["football"], ShouldEqual, 10)
				So(p.Interests["derby"], ShouldEqual, 10)
				So(p.Interests["sport"], ShouldEqual, 10)
				So(p.InteractionCount, ShouldEqual, 1)
				So(top, ShouldHaveLength, 3)
			})

			Convey("And the fan should earn XP and a leaderboard place", func() {
				st, prog, err := svc.Gamification(ctx, "ana")
				So(err, ShouldBeNil)
				So(st.XP, ShouldEqual, 10)
				So(st.Achievements["share"], ShouldEqual, 1)
				So(prog.Level, ShouldEqual, 1)

				entry, err := svc.Rank(ctx, "ana")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 10)
				So(entry.Rank, ShouldEqual, 1)
				So(svc.UserRank(ctx, "ana"), ShouldEqual, 1)
				for _, b := range repository.Boards {
					top, err := svc.TopN(ctx, b, 0)
					So(err, ShouldBeNil)
					So(top, ShouldHaveLength, 1)
				}
			})

			Convey("And replaying the same event id should change nothing", func() {
				dup, err := svc.SubmitInteraction(ctx, types.Submission{
					EventID: "evt-1", UserID: "ana", Type: model.InteractionShare,
				})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				st, _, _ := svc.Gamification(ctx, "ana")
				So(st.XP, ShouldEqual, 10)
			})
		})

		Convey("When a fan views an article for the first time", func() {
			_, err := svc.SubmitInteraction(ctx, types.Submission{UserID: "ben", Type: model.InteractionView})
			So(err, ShouldBeNil)

			Convey("Then the first badge reward and the view weight should both count", func() {
				st, _, err := svc.Gamification(ctx, "ben")
				So(err, ShouldBeNil)
				So(st.HasBadge("first_view"), ShouldBeTrue)
				So(st.XP, ShouldEqual, 11)
				entry, err := svc.Rank(ctx, "ben")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 11)
			})
		})

		Convey("When the interaction is invalid", func() {
			_, errType := svc.SubmitInteraction(ctx, types.Submission{UserID: "ana", Type: "like"})
			_, errUser := svc.SubmitInteraction(ctx, types.Submission{UserID: " ", Type: model.InteractionView})

			Convey("Then the matching sentinel should be returned", func() {
				So(errType, ShouldWrap, interest.ErrUnknownInteraction)
				So(errUser, ShouldEqual, service.ErrMissingUser)
			})
		})

		Convey("When page signals arrive", func() {
			So(svc.Signal(ctx, model.TopicSearchQuery, "cy", model.Metadata{Tags: []string{"tennis"}}), ShouldBeNil)
			So(svc.Signal(ctx, model.TopicArticleView, "cy", model.Metadata{Category: "tennis"}), ShouldBeNil)

			Convey("Then only the interest profile should move", func() {
				p, _, err := svc.Profile(ctx, "cy")
				So(err, ShouldBeNil)
				So(p.Interests["tennis"], ShouldEqual, 6)
				st, _, _ := svc.Gamification(ctx, "cy")
				So(st.XP, ShouldEqual, 0)
			})

			Convey("And unknown topics should be refused", func() {
				So(svc.Signal(ctx, "page:scroll", "cy", model.Metadata{}), ShouldWrap, service.ErrUnknownTopic)
			})
		})
	})
}

func TestService_Recommendations(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a fan interested in football and a small catalog", t, func() {
		now := base
		svc, _ := syncService(ctx, &now, nil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		_, err := svc.SubmitInteraction(ctx, types.Submission{
			UserID: "ana", Type: model.InteractionClick, Metadata: model.Metadata{Tags: []string{"football"}},
		})
		So(err, ShouldBeNil)
		for _, item := range []model.ContentItem{
			{ID: "chess-1", Tags: []string{"chess"}, PublishedAt: base},
			{ID: "foot-1", Tags: []string{"Football"}, PublishedAt: base},
			{ID: "foot-2", Tags: []string{"football"}, PublishedAt: base.Add(-72 * time.Hour)},
		} {
			_, err := svc.AddContent(ctx, item)
			So(err, ShouldBeNil)
		}

		Convey("When recommending without a current item", func() {
			recs, err := svc.Recommend(ctx, "ana", "", 0)
			So(err, ShouldBeNil)

			Convey("Then matching fresh content should rank first", func() {
				So(recs, ShouldHaveLength, 3)
				So(recs[0].Item.ID, ShouldEqual, "foot-1")
				So(recs[1].Item.ID, ShouldEqual, "foot-2")
				So(recs[2].Item.ID, ShouldEqual, "chess-1")
				So(svc.Content(ctx), ShouldHaveLength, 3)
			})
		})

		Convey("When the fan is reading one of the items", func() {
			recs, err := svc.Recommend(ctx, "ana", "foot-1", 1)
			So(err, ShouldBeNil)

			Convey("Then it should never be recommended", func() {
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Item.ID, ShouldEqual, "foot-2")
			})
		})

		Convey("When content has no id", func() {
			_, err := svc.AddContent(ctx, model.ContentItem{Title: "untitled"})

			Convey("Then it should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(svc.Content(ctx), ShouldHaveLength, 3)
			})
		})
	})
}

func TestService_Decay(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given two fans with football interest", t, func() {
		now := base
		svc, _ := syncService(ctx, &now, nil)
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		for _, u := range []string{"ana", "ben"} {
			_, err := svc.SubmitInteraction(ctx, types.Submission{
				UserID: u, Type: model.InteractionShare, Metadata: model.Metadata{Tags: []string{"football"}},
			})
			So(err, ShouldBeNil)
		}

		Convey("When ten days pass and a sweep runs", func() {
			now = base.Add(10 * 24 * time.Hour)
			visited, err := svc.DecaySweep(ctx)
			So(err, ShouldBeNil)

			Convey("Then every profile should be decayed", func() {
				So(visited, ShouldEqual, 2)
				for _, u := range []string{"ana", "ben"} {
					p, _, _ := svc.Profile(ctx, u)
					So(p.Interests["football"], ShouldAlmostEqual, 10*math.Pow(0.98, 10), 1e-9)
				}
			})

			Convey("And decaying one fan again should be a no-op", func() {
				res, err := svc.ApplyDecay(ctx, "ana")
				So(err, ShouldBeNil)
				So(res.Applied, ShouldBeFalse)
			})
		})

		Convey("When only a few hours pass", func() {
			now = base.Add(6 * time.Hour)
			res, err := svc.ApplyDecay(ctx, "ana")

			Convey("Then nothing should change", func() {
				So(err, ShouldBeNil)
				So(res.Applied, ShouldBeFalse)
				p, _, _ := svc.Profile(ctx, "ana")
				So(p.Interests["football"], ShouldEqual, 10)
			})
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given boards capped to two results per query", t, func() {
		now := base
		svc, _ := syncService(ctx, &now, func(c *config.Config) { c.MaxLeaderboardLimit = 2 })
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		for i, u := range []string{"a", "b", "c"} {
			score := float64(10 * (i + 1))
			_, err := svc.UpsertEntry(ctx, repository.BoardWeekly, repository.EntryPatch{UserID: u, Score: &score})
			So(err, ShouldBeNil)
		}

		Convey("When reading the top of the board", func() {
			all, err := svc.TopN(ctx, repository.BoardWeekly, 0)
			So(err, ShouldBeNil)
			many, err := svc.TopN(ctx, repository.BoardWeekly, 50)
			So(err, ShouldBeNil)

			Convey("Then the limit should be clamped", func() {
				So(all, ShouldHaveLength, 2)
				So(many, ShouldHaveLength, 2)
				So(all[0].UserID, ShouldEqual, "c")
			})
		})

		Convey("When a fan never gained XP", func() {
			_, err := svc.Rank(ctx, "a")

			Convey("Then the all-time rank should be missing", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
				So(svc.UserRank(ctx, "a"), ShouldEqual, 0)
			})
		})

		Convey("When the weekly board is reset", func() {
			So(svc.ResetBoard(ctx, repository.BoardWeekly), ShouldBeNil)

			Convey("Then it should be empty", func() {
				So(svc.GetStats(ctx).Boards["weekly"], ShouldEqual, 0)
				So(svc.ResetBoard(ctx, "yearly"), ShouldEqual, repository.ErrInvalidBoard)
			})
		})
	})
}

func TestService_Gamification(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a service with a custom badge", t, func() {
		now := base
		svc, _ := syncService(ctx, &now, func(c *config.Config) {
			c.Gamification.Badges = []config.BadgeConfig{
				{ID: "pundit", Name: "Pundit", Action: "comment", Threshold: 2, XPReward: 100},
			}
		})
		defer func() { So(svc.Stop(ctx), ShouldBeNil) }()

		Convey("When the action reaches the threshold", func() {
			_, err := svc.RecordAchievement(ctx, "ana", "comment")
			So(err, ShouldBeNil)
			out, err := svc.RecordAchievement(ctx, "ana", "comment")
			So(err, ShouldBeNil)

			Convey("Then the badge reward should level the fan up", func() {
				So(out.NewBadges, ShouldResemble, []string{"pundit"})
				So(out.Level, ShouldEqual, 2)
				So(svc.Badges(), ShouldHaveLength, 1)
				So(svc.UserRank(ctx, "ana"), ShouldEqual, 1)
			})
		})

		Convey("When XP is granted directly", func() {
			out, err := svc.GainXP(ctx, "ben", 600)
			So(err, ShouldBeNil)
			_, errAmount := svc.GainXP(ctx, "ben", -5)
			_, errUser := svc.GainXP(ctx, "", 5)
			_, errHuge := svc.GainXP(ctx, "ben", 1e12)

			Convey("Then several levels should be crossed at once", func() {
				So(out.Level, ShouldEqual, 4)
				So(out.LevelsUp, ShouldEqual, 3)
				So(errAmount, ShouldNotBeNil)
				So(errUser, ShouldEqual, service.ErrMissingUser)
			})

			Convey("And a late grant event should not roll the boards back", func() {
				svc.Bus().Publish(ctx, model.TopicXPGained, model.Payload{"user_id": "ben", "amount": 5.0, "xp": 5.0})
				entry, err := svc.Rank(ctx, "ben")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 600)
			})

			Convey("And a grant above gamification.max_grant should be refused", func() {
				So(errors.Is(errHuge, gamification.ErrInvalidAmount), ShouldBeTrue)
				st, _, err := svc.Gamification(ctx, "ben")
				So(err, ShouldBeNil)
				So(st.XP, ShouldEqual, 600)
			})
		})
	})
}
