package service

import (
	"context"
	"time"

	"github.com/okian/sportiq/internal/adapters/repository"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/internal/domain/types"
	"github.com/okian/sportiq/pkg/logger"
)

// signalKinds maps page-level topics to the interaction they count as.
var signalKinds = map[string]model.InteractionType{
	model.TopicArticleView: model.InteractionView,
	model.TopicUIClick:     model.InteractionClick,
	model.TopicSearchQuery: model.InteractionSearch,
}

// SignalTopics lists the topics accepted by Signal.
func SignalTopics() []string {
	return []string{model.TopicArticleView, model.TopicUIClick, model.TopicSearchQuery}
}

func (s *Service) subscribe() {
	for _, topic := range SignalTopics() {
		s.bus.Subscribe(topic, s.onSignal(signalKinds[topic]))
	}
	s.bus.Subscribe(model.TopicFanInteraction, s.onInteraction)
	s.bus.Subscribe(model.TopicXPGained, s.onXPGained)
	s.bus.Subscribe(model.TopicContentNew, s.onContent)
}

func (s *Service) onSignal(kind model.InteractionType) func(context.Context, model.Event) {
	return func(ctx context.Context, e model.Event) {
		userID := e.Payload.String("user_id")
		if userID == "" {
			s.logger.Warn(ctx, "signal without user", logger.String("topic", e.Topic), logger.String("eventID", e.ID))
			return
		}
		if err := s.tracker(ctx, userID).TrackInteraction(ctx, kind, metadataFrom(e.Payload)); err != nil {
			s.logger.Warn(ctx, "signal rejected", logger.String("topic", e.Topic), logger.Error(err))
		}
	}
}

// onInteraction feeds the interest profile, the badge counters and the XP
// total of the fan.
func (s *Service) onInteraction(ctx context.Context, e model.Event) {
	userID := e.Payload.String("user_id")
	kind := model.InteractionType(e.Payload.String("type"))
	if userID == "" {
		s.logger.Warn(ctx, "interaction without user", logger.String("eventID", e.ID))
		return
	}

	t := s.tracker(ctx, userID)
	if err := t.TrackInteraction(ctx, kind, metadataFrom(e.Payload)); err != nil {
		s.logger.Warn(ctx, "interaction rejected",
			logger.String("eventID", e.ID),
			logger.String("type", string(kind)),
			logger.Error(err),
		)
		return
	}

	l := s.leveler(ctx, userID)
	if _, err := l.UpdateAchievementProgress(ctx, string(kind)); err != nil {
		s.logger.Warn(ctx, "achievement update failed", logger.String("userID", userID), logger.Error(err))
	}
	if w := t.Weight(kind); w > 0 {
		if _, err := l.GainXP(ctx, w); err != nil {
			s.logger.Warn(ctx, "xp grant failed", logger.String("userID", userID), logger.Error(err))
		}
	}
}

// onXPGained mirrors the fan's XP total onto every board. Grant events can
// arrive out of order, so the leveler's current total wins over an older
// payload.
func (s *Service) onXPGained(ctx context.Context, e model.Event) {
	userID := e.Payload.String("user_id")
	xp, ok := e.Payload.Float("xp")
	if userID == "" || !ok {
		s.logger.Warn(ctx, "malformed xp event", logger.String("eventID", e.ID))
		return
	}
	xp = max(xp, s.leveler(ctx, userID).Progress().XP)

	now := s.now()
	for _, b := range repository.Boards {
		score := xp
		patch := repository.EntryPatch{UserID: userID, Score: &score, LastActive: &now}
		if _, err := s.boards.Upsert(ctx, b, patch); err != nil {
			s.logger.Warn(ctx, "leaderboard upsert failed",
				logger.String("board", string(b)),
				logger.String("userID", userID),
				logger.Error(err),
			)
		}
	}
}

func (s *Service) onContent(ctx context.Context, e model.Event) {
	item, ok := contentFrom(e.Payload)
	if !ok {
		s.logger.Warn(ctx, "malformed content event", logger.String("eventID", e.ID))
		return
	}
	if _, err := s.catalog.Add(ctx, item); err != nil {
		s.logger.Warn(ctx, "content rejected", logger.String("itemID", item.ID), logger.Error(err))
	}
}

func interactionPayload(in types.Submission) model.Payload {
	return model.Payload{
		"event_id": in.EventID,
		"user_id":  in.UserID,
		"type":     string(in.Type),
		"tags":     in.Metadata.Tags,
		"category": in.Metadata.Category,
		"item_id":  in.Metadata.ItemID,
	}
}

func metadataFrom(p model.Payload) model.Metadata {
	return model.Metadata{
		Tags:     p.Strings("tags"),
		Category: p.String("category"),
		ItemID:   p.String("item_id"),
	}
}

// contentFrom accepts either a typed item under "item" or flat fields, so
// external publishers can emit content:new with plain JSON.
func contentFrom(p model.Payload) (model.ContentItem, bool) {
	if item, ok := p["item"].(model.ContentItem); ok {
		return item, item.ID != ""
	}

	item := model.ContentItem{
		ID:       p.String("id"),
		Title:    p.String("title"),
		Tags:     p.Strings("tags"),
		Category: p.String("category"),
	}
	item.Popularity, _ = p.Float("popularity")
	if ts := p.String("published_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			item.PublishedAt = t
		}
	}
	return item, item.ID != ""
}
