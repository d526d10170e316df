// Package service wires the engagement components together through the
// event bus and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportiq/internal/adapters/catalog"
	"github.com/okian/sportiq/internal/adapters/mq/broker"
	"github.com/okian/sportiq/internal/adapters/repository"
	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/dedupe"
	"github.com/okian/sportiq/internal/domain/gamification"
	"github.com/okian/sportiq/internal/domain/interest"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/internal/domain/ranking"
	"github.com/okian/sportiq/internal/domain/types"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// defaultTopInterests is how many topics Profile reports.
const defaultTopInterests = 10

// Service owns one interest tracker and one leveler per fan, plus the
// shared ranker, leaderboards and content catalog. Components talk to each
// other only through the bus.
type Service struct {
	mu sync.RWMutex

	cfg    *config.Config
	kv     storage.KV
	ownsKV bool

	// Core components
	bus      bus.Bus
	broker   *broker.Broker
	deduper  dedupe.Deduper
	ranker   *ranking.Ranker
	boards   *repository.Leaderboards
	catalog  *catalog.Catalog
	usersMu  sync.Mutex
	trackers map[string]*interest.Tracker
	levelers map[string]*gamification.Leveler

	rand    rand.Source
	now     func() time.Time
	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration. Nothing runs until
// Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store, builds the bus selected by configuration and
// subscribes every component to it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting engagement service...")

	if s.kv == nil {
		kv, err := storage.Open(ctx, s.cfg.Storage.Driver, s.cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.kv, s.ownsKV = kv, true
	}

	if s.cfg.Bus.Mode == config.BusSync {
		s.bus = bus.NewLocal(bus.WithLogger(s.logger.Named("bus")))
	} else {
		// Workers outlive the start request; Stop closes them.
		s.broker = broker.New(context.WithoutCancel(ctx),
			broker.WithShards(s.cfg.Bus.Shards),
			broker.WithQueueCapacity(s.cfg.Bus.QueueCapacity),
			broker.WithLogger(s.logger.Named("broker")),
		)
		s.bus = s.broker
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))

	rankOpts := []ranking.Option{
		ranking.WithWeights(ranking.Weights{
			Interest:   s.cfg.Ranking.Interest,
			Recency:    s.cfg.Ranking.Recency,
			Popularity: s.cfg.Ranking.Popularity,
			Discovery:  s.cfg.Ranking.Discovery,
			DecayHours: s.cfg.Ranking.DecayHours,
		}),
		ranking.WithBus(s.bus),
		ranking.WithClock(s.now),
		ranking.WithLogger(s.logger.Named("ranking")),
	}
	if s.rand != nil {
		rankOpts = append(rankOpts, ranking.WithRandSource(s.rand))
	}
	s.ranker = ranking.NewRanker(rankOpts...)

	s.boards = repository.NewLeaderboards(ctx,
		repository.WithMaxSize(s.cfg.Leaderboard.MaxSize),
		repository.WithStore(s.kv),
		repository.WithBus(s.bus),
		repository.WithClock(s.now),
		repository.WithLogger(s.logger.Named("leaderboard")),
	)
	s.catalog = catalog.New(ctx,
		catalog.WithStore(s.kv),
		catalog.WithClock(s.now),
		catalog.WithLogger(s.logger.Named("catalog")),
	)
	s.trackers = make(map[string]*interest.Tracker)
	s.levelers = make(map[string]*gamification.Leveler)

	s.subscribe()

	s.started = true
	s.logger.Info(ctx, "engagement service started",
		logger.String("bus", s.cfg.Bus.Mode),
		logger.String("storage", s.cfg.Storage.Driver),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
		logger.Int("catalog", s.catalog.Len()),
	)

	return nil
}

// Stop shuts the broker down and closes the store if the service opened
// it. Events still queued are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping engagement service...")

	var errs []error
	if s.broker != nil {
		if err := s.broker.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
		s.broker = nil
	}
	if s.ownsKV {
		if err := s.kv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.kv, s.ownsKV = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "engagement service stopped")
	return errors.Join(errs...)
}

// Bus returns the bus the components are wired to.
func (s *Service) Bus() bus.Bus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bus
}

// SubmitInteraction publishes a fan:interaction event. An interaction whose
// EventID was already seen is reported as a duplicate and not published
// again.
func (s *Service) SubmitInteraction(ctx context.Context, in types.Submission) (bool, error) {
	userID, err := normalizeUser(in.UserID)
	if err != nil {
		return false, err
	}
	if !in.Type.Valid() {
		return false, fmt.Errorf("%w: %q", interest.ErrUnknownInteraction, in.Type)
	}
	in.UserID = userID

	if in.EventID != "" && s.deduper.SeenAndRecord(ctx, in.EventID) {
		metrics.RecordInteractionDuplicate()
		s.logger.Debug(ctx, "duplicate interaction skipped",
			logger.String("eventID", in.EventID),
			logger.String("userID", userID),
		)
		return true, nil
	}

	if err := s.publish(ctx, model.TopicFanInteraction, interactionPayload(in)); err != nil {
		if in.EventID != "" {
			s.deduper.Unrecord(ctx, in.EventID)
		}
		return false, err
	}
	return false, nil
}

// Signal publishes a page-level signal (article:view, ui:click or
// search:query). Signals only feed the interest profile.
func (s *Service) Signal(ctx context.Context, topic, userID string, md model.Metadata) error {
	if _, ok := signalKinds[topic]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	userID, err := normalizeUser(userID)
	if err != nil {
		return err
	}
	return s.publish(ctx, topic, model.Payload{
		"user_id":  userID,
		"tags":     md.Tags,
		"category": md.Category,
		"item_id":  md.ItemID,
	})
}

// AddContent publishes content:new; the catalog picks it up from the bus.
func (s *Service) AddContent(ctx context.Context, item model.ContentItem) (model.ContentItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return model.ContentItem{}, fmt.Errorf("%w: missing id", catalog.ErrInvalidItem)
	}
	if item.PublishedAt.IsZero() {
		item.PublishedAt = s.now()
	}
	if err := s.publish(ctx, model.TopicContentNew, model.Payload{"id": item.ID, "item": item}); err != nil {
		return model.ContentItem{}, err
	}
	return item, nil
}

// Content returns the catalog in insertion order.
func (s *Service) Content(ctx context.Context) []model.ContentItem {
	return s.catalog.List(ctx)
}

// ContentItem returns the catalog item with id.
func (s *Service) ContentItem(ctx context.Context, id string) (model.ContentItem, error) {
	return s.catalog.Get(ctx, strings.TrimSpace(id))
}

// RemoveContent withdraws id from the catalog so it is no longer
// recommended.
func (s *Service) RemoveContent(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.catalog.Remove(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "content removed", logger.String("itemID", id))
	return nil
}

// Profile returns the interest profile of userID and its strongest topics.
func (s *Service) Profile(ctx context.Context, userID string) (interest.Profile, []interest.Interest, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return interest.Profile{}, nil, err
	}
	t := s.tracker(ctx, userID)
	return t.Snapshot(), t.TopInterests(defaultTopInterests), nil
}

// ApplyDecay decays the interest vector of userID.
func (s *Service) ApplyDecay(ctx context.Context, userID string) (interest.DecayResult, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return interest.DecayResult{}, err
	}
	return s.tracker(ctx, userID).ApplyDecay(ctx), nil
}

// DecaySweep applies decay to every known profile, persisted or in memory,
// and returns how many profiles it visited. Profiles loaded by the sweep
// are decayed on load.
func (s *Service) DecaySweep(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, storage.KeyProfilePrefix)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	users := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		users[strings.TrimPrefix(k, storage.KeyProfilePrefix)] = struct{}{}
	}
	s.usersMu.Lock()
	for id := range s.trackers {
		users[id] = struct{}{}
	}
	s.usersMu.Unlock()

	visited, pruned := 0, 0
	for id := range users {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		pruned += s.tracker(ctx, id).ApplyDecay(ctx).Pruned
		visited++
	}

	s.logger.Info(ctx, "decay sweep finished",
		logger.Int("profiles", visited),
		logger.Int("pruned", pruned),
	)
	return visited, nil
}

// Recommend ranks the catalog for userID. currentID names the item being
// read, which is never recommended; limit 0 means no limit.
func (s *Service) Recommend(ctx context.Context, userID, currentID string, limit int) ([]ranking.Scored, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return nil, err
	}
	interests := s.tracker(ctx, userID).Snapshot().Interests
	return s.ranker.Recommend(ctx, userID, s.catalog.List(ctx), currentID, interests, limit), nil
}

// GainXP grants amount experience points to userID.
func (s *Service) GainXP(ctx context.Context, userID string, amount float64) (gamification.Outcome, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return gamification.Outcome{}, err
	}
	return s.leveler(ctx, userID).GainXP(ctx, amount)
}

// RecordAchievement advances the badge progress of userID for action.
func (s *Service) RecordAchievement(ctx context.Context, userID, action string) (gamification.Outcome, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return gamification.Outcome{}, err
	}
	return s.leveler(ctx, userID).UpdateAchievementProgress(ctx, action)
}

// Gamification returns the state and level progress of userID.
func (s *Service) Gamification(ctx context.Context, userID string) (gamification.State, gamification.Progress, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return gamification.State{}, gamification.Progress{}, err
	}
	l := s.leveler(ctx, userID)
	return l.Snapshot(), l.Progress(), nil
}

// Badges returns the badge catalog in effect.
func (s *Service) Badges() []gamification.Badge {
	if len(s.cfg.Gamification.Badges) == 0 {
		return gamification.DefaultBadges()
	}
	return configBadges(s.cfg.Gamification.Badges)
}

// UpsertEntry merges patch into board.
func (s *Service) UpsertEntry(ctx context.Context, board repository.Board, patch repository.EntryPatch) (repository.Entry, error) {
	return s.boards.Upsert(ctx, board, patch)
}

// TopN returns the first n entries of board. n is clamped to the configured
// maximum; 0 asks for the maximum.
func (s *Service) TopN(ctx context.Context, board repository.Board, n int) ([]repository.Entry, error) {
	if n == 0 || n > s.cfg.MaxLeaderboardLimit {
		n = s.cfg.MaxLeaderboardLimit
	}
	return s.boards.TopN(ctx, board, n)
}

// Rank returns the all-time entry of userID.
func (s *Service) Rank(ctx context.Context, userID string) (repository.Entry, error) {
	return s.boards.Rank(ctx, repository.BoardAllTime, strings.TrimSpace(userID))
}

// UserRank returns the 1-based all-time position of userID, 0 when absent.
func (s *Service) UserRank(ctx context.Context, userID string) int {
	return s.boards.UserRank(ctx, strings.TrimSpace(userID))
}

// ResetBoard empties board.
func (s *Service) ResetBoard(ctx context.Context, board repository.Board) error {
	return s.boards.Reset(ctx, board)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{
		Started: s.started,
		BusMode: s.cfg.Bus.Mode,
		Boards:  make(map[string]int, len(repository.Boards)),
	}
	if !s.started {
		return st
	}

	if s.broker != nil {
		st.Shards = s.broker.Shards()
		st.Pending = s.broker.Pending(ctx)
	}
	s.usersMu.Lock()
	st.Profiles = len(s.trackers)
	st.Players = len(s.levelers)
	s.usersMu.Unlock()
	st.Catalog = s.catalog.Len()
	for _, b := range repository.Boards {
		st.Boards[string(b)] = s.boards.Count(ctx, b)
	}
	st.BoardCap = s.boards.MaxSize()
	st.DedupeSize = s.deduper.Size()

	metrics.UpdateActiveProfiles(st.Profiles)
	metrics.UpdateCatalogSize(st.Catalog)
	return st
}

func (s *Service) publish(ctx context.Context, topic string, payload model.Payload) error {
	if s.broker != nil {
		if err := s.broker.TryPublish(ctx, topic, payload); err != nil {
			return fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return nil
	}
	s.bus.Publish(ctx, topic, payload)
	return nil
}

// tracker returns the interest tracker of userID, loading it on first use.
func (s *Service) tracker(ctx context.Context, userID string) *interest.Tracker {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if t, ok := s.trackers[userID]; ok {
		return t
	}
	t := interest.NewTracker(ctx, userID,
		interest.WithStore(s.kv),
		interest.WithBus(s.bus),
		interest.WithWeights(s.cfg.Interest.Weights),
		interest.WithDecayRate(s.cfg.Interest.DecayRate),
		interest.WithHistoryCapacity(s.cfg.Interest.HistorySize),
		interest.WithClock(s.now),
		interest.WithLogger(s.logger.Named("interest")),
	)
	s.trackers[userID] = t
	metrics.UpdateActiveProfiles(len(s.trackers))
	return t
}

// leveler returns the leveler of userID, loading it on first use.
func (s *Service) leveler(ctx context.Context, userID string) *gamification.Leveler {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if l, ok := s.levelers[userID]; ok {
		return l
	}
	opts := []gamification.Option{
		gamification.WithCurve(s.cfg.Gamification.XPBase, s.cfg.Gamification.XPMultiplier),
		gamification.WithMaxGrant(s.cfg.Gamification.MaxGrant),
		gamification.WithStore(s.kv),
		gamification.WithBus(s.bus),
		gamification.WithClock(s.now),
		gamification.WithLogger(s.logger.Named("gamification")),
	}
	if len(s.cfg.Gamification.Badges) > 0 {
		opts = append(opts, gamification.WithBadges(configBadges(s.cfg.Gamification.Badges)))
	}
	l := gamification.NewLeveler(ctx, userID, opts...)
	s.levelers[userID] = l
	return l
}

func configBadges(in []config.BadgeConfig) []gamification.Badge {
	out := make([]gamification.Badge, 0, len(in))
	for _, b := range in {
		out = append(out, gamification.Badge{
			ID:        b.ID,
			Name:      b.Name,
			Action:    b.Action,
			Threshold: b.Threshold,
			XPReward:  b.XPReward,
		})
	}
	return out
}

func normalizeUser(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingUser
	}
	return id, nil
}
