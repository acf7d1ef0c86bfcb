package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"uservault/internal/users/models"
	"uservault/pkg/platform/sentinel"
	txcontext "uservault/pkg/platform/tx"
)

// CachedUserStore is a read-through Redis cache over another UserStore.
// Only single-record owner lookups are cached; listings always hit the
// backing store. Cache failures degrade to the backing store and are logged,
// never surfaced.
//
// Keys are per record id and the cached value carries the owner, so an
// owner-mismatched hit can be answered as not-found without touching the
// backing store (the backing store would answer the same).
type CachedUserStore struct {
	UserStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps a store with a Redis read-through cache.
func NewCached(backing UserStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedUserStore {
	return &CachedUserStore{
		UserStore: backing,
		client:    client,
		ttl:       ttl,
		logger:    logger,
	}
}

func cacheKey(id uuid.UUID) string {
	return "uservault:user:" + id.String()
}

func (s *CachedUserStore) FindByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (*models.User, error) {
	// A transactional read must come from the transaction's own view of the
	// row, never a cached copy.
	if _, ok := txcontext.From(ctx); ok {
		return s.UserStore.FindByIDAndOwner(ctx, id, owner)
	}

	if cached, ok := s.fetch(ctx, id); ok {
		if cached.Owner != owner {
			return nil, sentinel.ErrNotFound
		}
		return cached, nil
	}

	user, err := s.UserStore.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	s.put(ctx, user)
	return user.Clone(), nil
}

// Save writes through and drops any cached copy so the next read repopulates.
func (s *CachedUserStore) Save(ctx context.Context, user *models.User) error {
	if err := s.UserStore.Save(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, user.ID)
	return nil
}

func (s *CachedUserStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.UserStore.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CachedUserStore) fetch(ctx context.Context, id uuid.UUID) (*models.User, bool) {
	raw, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.WarnContext(ctx, "user cache read failed", "error", err)
		return nil, false
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.logger.WarnContext(ctx, "user cache entry corrupt, dropping", "error", err)
		s.invalidate(ctx, id)
		return nil, false
	}
	return &u, true
}

func (s *CachedUserStore) put(ctx context.Context, user *models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		s.logger.WarnContext(ctx, "user cache marshal failed", "error", err)
		return
	}
	if err := s.client.Set(ctx, cacheKey(user.ID), raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "user cache write failed", "error", err)
	}
}

// invalidate drops the cached copy. Inside a transaction the drop waits for
// the commit: dropping earlier would let a concurrent read re-populate the
// cache from the still-visible old row.
func (s *CachedUserStore) invalidate(ctx context.Context, id uuid.UUID) {
	txcontext.AfterCommit(ctx, func() {
		if err := s.client.Del(ctx, cacheKey(id)).Err(); err != nil {
			s.logger.WarnContext(ctx, "user cache invalidation failed", "error", err)
		}
	})
}
