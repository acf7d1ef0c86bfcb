//go:build integration

package store

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"uservault/internal/users/models"
	"uservault/pkg/platform/sentinel"
	txcontext "uservault/pkg/platform/tx"
	"uservault/pkg/testutil/containers"
)

type CachedUserStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *InMemoryUserStore
	store   *CachedUserStore
}

func (s *CachedUserStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedUserStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = NewInMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.store = NewCached(s.backing, s.redis.Client, time.Minute, logger)
}

func TestCachedUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedUserStoreSuite))
}

func (s *CachedUserStoreSuite) seed(name, owner string) *models.User {
	u := &models.User{
		Name:     name,
		LastName: "doe",
		Email:    name + ".doe@example.com",
		Birthday: models.NewDate(1990, time.June, 1),
		Owner:    owner,
	}
	s.Require().NoError(s.store.Save(context.Background(), u))
	return u
}

func (s *CachedUserStoreSuite) TestReadThrough() {
	u := s.seed("jane", "admin")

	s.Run("a miss populates the cache", func() {
		found, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)
		s.Equal("jane", found.Name)

		exists, err := s.redis.Client.Exists(context.Background(), cacheKey(u.ID)).Result()
		s.Require().NoError(err)
		s.EqualValues(1, exists)
	})

	s.Run("a hit is served from the cache", func() {
		_, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)

		// Mutate the backing store directly; the cached copy must win
		// until invalidated.
		raw, err := s.backing.FindByID(context.Background(), u.ID)
		s.Require().NoError(err)
		raw.Name = "changed-behind-the-cache"
		s.Require().NoError(s.backing.Save(context.Background(), raw))

		found, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)
		s.Equal("jane", found.Name)
	})

	s.Run("a cached hit still enforces ownership", func() {
		_, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)

		_, err = s.store.FindByIDAndOwner(context.Background(), u.ID, "dario")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CachedUserStoreSuite) TestInvalidation() {
	s.Run("save drops the cached copy", func() {
		u := s.seed("jane", "admin")
		_, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)

		u.Name = "janet"
		s.Require().NoError(s.store.Save(context.Background(), u))

		found, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)
		s.Equal("janet", found.Name)
	})

	s.Run("delete drops the cached copy", func() {
		u := s.seed("bob", "admin")
		_, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().NoError(err)

		s.Require().NoError(s.store.DeleteByID(context.Background(), u.ID))

		_, err = s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		exists, err := s.redis.Client.Exists(context.Background(), cacheKey(u.ID)).Result()
		s.Require().NoError(err)
		s.EqualValues(0, exists)
	})
}

// TestInvalidationWaitsForCommit pins the write-path ordering: inside a
// transaction runner the cached copy must outlive the write until the
// commit hooks fire, so a pre-commit read cannot re-populate stale state.
func (s *CachedUserStoreSuite) TestInvalidationWaitsForCommit() {
	u := s.seed("jane", "admin")
	_, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
	s.Require().NoError(err)

	hooks := txcontext.NewHooks()
	ctx := txcontext.WithHooks(context.Background(), hooks)

	u.Name = "janet"
	s.Require().NoError(s.store.Save(ctx, u))

	exists, err := s.redis.Client.Exists(context.Background(), cacheKey(u.ID)).Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists)

	hooks.Run()

	exists, err = s.redis.Client.Exists(context.Background(), cacheKey(u.ID)).Result()
	s.Require().NoError(err)
	s.EqualValues(0, exists)
}

// TestTransactionalReadsBypassCache wires the cache over the postgres store
// and verifies a lookup inside a real transaction reads the transaction's
// view of the row, not a cached copy.
func TestTransactionalReadsBypassCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	rd := containers.NewRedisContainer(t)

	backing := NewPostgres(pg.DB)
	require.NoError(t, backing.EnsureSchema(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cached := NewCached(backing, rd.Client, time.Minute, logger)

	u := &models.User{
		Name:     "jane",
		LastName: "doe",
		Email:    "jane.doe@example.com",
		Birthday: models.NewDate(1990, time.June, 1),
		Owner:    "admin",
	}
	require.NoError(t, cached.Save(context.Background(), u))

	// Populate the cache, then change the row behind it.
	_, err := cached.FindByIDAndOwner(context.Background(), u.ID, "admin")
	require.NoError(t, err)
	u.Name = "janet"
	require.NoError(t, backing.Save(context.Background(), u))

	plain, err := cached.FindByIDAndOwner(context.Background(), u.ID, "admin")
	require.NoError(t, err)
	require.Equal(t, "jane", plain.Name)

	tx, err := pg.DB.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	inTx, err := cached.FindByIDAndOwner(txcontext.WithTx(context.Background(), tx), u.ID, "admin")
	require.NoError(t, err)
	require.Equal(t, "janet", inTx.Name)
}

func (s *CachedUserStoreSuite) TestCorruptEntryFallsBack() {
	u := s.seed("jane", "admin")

	s.Require().NoError(s.redis.Client.Set(context.Background(), cacheKey(u.ID), "{not json", time.Minute).Err())

	found, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
	s.Require().NoError(err)
	s.Equal("jane", found.Name)
}
