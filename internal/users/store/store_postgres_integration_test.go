//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"uservault/internal/users/models"
	"uservault/pkg/platform/sentinel"
	txcontext "uservault/pkg/platform/tx"
	"uservault/pkg/testutil/containers"
)

// PostgresUserStoreSuite runs the store contract against a real database.
type PostgresUserStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresUserStore
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "users"))
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) save(name, lastName, owner string, birthday models.Date) *models.User {
	u := &models.User{
		Name:     name,
		LastName: lastName,
		Email:    fmt.Sprintf("%s.%s@example.com", name, lastName),
		Birthday: birthday,
		Owner:    owner,
	}
	s.Require().NoError(s.store.Save(context.Background(), u))
	return u
}

func (s *PostgresUserStoreSuite) TestSaveRoundTrip() {
	u := &models.User{
		Name:        "jane",
		LastName:    "doe",
		Email:       "jane.doe@example.com",
		Birthday:    models.NewDate(1990, time.June, 1),
		PhoneNumber: "555-0100",
		Address:     "1 Main St",
		Owner:       "admin",
	}
	s.Require().NoError(s.store.Save(context.Background(), u))
	s.Require().NotEqual(uuid.Nil, u.ID)

	found, err := s.store.FindByID(context.Background(), u.ID)
	s.Require().NoError(err)
	s.Equal("jane", found.Name)
	s.Equal("1990-06-01", found.Birthday.String())
	s.Equal("555-0100", found.PhoneNumber)
	s.Equal("admin", found.Owner)
}

func (s *PostgresUserStoreSuite) TestSaveOverwritesByID() {
	u := s.save("jane", "doe", "admin", models.NewDate(1990, time.June, 1))

	u.Name = "janet"
	u.Email = "janet.doe@example.com"
	s.Require().NoError(s.store.Save(context.Background(), u))

	found, err := s.store.FindByID(context.Background(), u.ID)
	s.Require().NoError(err)
	s.Equal("janet", found.Name)
	s.Equal("janet.doe@example.com", found.Email)
	s.Equal("admin", found.Owner)
}

func (s *PostgresUserStoreSuite) TestOwnerFilteredLookup() {
	u := s.save("jane", "doe", "admin", models.NewDate(1990, time.June, 1))

	found, err := s.store.FindByIDAndOwner(context.Background(), u.ID, "admin")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	_, err = s.store.FindByIDAndOwner(context.Background(), u.ID, "dario")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	exists, err := s.store.ExistsByIDAndOwner(context.Background(), u.ID, "admin")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByIDAndOwner(context.Background(), u.ID, "dario")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresUserStoreSuite) TestDelete() {
	u := s.save("jane", "doe", "admin", models.NewDate(1990, time.June, 1))

	s.Require().NoError(s.store.DeleteByID(context.Background(), u.ID))

	_, err := s.store.FindByID(context.Background(), u.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.DeleteByID(context.Background(), u.ID), sentinel.ErrNotFound)
}

// TestRowLockBlocksConcurrentDelete pins the update path's isolation: a
// transactional lookup locks the row, so a delete arriving mid-update waits
// for the commit and the deleted record can never be written back to life.
func (s *PostgresUserStoreSuite) TestRowLockBlocksConcurrentDelete() {
	u := s.save("jane", "doe", "admin", models.NewDate(1990, time.June, 1))

	ctx := context.Background()
	tx, err := s.pg.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	defer tx.Rollback()

	txCtx := txcontext.WithTx(ctx, tx)
	_, err = s.store.FindByIDAndOwner(txCtx, u.ID, "admin")
	s.Require().NoError(err)

	deleted := make(chan error, 1)
	go func() { deleted <- s.store.DeleteByID(ctx, u.ID) }()

	select {
	case <-deleted:
		s.Fail("delete was not blocked by the row lock")
	case <-time.After(200 * time.Millisecond):
	}

	u.Name = "janet"
	s.Require().NoError(s.store.Save(txCtx, u))
	s.Require().NoError(tx.Commit())

	s.Require().NoError(<-deleted)

	// The delete lands after the update commits; the record stays gone.
	_, err = s.store.FindByID(ctx, u.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestListByOwner() {
	s.save("charlie", "zeta", "admin", models.NewDate(1990, time.June, 1))
	s.save("alice", "young", "admin", models.NewDate(1985, time.June, 1))
	s.save("bob", "xi", "admin", models.NewDate(1995, time.June, 1))
	s.save("eve", "mallory", "dario", models.NewDate(1992, time.June, 1))

	s.Run("defaults to ascending by name and filters by owner", func() {
		users, err := s.store.ListByOwner(context.Background(), "admin", Page{})
		s.Require().NoError(err)
		s.Equal([]string{"alice", "bob", "charlie"}, names(users))
	})

	s.Run("sorts descending by last name", func() {
		users, err := s.store.ListByOwner(context.Background(), "admin",
			Page{Sort: Sort{Field: SortByLastName, Desc: true}})
		s.Require().NoError(err)
		s.Equal([]string{"zeta", "young", "xi"}, lastNames(users))
	})

	s.Run("pages through results", func() {
		first, err := s.store.ListByOwner(context.Background(), "admin", Page{Number: 0, Size: 2})
		s.Require().NoError(err)
		s.Equal([]string{"alice", "bob"}, names(first))

		second, err := s.store.ListByOwner(context.Background(), "admin", Page{Number: 1, Size: 2})
		s.Require().NoError(err)
		s.Equal([]string{"charlie"}, names(second))
	})

	s.Run("ties resolve by insertion order", func() {
		s.Require().NoError(s.pg.TruncateTables(context.Background(), "users"))
		first := s.save("sam", "first", "admin", models.NewDate(1990, time.June, 1))
		second := s.save("sam", "second", "admin", models.NewDate(1990, time.June, 1))

		users, err := s.store.ListByOwner(context.Background(), "admin", Page{})
		s.Require().NoError(err)
		s.Require().Len(users, 2)
		s.Equal(first.ID, users[0].ID)
		s.Equal(second.ID, users[1].ID)
	})
}

func (s *PostgresUserStoreSuite) TestListByOwnerAndBirthdayBetween() {
	s.save("alice", "young", "admin", models.NewDate(1985, time.January, 1))
	s.save("bob", "xi", "admin", models.NewDate(1990, time.June, 15))
	s.save("charlie", "zeta", "admin", models.NewDate(1995, time.December, 31))
	s.save("eve", "mallory", "dario", models.NewDate(1990, time.June, 15))

	s.Run("both bounds are inclusive and owner-scoped", func() {
		users, err := s.store.ListByOwnerAndBirthdayBetween(context.Background(), "admin",
			models.NewDate(1985, time.January, 1), models.NewDate(1995, time.December, 31))
		s.Require().NoError(err)
		s.Equal([]string{"alice", "bob", "charlie"}, names(users))
	})

	s.Run("excludes birthdays outside the range", func() {
		users, err := s.store.ListByOwnerAndBirthdayBetween(context.Background(), "admin",
			models.NewDate(1985, time.January, 2), models.NewDate(1995, time.December, 30))
		s.Require().NoError(err)
		s.Equal([]string{"bob"}, names(users))
	})

	s.Run("empty range yields an empty slice", func() {
		users, err := s.store.ListByOwnerAndBirthdayBetween(context.Background(), "admin",
			models.NewDate(1900, time.January, 1), models.NewDate(1901, time.January, 1))
		s.Require().NoError(err)
		s.Empty(users)
	})
}
