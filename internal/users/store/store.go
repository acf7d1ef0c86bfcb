// Package store persists user records. Implementations return
// sentinel.ErrNotFound for absence; ownership filtering is part of the query
// surface (FindByIDAndOwner, ListByOwner) so callers never load a record
// first and compare owners afterwards.
package store

import (
	"context"
	"math"

	"github.com/google/uuid"

	"uservault/internal/users/models"

	dErrors "uservault/pkg/domain-errors"
)

// SortField names a sortable record field, using the JSON field names
// clients see.
type SortField string

const (
	SortByName     SortField = "name"
	SortByLastName SortField = "lastName"
	SortByEmail    SortField = "email"
	SortByBirthday SortField = "birthday"
)

// ParseSortField resolves a client-supplied sort field.
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case SortByName, SortByLastName, SortByEmail, SortByBirthday:
		return SortField(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown sort field %q", s)
	}
}

// Sort is a resolved sort order.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is ascending by name, applied when the caller supplies none.
var DefaultSort = Sort{Field: SortByName}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page identifies a bounded, ordered subset of a listing result.
type Page struct {
	Number int // zero-based
	Size   int
	Sort   Sort
}

// UserStore is the record store contract. All operations are owner-aware
// where visibility matters; ties within a sort order resolve by insertion
// order.
type UserStore interface {
	// FindByID looks a record up regardless of owner. It exists for
	// store-internal composition; request paths must use FindByIDAndOwner.
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByIDAndOwner returns the record only when it exists and belongs
	// to owner; any other case is sentinel.ErrNotFound.
	FindByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (*models.User, error)

	// ExistsByIDAndOwner reports whether a record with this id belongs to
	// owner.
	ExistsByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (bool, error)

	// Save assigns an id when the record has none, otherwise overwrites
	// the record with that id.
	Save(ctx context.Context, user *models.User) error

	// DeleteByID removes the record permanently. sentinel.ErrNotFound when
	// absent.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns the owner's records for one page, ordered by the
	// page's sort with insertion-order tie-breaks.
	ListByOwner(ctx context.Context, owner string, page Page) ([]*models.User, error)

	// ListByOwnerAndBirthdayBetween returns the owner's records whose
	// birthday falls within [start, end], both bounds inclusive, ordered
	// by birthday.
	ListByOwnerAndBirthdayBetween(ctx context.Context, owner string, start, end models.Date) ([]*models.User, error)
}

// Normalize fills page defaults and clamps the size.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	// Cap the page number so the offset product cannot overflow.
	if p.Number > math.MaxInt/p.Size {
		p.Number = math.MaxInt / p.Size
	}
	if p.Sort.Field == "" {
		p.Sort = DefaultSort
	}
	return p
}
