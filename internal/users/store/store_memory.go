package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"uservault/internal/users/models"
	"uservault/pkg/platform/sentinel"
)

// InMemoryUserStore keeps records in a map guarded by a RWMutex. A monotonic
// sequence records insertion order so sort ties resolve deterministically,
// matching the postgres store's bigserial column.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*memoryRecord
	nextSeq uint64
}

type memoryRecord struct {
	user *models.User
	seq  uint64
}

// NewInMemory creates an empty in-memory user store.
func NewInMemory() *InMemoryUserStore {
	return &InMemoryUserStore{records: make(map[uuid.UUID]*memoryRecord)}
}

func (s *InMemoryUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.user.Clone(), nil
}

func (s *InMemoryUserStore) FindByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.user.Owner != owner {
		return nil, sentinel.ErrNotFound
	}
	return rec.user.Clone(), nil
}

func (s *InMemoryUserStore) ExistsByIDAndOwner(ctx context.Context, id uuid.UUID, owner string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	return ok && rec.user.Owner == owner, nil
}

func (s *InMemoryUserStore) Save(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if existing, ok := s.records[user.ID]; ok {
		existing.user = user.Clone()
		return nil
	}
	s.nextSeq++
	s.records[user.ID] = &memoryRecord{user: user.Clone(), seq: s.nextSeq}
	return nil
}

func (s *InMemoryUserStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *InMemoryUserStore) ListByOwner(ctx context.Context, owner string, page Page) ([]*models.User, error) {
	page = page.Normalize()

	s.mu.RLock()
	owned := s.ownedByInsertion(owner)
	s.mu.RUnlock()

	sortRecords(owned, page.Sort)

	start := page.Number * page.Size
	if start >= len(owned) {
		return []*models.User{}, nil
	}
	end := start + page.Size
	if end > len(owned) {
		end = len(owned)
	}

	out := make([]*models.User, 0, end-start)
	for _, rec := range owned[start:end] {
		out = append(out, rec.user.Clone())
	}
	return out, nil
}

func (s *InMemoryUserStore) ListByOwnerAndBirthdayBetween(ctx context.Context, owner string, start, end models.Date) ([]*models.User, error) {
	s.mu.RLock()
	owned := s.ownedByInsertion(owner)
	s.mu.RUnlock()

	out := []*models.User{}
	for _, rec := range owned {
		b := rec.user.Birthday
		if b.Before(start) || b.After(end) {
			continue
		}
		out = append(out, rec.user.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Birthday.Before(out[j].Birthday)
	})
	return out, nil
}

// ownedByInsertion snapshots the owner's records in insertion order.
// Must be called while holding at least a read lock.
func (s *InMemoryUserStore) ownedByInsertion(owner string) []*memoryRecord {
	owned := make([]*memoryRecord, 0)
	for _, rec := range s.records {
		if rec.user.Owner == owner {
			owned = append(owned, rec)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })
	return owned
}

// sortRecords orders records by the sort key; the stable sort preserves the
// insertion order produced by ownedByInsertion for ties.
func sortRecords(recs []*memoryRecord, by Sort) {
	less := lessFunc(by.Field)
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].user, recs[j].user
		if by.Desc {
			a, b = b, a
		}
		return less(a, b)
	})
}

func lessFunc(field SortField) func(a, b *models.User) bool {
	switch field {
	case SortByLastName:
		return func(a, b *models.User) bool { return strings.Compare(a.LastName, b.LastName) < 0 }
	case SortByEmail:
		return func(a, b *models.User) bool { return strings.Compare(a.Email, b.Email) < 0 }
	case SortByBirthday:
		return func(a, b *models.User) bool { return a.Birthday.Before(b.Birthday) }
	default:
		return func(a, b *models.User) bool { return strings.Compare(a.Name, b.Name) < 0 }
	}
}
