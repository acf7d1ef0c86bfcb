// Package service implements the access guard and query semantics for user
// records. Every read and mutation is owner-filtered at the store query, so
// a record owned by another principal is indistinguishable from an absent
// one — the service never loads a record first and compares owners after.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"uservault/internal/platform/metrics"
	"uservault/internal/users/events"
	"uservault/internal/users/models"
	"uservault/internal/users/store"
	"uservault/internal/users/validation"

	dErrors "uservault/pkg/domain-errors"
	"uservault/pkg/platform/sentinel"
)

// UserService orchestrates validation, ownership scoping and persistence.
type UserService struct {
	users     store.UserStore
	validator *validation.Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	tx        StoreTx
}

type serviceConfig struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	tx        StoreTx
}

// Option customizes a UserService.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(c *serviceConfig) { c.publisher = p }
}

// WithTx installs the transaction runner. Without it, an in-memory runner
// serializes mutations, which is correct for the in-memory store only.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

func New(users store.UserStore, validator *validation.Validator, opts ...Option) *UserService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.publisher == nil {
		cfg.publisher = events.NoopPublisher{}
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
	}
	return &UserService{
		users:     users,
		validator: validator,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		publisher: cfg.publisher,
		tx:        cfg.tx,
	}
}

// Get returns the record only when it belongs to principal.
func (s *UserService) Get(ctx context.Context, principal string, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByIDAndOwner(ctx, id, principal)
	if err != nil {
		return nil, notFoundOr(err, "get user")
	}
	return user, nil
}

// List returns one page of the principal's records.
func (s *UserService) List(ctx context.Context, principal string, page store.Page) ([]*models.User, error) {
	users, err := s.users.ListByOwner(ctx, principal, page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// FindBetween returns the principal's records with start <= birthday <= end.
// An inverted range is a client error distinct from a parse failure; an
// empty result is reported as not found.
func (s *UserService) FindBetween(ctx context.Context, principal string, start, end models.Date) ([]*models.User, error) {
	if end.Before(start) {
		return nil, dErrors.New(dErrors.CodeWrongDateOrder, "endDate must not be before startDate")
	}
	users, err := s.users.ListByOwnerAndBirthdayBetween(ctx, principal, start, end)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query birthday range")
	}
	if len(users) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no users with birthday in range")
	}
	return users, nil
}

// Create validates the payload, stamps the owner from the authenticated
// principal and persists. Client-supplied id or owner cannot reach this
// path: the request type has no such fields.
func (s *UserService) Create(ctx context.Context, principal string, req models.UserRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user := &models.User{Owner: principal}
	user.ApplyUpdate(req)

	if err := s.users.Save(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementUsersCreated()
	s.emit(ctx, events.TypeUserCreated, user)
	return user, nil
}

// Update overwrites the mutable fields of the principal's record at id.
// The lookup and the write run in one transaction so a concurrent delete
// cannot interleave; id and owner never change.
func (s *UserService) Update(ctx context.Context, principal string, id uuid.UUID, req models.UserRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	var updated *models.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.FindByIDAndOwner(txCtx, id, principal)
		if err != nil {
			return notFoundOr(err, "update user")
		}
		user.ApplyUpdate(req)
		if err := s.users.Save(txCtx, user); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
		}
		updated = user
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementUsersUpdated()
	s.emit(ctx, events.TypeUserUpdated, updated)
	return nil
}

// Delete permanently removes the principal's record at id.
func (s *UserService) Delete(ctx context.Context, principal string, id uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.users.ExistsByIDAndOwner(txCtx, id, principal)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check user ownership")
		}
		if !exists {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		if err := s.users.DeleteByID(txCtx, id); err != nil {
			return notFoundOr(err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementUsersDeleted()
	s.emit(ctx, events.TypeUserDeleted, &models.User{ID: id, Owner: principal})
	return nil
}

// notFoundOr translates store absence into the uniform not-found domain
// error; anything else is internal.
func notFoundOr(err error, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}

func (s *UserService) emit(ctx context.Context, eventType string, user *models.User) {
	event := events.Event{
		Type:       eventType,
		UserID:     user.ID.String(),
		Owner:      user.Owner,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"type", eventType,
			"user_id", event.UserID,
			"error", err,
		)
	}
}
