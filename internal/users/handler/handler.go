// Package handler is the HTTP surface for the /users resource. It parses
// transport concerns (path params, query strings, JSON bodies), delegates to
// the service and maps domain error codes onto status codes. No ownership or
// validation logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"uservault/internal/platform/metrics"
	"uservault/internal/platform/middleware"
	"uservault/internal/users/models"
	"uservault/internal/users/store"

	dErrors "uservault/pkg/domain-errors"
)

// Service defines the interface for user record operations.
type Service interface {
	Get(ctx context.Context, principal string, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, principal string, page store.Page) ([]*models.User, error)
	FindBetween(ctx context.Context, principal string, start, end models.Date) ([]*models.User, error)
	Create(ctx context.Context, principal string, req models.UserRequest) (*models.User, error)
	Update(ctx context.Context, principal string, id uuid.UUID, req models.UserRequest) error
	Delete(ctx context.Context, principal string, id uuid.UUID) error
}

// Handler handles the /users endpoints.
type Handler struct {
	logger       *slog.Logger
	users        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a users Handler.
func New(users Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		users:        users,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the /users routes with their middleware chain. Order
// matters for the date-range route: two path segments never collide with the
// single-segment id route.
func (h *Handler) Register(r chi.Router) {
	usersRouter := chi.NewRouter()
	usersRouter.Use(middleware.Recovery(h.logger))
	usersRouter.Use(middleware.RequestID)
	usersRouter.Use(middleware.Logger(h.logger))
	usersRouter.Use(middleware.Tracing("uservault"))
	usersRouter.Use(middleware.Timeout(30 * time.Second))
	usersRouter.Use(middleware.Latency(h.metrics))
	usersRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	usersRouter.Use(middleware.RequireRole("user-owner", h.logger))

	usersRouter.Get("/users", h.handleList)
	usersRouter.Get("/users/{id}", h.handleGet)
	usersRouter.Get("/users/{startDate}/{endDate}", h.handleFindBetween)
	usersRouter.Post("/users", h.handleCreate)
	usersRouter.Put("/users/{id}", h.handleUpdate)
	usersRouter.Delete("/users/{id}", h.handleDelete)

	r.Mount("/", usersRouter)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		// Malformed ids share the not-found answer: the id space is opaque
		// and nothing distinguishes an unparseable id from an absent one.
		h.writeError(ctx, w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	user, err := h.users.Get(ctx, principal, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, user)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	page, err := parseListQuery(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid list query",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(ctx, w, err)
		return
	}

	users, err := h.users.List(ctx, principal, page)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, users)
}

func (h *Handler) handleFindBetween(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	start, err := models.ParseDate(chi.URLParam(r, "startDate"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	end, err := models.ParseDate(chi.URLParam(r, "endDate"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	users, err := h.users.FindBetween(ctx, principal, start, end)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, users)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	req, err := decodeUserRequest(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid create request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(ctx, w, err)
		return
	}

	user, err := h.users.Create(ctx, principal, req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	w.Header().Set("Location", "/users/"+user.ID.String())
	h.writeJSON(ctx, w, http.StatusCreated, user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	req, err := decodeUserRequest(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid update request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(ctx, w, err)
		return
	}

	if err := h.users.Update(ctx, principal, id, req); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	if err := h.users.Delete(ctx, principal, id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func decodeUserRequest(r *http.Request) (models.UserRequest, error) {
	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Date parse failures inside the body surface their own coded
		// error; everything else is a plain bad request.
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return models.UserRequest{}, err
		}
		return models.UserRequest{}, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return req, nil
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
	}
}

// writeError translates a domain error into its transport status with a
// consistent JSON envelope. Internal causes are logged, never echoed.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "request failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             string(code),
		"error_description": dErrors.MessageOf(err),
	})
}
