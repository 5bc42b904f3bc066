package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/isdelr/routines-api/internal/apperrors"
	"github.com/isdelr/routines-api/internal/auth"
	"github.com/isdelr/routines-api/internal/services"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// EventHandler handles HTTP requests related to account activity.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetMine returns the authenticated user's recent activity.
func (h *EventHandler) GetMine(r *http.Request) Result {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return Fail(apperrors.MissingUser())
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := h.service.GetRecentEventsForUser(r.Context(), user.ID, limit)
	if err != nil {
		return Fail(fmt.Errorf("list events: %w", err))
	}
	return OK(events)
}
