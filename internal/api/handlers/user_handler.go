package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/routines-api/internal/apperrors"
	"github.com/isdelr/routines-api/internal/auth"
	"github.com/isdelr/routines-api/internal/models"
	"github.com/isdelr/routines-api/internal/services"
	"github.com/rs/zerolog/log"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// UserHandler handles HTTP requests for accounts and their routines.
type UserHandler struct {
	users    services.UserServiceProvider
	routines services.RoutineServiceProvider
	events   services.EventServiceProvider
	issuer   *auth.TokenIssuer
	secure   bool // Secure flag on the token cookie
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, routines services.RoutineServiceProvider, events services.EventServiceProvider, issuer *auth.TokenIssuer, secureCookies bool) *UserHandler {
	return &UserHandler{users: users, routines: routines, events: events, issuer: issuer, secure: secureCookies}
}

// CredentialsPayload defines the structure for login and registration requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by a successful login or registration.
type AuthResponse struct {
	User    *models.User `json:"user"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
}

func decodeCredentials(r *http.Request) (CredentialsPayload, error) {
	var payload CredentialsPayload
	// An empty body reads as {} so the presence checks still apply.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return payload, apperrors.InvalidBody()
	}
	return payload, nil
}

// Login handles user authentication and token generation.
func (h *UserHandler) Login(r *http.Request) Result {
	payload, err := decodeCredentials(r)
	if err != nil {
		return Fail(err)
	}
	if payload.Username == "" || payload.Password == "" {
		return Fail(apperrors.MissingCredentials())
	}

	user, err := h.users.GetUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		return Fail(fmt.Errorf("lookup credentials: %w", err))
	}
	if user == nil {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		h.recordEvent(r.Context(), services.EventUserLoginFail, "warn",
			fmt.Sprintf("Failed login attempt for '%s'.", payload.Username), h.accountID(r.Context(), payload.Username))
		return Fail(apperrors.IncorrectCredentials())
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		return Fail(err)
	}

	h.recordEvent(r.Context(), services.EventUserLogin, "info", "User logged in.", &user.ID)
	return h.withSession(OK(AuthResponse{User: user, Message: "you're logged in!", Token: token}), token)
}

// Register handles new user registration.
func (h *UserHandler) Register(r *http.Request) Result {
	payload, err := decodeCredentials(r)
	if err != nil {
		return Fail(err)
	}
	if payload.Username == "" || payload.Password == "" {
		return Fail(apperrors.MissingCredentials())
	}

	existing, err := h.users.GetUserByUsername(r.Context(), payload.Username)
	if err != nil {
		return Fail(fmt.Errorf("lookup username: %w", err))
	}
	if existing != nil {
		return FailWithStatus(http.StatusUnauthorized, apperrors.UserExists())
	}
	if len(payload.Password) < MinPasswordLength {
		return FailWithStatus(http.StatusUnauthorized, apperrors.PasswordLength())
	}
	if len(payload.Password) > MaxPasswordBytes {
		return Fail(apperrors.PasswordTooLong(MaxPasswordBytes))
	}

	user, err := h.users.CreateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		return Fail(fmt.Errorf("create user: %w", err))
	}
	if user == nil {
		return Fail(apperrors.UserCreation())
	}
	user.PasswordHash = ""

	token, err := h.issuer.Issue(user)
	if err != nil {
		return Fail(err)
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	h.recordEvent(r.Context(), services.EventUserRegister, "info", "User registered.", &user.ID)
	return h.withSession(OK(AuthResponse{User: user, Message: "you're signed up!", Token: token}), token)
}

// GetMe returns the authenticated user. Routes must be wrapped in auth.RequireUser.
func (h *UserHandler) GetMe(r *http.Request) Result {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return Fail(apperrors.MissingUser())
	}
	return OK(user)
}

// GetRoutines lists a user's routines: all of them for the owner, public ones for everyone else.
func (h *UserHandler) GetRoutines(r *http.Request) Result {
	username := chi.URLParam(r, "username")

	target, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		return Fail(fmt.Errorf("lookup username: %w", err))
	}
	if target == nil {
		return Fail(apperrors.NoUser(username))
	}

	var routines []models.Routine
	if caller, ok := auth.UserFromContext(r.Context()); ok && caller.ID == target.ID {
		routines, err = h.routines.GetAllRoutinesByUser(r.Context(), username)
	} else {
		routines, err = h.routines.GetPublicRoutinesByUser(r.Context(), username)
	}
	if err != nil {
		return Fail(fmt.Errorf("list routines: %w", err))
	}
	return OK(routines)
}

// withSession also hands the token to browsers as an HttpOnly cookie.
func (h *UserHandler) withSession(res Result, token string) Result {
	res.Cookies = append(res.Cookies, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(auth.SessionTTL),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	return res
}

// accountID returns the id of the named account, or nil if there is none.
func (h *UserHandler) accountID(ctx context.Context, username string) *int64 {
	user, err := h.users.GetUserByUsername(ctx, username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to resolve account for event")
		return nil
	}
	if user == nil {
		return nil
	}
	return &user.ID
}

// recordEvent stores an audit event. Failures are logged and never affect the response.
func (h *UserHandler) recordEvent(ctx context.Context, eventType, level, message string, userID *int64) {
	if h.events == nil {
		return
	}
	if err := h.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
