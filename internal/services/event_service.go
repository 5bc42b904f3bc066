package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/routines-api/internal/database"
	"github.com/isdelr/routines-api/internal/models"
)

// Event types recorded for account activity.
const (
	EventUserRegister  = "user.register"
	EventUserLogin     = "user.login"
	EventUserLoginFail = "user.login.fail"
)

const sqliteTimestamp = "2006-01-02 15:04:05"

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error
	GetRecentEventsForUser(ctx context.Context, userID int64, limit int) ([]models.Event, error)
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService provides business logic for event management.
type EventService struct {
	db     *sql.DB
	driver string
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, driver string) *EventService {
	return &EventService{db: db, driver: driver}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	_, err := s.db.ExecContext(ctx,
		database.Rebind(s.driver, "INSERT INTO events (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)"),
		event.ID, event.Type, event.Level, event.Message, event.UserID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetRecentEventsForUser retrieves the most recent events for a user, newest first.
func (s *EventService) GetRecentEventsForUser(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	// created_at has second precision on sqlite; rowid keeps insertion order within a second.
	order := "created_at DESC"
	if s.driver == database.DriverSQLite {
		order += ", rowid DESC"
	}

	rows, err := s.db.QueryContext(ctx,
		database.Rebind(s.driver, `
			SELECT id, type, level, message, user_id, created_at
			FROM events WHERE user_id = ?
			ORDER BY `+order+` LIMIT ?`),
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// PruneEventsBefore deletes events created before cutoff and returns how many were removed.
func (s *EventService) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var bound interface{} = cutoff.UTC()
	if s.driver == database.DriverSQLite {
		// CURRENT_TIMESTAMP is stored as text in this layout.
		bound = cutoff.UTC().Format(sqliteTimestamp)
	}

	res, err := s.db.ExecContext(ctx,
		database.Rebind(s.driver, "DELETE FROM events WHERE created_at < ?"), bound)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return n, nil
}
