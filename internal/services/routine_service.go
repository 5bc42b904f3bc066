package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/isdelr/routines-api/internal/database"
	"github.com/isdelr/routines-api/internal/models"
)

// RoutineServiceProvider defines the interface for routine queries.
type RoutineServiceProvider interface {
	GetAllRoutinesByUser(ctx context.Context, username string) ([]models.Routine, error)
	GetPublicRoutinesByUser(ctx context.Context, username string) ([]models.Routine, error)
}

// RoutineService provides read access to routines.
type RoutineService struct {
	db     *sql.DB
	driver string
}

// NewRoutineService creates a new RoutineService.
func NewRoutineService(db *sql.DB, driver string) *RoutineService {
	return &RoutineService{db: db, driver: driver}
}

const routineColumns = `
	SELECT r.id, r.creator_id, u.username, r.is_public, r.name, r.goal
	FROM routines r
	JOIN users u ON u.id = r.creator_id`

// GetAllRoutinesByUser returns every routine owned by username, public and private.
func (s *RoutineService) GetAllRoutinesByUser(ctx context.Context, username string) ([]models.Routine, error) {
	query := database.Rebind(s.driver, routineColumns+" WHERE u.username = ? ORDER BY r.id")
	return s.queryRoutines(ctx, query, username)
}

// GetPublicRoutinesByUser returns only the public routines owned by username.
func (s *RoutineService) GetPublicRoutinesByUser(ctx context.Context, username string) ([]models.Routine, error) {
	query := database.Rebind(s.driver, routineColumns+" WHERE u.username = ? AND r.is_public = ? ORDER BY r.id")
	return s.queryRoutines(ctx, query, username, true)
}

func (s *RoutineService) queryRoutines(ctx context.Context, query string, args ...interface{}) ([]models.Routine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query routines: %w", err)
	}
	defer rows.Close()

	routines := []models.Routine{}
	for rows.Next() {
		var r models.Routine
		if err := rows.Scan(&r.ID, &r.CreatorID, &r.CreatorName, &r.IsPublic, &r.Name, &r.Goal); err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routines: %w", err)
	}
	return routines, nil
}
