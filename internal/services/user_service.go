package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/routines-api/internal/database"
	"github.com/isdelr/routines-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
// Lookups return (nil, nil) when no matching user exists.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, username, password string) (*models.User, error)
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
}

// UserService provides credential storage backed by SQL.
type UserService struct {
	db         *sql.DB
	driver     string
	bcryptCost int
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, driver string, bcryptCost int) *UserService {
	return &UserService{db: db, driver: driver, bcryptCost: bcryptCost}
}

func (s *UserService) q(query string) string {
	return database.Rebind(s.driver, query)
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT id, username, password FROM users WHERE id = ?"), id)
	return scanUser(row)
}

// GetUserByUsername retrieves a single user by their username. Matching is case-sensitive.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT id, username, password FROM users WHERE username = ?"), username)
	return scanUser(row)
}

// GetUser returns the user whose username and password both match.
func (s *UserService) GetUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// CreateUser creates a new user, hashing their password. It returns (nil, nil)
// when the username was taken concurrently.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO users (username, password) VALUES (?, ?)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, username`), username, string(hashedPassword))

	var user models.User
	if err := row.Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
