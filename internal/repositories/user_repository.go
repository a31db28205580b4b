package repositories

import (
	"errors"

	"userapi/internal/models"
)

// Sentinel errors returned by UserRepository implementations so callers
// can map persistence outcomes to specific HTTP statuses instead of
// inspecting driver error strings.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNoFields       = errors.New("no fields to update")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	// GetAll returns all users without their password hashes.
	GetAll() ([]models.User, error)
	// Update applies the given column/value pairs to the user and
	// returns the refreshed record.
	Update(id uint, fields map[string]interface{}) (*models.User, error)
	Delete(id uint) error
}
