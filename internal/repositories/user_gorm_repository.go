package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"userapi/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
// It relies on gorm.Config{TranslateError: true} so that unique-index
// violations surface as gorm.ErrDuplicatedKey on both SQLite and
// PostgreSQL.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user. The database assigns the autoincrement id
// and timestamps.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email, including the password hash.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// GetAll retrieves every user projected without the password column.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	err := r.db.
		Select("id", "full_name", "email", "created_at", "updated_at").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies the given fields to the user identified by id and
// returns the refreshed record. An empty field map, or an update that
// touches no rows, yields ErrNoFields.
func (r *GORMUserRepository) Update(id uint, fields map[string]interface{}) (*models.User, error) {
	if _, err := r.GetByID(id); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	result := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoFields
	}

	return r.GetByID(id)
}

// Delete removes a user permanently. Deleting an unknown id yields
// ErrUserNotFound.
func (r *GORMUserRepository) Delete(id uint) error {
	result := r.db.Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
