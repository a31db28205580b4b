package services

import (
	"errors"
	"fmt"
	"log"

	"userapi/internal/models"
	"userapi/internal/repositories"
)

// EventPublisher publishes account lifecycle events to the message
// queue. Implemented by pkg/rabbitmq.Client.
type EventPublisher interface {
	PublishUserEvent(event string, data map[string]interface{}) error
}

// UserService handles business logic for the user resource.
type UserService struct {
	userRepo repositories.UserRepository
	auth     *AuthService
	events   EventPublisher // optional; nil disables event publishing
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, auth *AuthService, events EventPublisher) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		events:   events,
	}
}

// Register creates a new account with a hashed password. A taken email
// yields repositories.ErrDuplicateEmail, whether caught by the
// pre-check or by the unique index on a concurrent insert.
func (s *UserService) Register(fullName, email, password string) (*models.User, error) {
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, repositories.ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashed, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName: fullName,
		Email:    email,
		Password: hashed,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.publish("user.created", map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
	})
	return user, nil
}

// GetAll returns every user, projected without password hashes.
func (s *UserService) GetAll() ([]models.User, error) {
	return s.userRepo.GetAll()
}

// GetByID returns a single user.
func (s *UserService) GetByID(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// Update applies the supplied fields to a user. Empty values mean "no
// change": in particular an empty password is never hashed. A password,
// when supplied, is rehashed before storing.
func (s *UserService) Update(id uint, fullName, email, password string) (*models.User, error) {
	fields := map[string]interface{}{}
	if fullName != "" {
		fields["full_name"] = fullName
	}
	if email != "" {
		fields["email"] = email
	}
	if password != "" {
		hashed, err := s.auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hashed
	}

	return s.userRepo.Update(id, fields)
}

// Delete removes a user permanently.
func (s *UserService) Delete(id uint) error {
	if err := s.userRepo.Delete(id); err != nil {
		return err
	}

	s.publish("user.deleted", map[string]interface{}{
		"id": id,
	})
	return nil
}

// publish sends an event if a publisher is configured. Delivery is
// best-effort: failures are logged and never fail the request.
func (s *UserService) publish(event string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUserEvent(event, data); err != nil {
		log.Printf("Failed to publish %s event: %v", event, err)
	}
}
