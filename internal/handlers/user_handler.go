package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"userapi/internal/repositories"
	"userapi/internal/services"
	"userapi/pkg/jsend"
)

// UserHandler handles HTTP requests for the user resource.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user CRUD routes. Registration is
// public; everything else is gated behind authRequired.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	users := router.Group("/users")
	users.Post("/", h.HandleCreate)
	users.Get("/", authRequired, h.HandleList)
	users.Get("/:id", authRequired, h.HandleGet)
	users.Put("/:id", authRequired, h.HandleUpdate)
	users.Delete("/:id", authRequired, h.HandleDelete)
}

// RegisterUserRequest represents the request body for registration.
type RegisterUserRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest represents the request body for a partial update.
// Absent or empty fields are left unchanged.
type UpdateUserRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

// HandleCreate handles new user registration.
func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return jsend.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return jsend.Fail(c, fiber.StatusBadRequest, validationMessage(err))
	}

	user, err := h.userService.Register(req.FullName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return jsend.Fail(c, fiber.StatusConflict, "email is already registered")
		}
		log.Printf("Error creating user: %v", err)
		return jsend.Error(c, "internal server error creating user")
	}

	return jsend.Success(c, fiber.StatusCreated, fiber.Map{
		"id":        user.ID,
		"fullName":  user.FullName,
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	})
}

// HandleList returns all users, projected without password hashes.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.userService.GetAll()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return jsend.Error(c, "internal server error listing users")
	}
	return jsend.Success(c, fiber.StatusOK, users)
}

// HandleGet returns a single user by id.
func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.notFound(c)
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return h.notFound(c)
		}
		log.Printf("Error getting user %d: %v", id, err)
		return jsend.Error(c, "internal server error getting user")
	}
	return jsend.Success(c, fiber.StatusOK, user)
}

// HandleUpdate applies a partial update to a user.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.notFound(c)
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return jsend.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return jsend.Fail(c, fiber.StatusBadRequest, validationMessage(err))
	}

	user, err := h.userService.Update(uint(id), req.FullName, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return h.notFound(c)
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return jsend.Fail(c, fiber.StatusConflict, "email is already registered by another user")
		case errors.Is(err, repositories.ErrNoFields):
			return jsend.Fail(c, fiber.StatusBadRequest, "no update was performed")
		}
		log.Printf("Error updating user %d: %v", id, err)
		return jsend.Error(c, "internal server error updating user")
	}
	return jsend.Success(c, fiber.StatusOK, user)
}

// HandleDelete removes a user permanently.
func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.notFound(c)
	}

	if err := h.userService.Delete(uint(id)); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return h.notFound(c)
		}
		log.Printf("Error deleting user %d: %v", id, err)
		return jsend.Error(c, "internal server error deleting user")
	}

	return jsend.Success(c, fiber.StatusOK, fiber.Map{
		"message": fmt.Sprintf("user with ID %d deleted successfully", id),
	})
}

func (h *UserHandler) notFound(c *fiber.Ctx) error {
	return jsend.Fail(c, fiber.StatusNotFound,
		fmt.Sprintf("user with ID %s not found", c.Params("id")))
}

// validationMessage flattens validator errors into one fail message.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "validation failed"
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
