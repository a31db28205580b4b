package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"userapi/internal/services"
	"userapi/pkg/jsend"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles user login and issues a bearer token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsend.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return jsend.Fail(c, fiber.StatusBadRequest, "must provide email and password")
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return jsend.Fail(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		log.Printf("Error during login for %s: %v", req.Email, err)
		return jsend.Error(c, "internal server error during login")
	}

	return jsend.Success(c, fiber.StatusOK, fiber.Map{
		"token":    token,
		"id":       user.ID,
		"fullName": user.FullName,
		"email":    user.Email,
	})
}
