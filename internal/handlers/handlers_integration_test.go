package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"userapi/internal/handlers"
	"userapi/internal/middleware"
	"userapi/internal/models"
	"userapi/internal/repositories"
	"userapi/internal/services"
)

const testJWTSecret = "test_jwt_secret"

// setupApp wires a Fiber app against an in-memory SQLite database with
// the full auth and user stack.
func setupApp() (*fiber.App, *services.AuthService, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, testJWTSecret, time.Hour)
	userService := services.NewUserService(userRepo, authService, nil)

	app := fiber.New()
	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewUserHandler(userService).RegisterRoutes(app, middleware.AuthRequired(authService))

	return app, authService, nil
}

// doRequest performs a JSON request against the app and decodes the
// response envelope.
func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		envelope = nil
	}
	resp.Body.Close()
	return resp, envelope
}

// dataMessage digs the message out of an envelope's data object.
func dataMessage(envelope map[string]interface{}) string {
	data, ok := envelope["data"].(map[string]interface{})
	if !ok {
		return ""
	}
	msg, _ := data["message"].(string)
	return msg
}

func registerAndLogin(t *testing.T, app *fiber.App, fullName, email, password string) (uint, string) {
	t.Helper()

	resp, envelope := doRequest(t, app, http.MethodPost, "/users", map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
	}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	id := uint(data["id"].(float64))

	resp, envelope = doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token := envelope["data"].(map[string]interface{})["token"].(string)
	assert.NotEmpty(t, token)

	return id, token
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRegister(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	resp, envelope := doRequest(t, app, http.MethodPost, "/users", map[string]string{
		"fullName": "Register User",
		"email":    "register@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", envelope["status"])

	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "Register User", data["fullName"])
	assert.Equal(t, "register@example.com", data["email"])
	assert.NotZero(t, data["id"])
	assert.NotEmpty(t, data["createdAt"])

	// No password field in any shape leaves the API.
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "passwordHash")

	// Second registration with the same email conflicts.
	resp, envelope = doRequest(t, app, http.MethodPost, "/users", map[string]string{
		"fullName": "Imposter",
		"email":    "register@example.com",
		"password": "otherpassword",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "fail", envelope["status"])
	assert.Contains(t, dataMessage(envelope), "registered")
}

func TestRegister_MissingFields(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	for name, body := range map[string]map[string]string{
		"no fullName": {"email": "a@example.com", "password": "password123"},
		"no email":    {"fullName": "A", "password": "password123"},
		"no password": {"fullName": "A", "email": "a@example.com"},
		"bad email":   {"fullName": "A", "email": "not-an-email", "password": "password123"},
	} {
		t.Run(name, func(t *testing.T) {
			resp, envelope := doRequest(t, app, http.MethodPost, "/users", body, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "fail", envelope["status"])
		})
	}
}

func TestLogin(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	_, token := registerAndLogin(t, app, "Login User", "login@example.com", "password123")

	// The issued token opens protected endpoints.
	resp, _ := doRequest(t, app, http.MethodGet, "/users", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Missing credentials
	resp, envelope := doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email": "login@example.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "must provide email and password", dataMessage(envelope))

	// Wrong password and unknown email are indistinguishable.
	resp, envelopeWrongPassword := doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "wrongpassword",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, envelopeUnknownEmail := doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, envelopeWrongPassword, envelopeUnknownEmail)
}

func TestProtectedEndpoints_Unauthorized(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	// No Authorization header
	resp, envelope := doRequest(t, app, http.MethodGet, "/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "fail", envelope["status"])

	// Garbage token
	resp, _ = doRequest(t, app, http.MethodGet, "/users", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Expired token, signed with the right secret
	expiredService := services.NewAuthService(nil, testJWTSecret, -time.Minute)
	expiredToken, err := expiredService.GenerateToken(1)
	assert.NoError(t, err)
	resp, _ = doRequest(t, app, http.MethodGet, "/users", nil, expiredToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// All protected routes reject unauthenticated access.
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/1"},
		{http.MethodPut, "/users/1"},
		{http.MethodDelete, "/users/1"},
	} {
		resp, _ := doRequest(t, app, route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestGetUsers(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	id, token := registerAndLogin(t, app, "List User", "list@example.com", "password123")

	resp, envelope := doRequest(t, app, http.MethodGet, "/users", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", envelope["status"])

	users := envelope["data"].([]interface{})
	assert.NotEmpty(t, users)
	found := false
	for _, u := range users {
		entry := u.(map[string]interface{})
		assert.NotContains(t, entry, "password")
		if uint(entry["id"].(float64)) == id {
			found = true
			assert.Equal(t, "list@example.com", entry["email"])
		}
	}
	assert.True(t, found)

	// Get by id
	resp, envelope = doRequest(t, app, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "List User", data["fullName"])
	assert.NotContains(t, data, "password")

	// Unknown id
	resp, envelope = doRequest(t, app, http.MethodGet, "/users/999999", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, dataMessage(envelope), "999999")
}

func TestUpdateUser(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	id, token := registerAndLogin(t, app, "Update User", "update@example.com", "password123")

	// Changing only fullName leaves email and credentials alone.
	resp, envelope := doRequest(t, app, http.MethodPut, fmt.Sprintf("/users/%d", id), map[string]string{
		"fullName": "Renamed User",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "Renamed User", data["fullName"])
	assert.Equal(t, "update@example.com", data["email"])

	resp, _ = doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "update@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "old password must still verify")

	// Supplying a password rehashes it.
	resp, _ = doRequest(t, app, http.MethodPut, fmt.Sprintf("/users/%d", id), map[string]string{
		"password": "newpassword",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "update@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "old password must no longer verify")

	resp, _ = doRequest(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "update@example.com",
		"password": "newpassword",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "new password must verify")

	// Empty payload changes nothing.
	resp, envelope = doRequest(t, app, http.MethodPut, fmt.Sprintf("/users/%d", id), map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no update was performed", dataMessage(envelope))

	// Unknown id
	resp, _ = doRequest(t, app, http.MethodPut, "/users/999999", map[string]string{
		"fullName": "Ghost",
	}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	_, _ = registerAndLogin(t, app, "First", "first@example.com", "password123")
	secondID, token := registerAndLogin(t, app, "Second", "second@example.com", "password123")

	resp, envelope := doRequest(t, app, http.MethodPut, fmt.Sprintf("/users/%d", secondID), map[string]string{
		"email": "first@example.com",
	}, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "fail", envelope["status"])
}

func TestDeleteUser(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	id, token := registerAndLogin(t, app, "Delete User", "delete@example.com", "password123")

	// Unknown id first
	resp, _ := doRequest(t, app, http.MethodDelete, "/users/999999", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, envelope := doRequest(t, app, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, dataMessage(envelope), fmt.Sprintf("%d", id))

	// The user is gone.
	resp, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
