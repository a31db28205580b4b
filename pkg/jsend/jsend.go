// Package jsend implements the JSend response convention: every JSON
// response is one of three shapes, keyed by a "status" field.
//
//	success: {"status": "success", "data": ...}
//	fail:    {"status": "fail", "data": {"message": ...}}
//	error:   {"status": "error", "message": ...}
//
// fail is for client-caused outcomes (validation, not-found, conflict,
// unauthorized); error is for server-side failures and always carries a
// generic message.
package jsend

import "github.com/gofiber/fiber/v2"

// Success writes a success envelope with the given status code and payload.
func Success(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// Fail writes a fail envelope carrying a human-readable message.
func Fail(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "fail",
		"data":   fiber.Map{"message": message},
	})
}

// Error writes an error envelope with HTTP 500. The message must stay
// generic; the original cause is logged by the caller, never sent out.
func Error(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
