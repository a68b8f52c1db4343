package utils

import "github.com/gofiber/fiber/v2"

// Machine-readable error codes carried alongside the HTTP status so clients
// can distinguish rejection categories without string-matching messages.
const (
	CodeValidation       = "validation"
	CodeConflict         = "conflict"
	CodeNotFound         = "not_found"
	CodeForbidden        = "forbidden"
	CodeTokenExpired     = "token_expired"
	CodeAlreadyCheckedIn = "already_checked_in"
	CodeInternal         = "internal"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendErrorWithCode(c, status, "", message)
}

// SendErrorWithCode sends an error response carrying a machine error code.
func SendErrorWithCode(c *fiber.Ctx, status int, code, message string) error {
	if message == "" {
		message = "error"
	}
	if code == "" {
		code = defaultCodeForStatus(status)
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return CodeValidation
	case fiber.StatusConflict:
		return CodeConflict
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusForbidden, fiber.StatusUnauthorized:
		return CodeForbidden
	default:
		return CodeInternal
	}
}
