package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
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

// OK sends a 200 envelope with optional pagination or cache metadata.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	if message == "" {
		message = "success"
	}
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
		Meta:    meta,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail sends an error envelope carrying optional details.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Details: details,
	})
}

// SendAppError translates a domain error into its HTTP envelope.
// Internal failures never leak the wrapped cause.
func SendAppError(c *fiber.Ctx, err error) error {
	appErr := apperror.FromError(err)
	if appErr == nil {
		appErr = apperror.ErrInternal
	}

	response := APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    string(appErr.Kind),
	}
	if appErr.Kind == apperror.KindInternal {
		response.Message = apperror.ErrInternal.Message
	}
	if len(appErr.Details) > 0 {
		response.Details = appErr.Details
	}
	return c.Status(appErr.Status()).JSON(response)
}
