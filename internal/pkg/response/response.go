// Package response writes the JSON envelope every /api route answers with.
package response

import (
	"lifelines-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// SuccessBody wraps a result: {status:"success", message, data, metadata}.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody wraps a failure: {status:"error", error:{message, statusCode, details}}.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

func orEmpty(v interface{}) interface{} {
	if v == nil {
		return fiber.Map{}
	}
	return v
}

func success(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	return c.Status(code).JSON(SuccessBody{Status: "success", Message: message, Data: data, Metadata: orEmpty(metadata)})
}

// Success answers 200.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated answers 201; used when a create stored a new entity.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusCreated, message, data, metadata)
}

func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: "error",
		Error:  ErrorDetail{Message: message, StatusCode: statusCode, Details: orEmpty(details)},
	})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// Failure maps err through the apperr taxonomy. Details carry the error kind so
// remote callers can classify without parsing messages.
func Failure(c *fiber.Ctx, err error) error {
	return Error(c, apperr.Message(err), apperr.HTTPStatus(err), fiber.Map{"kind": apperr.KindOf(err)})
}
