package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errConflict(c *fiber.Ctx, code, msg string) error {
	return newError(c, fiber.StatusConflict, code, msg)
}

func errUnavailable(c *fiber.Ctx, code, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, code, msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps the synchronous precondition errors to responses.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrStaleFix):
		return errConflict(c, "stale_fix", err.Error())
	case errors.Is(err, domain.ErrNoService):
		return errConflict(c, "no_service", err.Error())
	case errors.Is(err, domain.ErrUnsupportedNetwork):
		return newError(c, fiber.StatusUnprocessableEntity, "unsupported_network", err.Error())
	case errors.Is(err, domain.ErrNoConnectivity):
		return errUnavailable(c, "no_connectivity", err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		return errUnavailable(c, "provider_unavailable", err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
