package api

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/faceapi"
	"github.com/balkashynov/attendr/internal/geo"
	"github.com/balkashynov/attendr/internal/leave"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, attendance.ErrAuthRequired),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, leave.ErrForbidden),
		errors.Is(err, geo.ErrOutsideFence),
		errors.Is(err, faceapi.ErrIdentityMismatch):
		return fiber.StatusForbidden
	case errors.Is(err, leave.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNoActiveSession),
		errors.Is(err, leave.ErrNotPending),
		errors.Is(err, auth.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, attendance.ErrInvalidInterval),
		errors.Is(err, attendance.ErrInvalidDuration),
		errors.Is(err, leave.ErrInvalidLeave),
		errors.Is(err, leave.ErrInvalidDecision),
		errors.Is(err, faceapi.ErrRejected):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, faceapi.ErrNoIdentity):
		return fiber.StatusRequestTimeout
	case errors.Is(err, attendance.ErrRemoteReadFailed),
		errors.Is(err, attendance.ErrRemoteWriteFailed),
		errors.Is(err, faceapi.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler in the response envelope
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return ValidationError(c, err)
		}

		code := statusFor(err)
		msg := err.Error()
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"request_id", c.Locals(requestIDKey),
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"err", err)
			if code == fiber.StatusInternalServerError {
				msg = "Internal Server Error"
			}
		}
		return Error(c, code, msg)
	}
}
