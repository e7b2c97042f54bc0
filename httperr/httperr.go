package httperr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError reports malformed input on a specific field.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a scheduling conflict (overlapping slot or booking,
// capacity exceeded). The caller must pick a different input; never retried.
type ConflictError struct {
	Message string `json:"message"`
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// NotFoundError covers both missing entities and ownership failures. Acting on
// another tenant's record reports not-found rather than forbidden so that
// existence does not leak across tenants.
type NotFoundError struct {
	Resource string `json:"resource"`
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// InvalidStateError is returned when a lifecycle transition is attempted from
// a state that does not permit it. It always carries the actual current state
// so the caller can show "already X" messaging.
type InvalidStateError struct {
	Action        string `json:"action"`
	CurrentStatus string `json:"current_status"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a booking with status %q", e.Action, e.CurrentStatus)
}

func NewInvalidState(action, currentStatus string) *InvalidStateError {
	return &InvalidStateError{Action: action, CurrentStatus: currentStatus}
}

// AuthorizationError is a genuine role-level denial, e.g. a customer calling a
// provider-only endpoint.
type AuthorizationError struct {
	Message string `json:"message"`
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func NewAuthorization(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// Respond translates a core error into an HTTP status and JSON body.
func Respond(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case *ValidationError:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": e.Message,
			"field": e.Field,
		})
	case *ConflictError:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": e.Message,
		})
	case *NotFoundError:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": e.Error(),
		})
	case *InvalidStateError:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":          e.Error(),
			"current_status": e.CurrentStatus,
		})
	case *AuthorizationError:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": e.Message,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
