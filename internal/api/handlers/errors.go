package handlers

import (
	"errors"

	"Foodgram-Backend/domain"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps domain errors onto HTTP statuses. Validation and
// relation-state errors stay 400; missing entities are 404; authorship
// violations are 403.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTagNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotRecipeAuthor),
		errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}
