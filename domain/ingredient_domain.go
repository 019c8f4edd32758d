package domain

import (
	"errors"
	"fmt"
)

var (
	MessageSuccessGetIngredients      = "success get ingredients"
	MessageSuccessGetIngredientDetail = "success get ingredient detail"

	MessageFailedGetIngredients      = "failed to get ingredients"
	MessageFailedGetIngredientDetail = "failed to get ingredient detail"

	ErrIngredientNotFound = errors.New("ingredient not found")
)

type IngredientResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// NewUnknownIngredientsError wraps ErrIngredientNotFound with the ids that
// did not resolve, so callers can both match the sentinel and see the ids.
func NewUnknownIngredientsError(ids []string) error {
	return fmt.Errorf("%w: %v", ErrIngredientNotFound, ids)
}
