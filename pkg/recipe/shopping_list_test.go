package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderShoppingListEmpty(t *testing.T) {
	got := renderShoppingList("alice", nil)
	assert.Equal(t, "Список покупок для alice\n\n", string(got))
}

func TestRenderShoppingListMergesByNameAndUnit(t *testing.T) {
	rows := []CartIngredientRow{
		{Name: "Соль", MeasurementUnit: "г", Amount: 5},
		{Name: "Мука", MeasurementUnit: "г", Amount: 200},
		{Name: "Соль", MeasurementUnit: "г", Amount: 3},
	}

	got := string(renderShoppingList("bob", rows))

	want := "Список покупок для bob\n\n" +
		"1. Мука — 200 г\n" +
		"2. Соль — 8 г\n"
	assert.Equal(t, want, got)
}

func TestRenderShoppingListKeepsUnitsSeparate(t *testing.T) {
	rows := []CartIngredientRow{
		{Name: "Молоко", MeasurementUnit: "мл", Amount: 500},
		{Name: "Молоко", MeasurementUnit: "л", Amount: 1},
	}

	got := string(renderShoppingList("bob", rows))

	// Same name with different units stays on separate lines, ordered by unit.
	want := "Список покупок для bob\n\n" +
		"1. Молоко — 1 л\n" +
		"2. Молоко — 500 мл\n"
	assert.Equal(t, want, got)
}

func TestRenderShoppingListOrderIndependent(t *testing.T) {
	forward := []CartIngredientRow{
		{Name: "Яйцо", MeasurementUnit: "шт", Amount: 2},
		{Name: "Мука", MeasurementUnit: "г", Amount: 100},
		{Name: "Мука", MeasurementUnit: "г", Amount: 50},
	}
	backward := []CartIngredientRow{
		{Name: "Мука", MeasurementUnit: "г", Amount: 50},
		{Name: "Мука", MeasurementUnit: "г", Amount: 100},
		{Name: "Яйцо", MeasurementUnit: "шт", Amount: 2},
	}

	assert.Equal(t,
		renderShoppingList("carol", forward),
		renderShoppingList("carol", backward),
	)
}
