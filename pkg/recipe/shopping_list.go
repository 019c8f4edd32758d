package recipe

import (
	"fmt"
	"sort"
	"strings"
)

type ingredientKey struct {
	name string
	unit string
}

// renderShoppingList merges the cart's ingredient rows by (name, unit)
// identity, sums amounts, and renders the plain-text report. Byte-wise name
// ordering keeps the output identical regardless of cart insertion order.
func renderShoppingList(username string, rows []CartIngredientRow) []byte {
	totals := make(map[ingredientKey]int)
	for _, row := range rows {
		totals[ingredientKey{name: row.Name, unit: row.MeasurementUnit}] += row.Amount
	}

	keys := make([]ingredientKey, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].unit < keys[j].unit
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Список покупок для %s\n\n", username)
	for i, key := range keys {
		fmt.Fprintf(&b, "%d. %s — %d %s\n", i+1, key.name, totals[key], key.unit)
	}
	return []byte(b.String())
}
