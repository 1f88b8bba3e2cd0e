package recipes

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// shoppingListTimeLayout renders the header timestamp as "2024.03.01, 18:05".
const shoppingListTimeLayout = "2006.01.02, 15:04"

// AggregateShoppingList sums amounts per (name, measurement unit). The same ingredient in
// two recipes collapses into one line, the same name with two units stays two lines.
// The result is ordered by name, then unit.
func AggregateShoppingList(lines []CartLine) []CartLine {
	type key struct{ name, unit string }

	totals := make(map[key]int64, len(lines))
	for _, l := range lines {
		totals[key{l.Name, l.MeasurementUnit}] += l.Amount
	}

	out := make([]CartLine, 0, len(totals))
	for k, amount := range totals {
		out = append(out, CartLine{Name: k.name, MeasurementUnit: k.unit, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MeasurementUnit < out[j].MeasurementUnit
	})
	return out
}

// RenderShoppingList formats aggregated lines as the downloadable text document:
//
//	Foodgram. 2024.03.01, 18:05
//	Список покупок для: Вася Пупкин
//
//	- мука, г: 500
//	- яйца, шт: 3
//
// Lines are joined with "\n" without a trailing newline.
func RenderShoppingList(appName string, at time.Time, fullName string, lines []CartLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. %s\n", appName, at.Format(shoppingListTimeLayout))
	fmt.Fprintf(&b, "Список покупок для: %s\n\n", fullName)

	items := make([]string, len(lines))
	for i, l := range lines {
		items[i] = fmt.Sprintf("- %s, %s: %d", l.Name, l.MeasurementUnit, l.Amount)
	}
	b.WriteString(strings.Join(items, "\n"))
	return b.String()
}
