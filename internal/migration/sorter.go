package migration

import (
	"slices"
	"strings"
)

// Sort returns a copy of migrations ordered by Name. Names carry a
// timestamp prefix, so byte order is application order.
func Sort(migrations []Migration) []Migration {
	sorted := slices.Clone(migrations)
	slices.SortStableFunc(sorted, func(a, b Migration) int {
		return strings.Compare(a.Name, b.Name)
	})

	return sorted
}
