package planner

import (
	"sort"

	"github.com/aqasim81/fly/internal/migration"
)

// Reconcile classifies every migration name found in definitions or records
// and returns one State per name, sorted by name. Input order is irrelevant.
func Reconcile(definitions []migration.Migration, records []migration.Record) []State {
	defs := make(map[string]migration.Migration, len(definitions))
	for _, d := range definitions {
		defs[d.Name] = d
	}

	recs := make(map[string]migration.Record, len(records))
	for _, r := range records {
		recs[r.Name] = r
	}

	names := make([]string, 0, len(defs)+len(recs))
	for name := range defs {
		names = append(names, name)
	}

	for name := range recs {
		if _, ok := defs[name]; !ok {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	states := make([]State, 0, len(names))

	for _, name := range names {
		def, hasDef := defs[name]
		rec, hasRec := recs[name]

		switch {
		case hasDef && !hasRec:
			states = append(states, Pending{Definition: def})
		case !hasDef && hasRec:
			states = append(states, Removed{Record: rec})
		case def.Equal(rec.Migration):
			states = append(states, Applied{Definition: def, Record: rec})
		default:
			states = append(states, Changed{Definition: def, Record: rec})
		}
	}

	return states
}

// PendingDefinitions returns the definitions of all Pending states, in order.
func PendingDefinitions(states []State) []migration.Migration {
	var pending []migration.Migration

	for _, s := range states {
		if p, ok := s.(Pending); ok {
			pending = append(pending, p.Definition)
		}
	}

	return pending
}

// Drifted returns the Changed and Removed states, in order.
func Drifted(states []State) []State {
	var drifted []State

	for _, s := range states {
		switch s.(type) {
		case Changed, Removed:
			drifted = append(drifted, s)
		}
	}

	return drifted
}
