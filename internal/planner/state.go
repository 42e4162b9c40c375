// Package planner reconciles migration definitions against ledger records
// and decides what SQL a rollback should run.
package planner

import "github.com/aqasim81/fly/internal/migration"

// State is the reconciled status of one migration name. It is a closed set:
// Pending, Applied, Changed and Removed are the only implementations.
type State interface {
	// Name is the migration name the state describes.
	Name() string
	String() string

	state()
}

// Pending is a definition that has never been applied.
type Pending struct {
	Definition migration.Migration
}

// Applied is a definition whose ledger record matches it exactly.
type Applied struct {
	Definition migration.Migration
	Record     migration.Record
}

// Changed is an applied migration whose file was edited afterwards.
type Changed struct {
	Definition migration.Migration
	Record     migration.Record
}

// Removed is an applied migration whose file no longer exists.
type Removed struct {
	Record migration.Record
}

func (Pending) state() {}
func (Applied) state() {}
func (Changed) state() {}
func (Removed) state() {}

func (s Pending) Name() string { return s.Definition.Name }
func (s Applied) Name() string { return s.Definition.Name }
func (s Changed) Name() string { return s.Definition.Name }
func (s Removed) Name() string { return s.Record.Name }

func (s Pending) String() string { return s.Name() + " [pending]" }
func (s Applied) String() string { return s.Name() + " [applied]" }
func (s Changed) String() string { return s.Name() + " ** CHANGED **" }
func (s Removed) String() string { return s.Name() + " ** NO FILE **" }
