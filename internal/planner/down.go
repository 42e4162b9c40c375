package planner

import "fmt"

// Source says where a rollback's down SQL came from.
type Source int

const (
	// SourceDefinition is the down SQL in the migration file on disk.
	SourceDefinition Source = iota
	// SourceRecord is the down SQL stored in the ledger when the migration was applied.
	SourceRecord
)

func (s Source) String() string {
	switch s {
	case SourceDefinition:
		return "definition"
	case SourceRecord:
		return "record"
	default:
		return "unknown"
	}
}

// DownOptions selects the migration to revert and how to resolve drift.
type DownOptions struct {
	// Name is the migration to revert. Empty means the latest non-pending one.
	Name string
	// Recover runs the down SQL stored in the ledger for changed or removed migrations.
	Recover bool
	// IgnoreChanged runs the on-disk down SQL for changed migrations.
	IgnoreChanged bool
}

// Rollback is the resolved revert: which ledger row to delete and which SQL undoes it.
type Rollback struct {
	Name    string
	DownSQL string
	Source  Source
}

// ValidateDownOptions rejects flag combinations that can never be satisfied.
func ValidateDownOptions(opts DownOptions) error {
	if opts.Recover && opts.IgnoreChanged {
		return ErrConflictingFlags
	}

	return nil
}

// SelectDown picks the state to revert and resolves the SQL to run.
// It returns (nil, nil) when no name is given and nothing is applied.
func SelectDown(states []State, opts DownOptions) (*Rollback, error) {
	if err := ValidateDownOptions(opts); err != nil {
		return nil, err
	}

	target, err := selectTarget(states, opts.Name)
	if err != nil || target == nil {
		return nil, err
	}

	switch s := target.(type) {
	case Applied:
		return &Rollback{Name: s.Name(), DownSQL: s.Definition.DownSQL, Source: SourceDefinition}, nil
	case Changed:
		switch {
		case opts.Recover:
			return &Rollback{Name: s.Name(), DownSQL: s.Record.DownSQL, Source: SourceRecord}, nil
		case opts.IgnoreChanged:
			return &Rollback{Name: s.Name(), DownSQL: s.Definition.DownSQL, Source: SourceDefinition}, nil
		default:
			return nil, fmt.Errorf(
				"%w: %s (use --recover to run the down sql recorded when it was applied, "+
					"or --ignore-changed to run the down sql in the file)",
				ErrChangedMigration, s.Name(),
			)
		}
	case Removed:
		if !opts.Recover {
			return nil, fmt.Errorf(
				"%w: %s (use --recover to run the down sql recorded when it was applied)",
				ErrRemovedMigration, s.Name(),
			)
		}

		return &Rollback{Name: s.Name(), DownSQL: s.Record.DownSQL, Source: SourceRecord}, nil
	case Pending:
		return nil, fmt.Errorf("%w: %s", ErrPendingRollback, s.Name())
	default:
		return nil, fmt.Errorf("unexpected migration state %T", target)
	}
}

// selectTarget finds the named state, or the last non-pending one when name is empty.
func selectTarget(states []State, name string) (State, error) {
	if name != "" {
		for _, s := range states {
			if s.Name() == name {
				return s, nil
			}
		}

		return nil, fmt.Errorf("%w %s", ErrMigrationNotFound, name)
	}

	for i := len(states) - 1; i >= 0; i-- {
		if _, pending := states[i].(Pending); !pending {
			return states[i], nil
		}
	}

	return nil, nil //nolint:nilnil // nil,nil signals "nothing applied, nothing to revert"
}
