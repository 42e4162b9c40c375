package rules

import "github.com/aqasim81/fly/internal/analyzer"

// NewDefaultRegistry holds every rule fly checks migrations against.
func NewDefaultRegistry() *analyzer.Registry {
	return analyzer.NewRegistry(
		NewCreateIndexRule(),
		NewLockTableRule(),
		NewAlterColumnTypeRule(),
		NewDropTableRule(),
		NewRenameRule(),
	)
}
