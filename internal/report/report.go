// Package report renders reconciled migration states for people and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/aqasim81/fly/internal/planner"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Status labels, one per planner.State variant.
const (
	StatusPending = "pending"
	StatusApplied = "applied"
	StatusChanged = "changed"
	StatusRemoved = "removed"
)

// Write renders states to w in the given format.
func Write(w io.Writer, states []planner.State, format string, colored bool) error {
	switch format {
	case FormatText, "":
		return Text(w, states, colored)
	case FormatJSON:
		return JSON(w, states)
	default:
		return fmt.Errorf("unknown status format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

// Text prints one line per state. When colored is set, drifted states are
// highlighted.
func Text(w io.Writer, states []planner.State, colored bool) error {
	for _, s := range states {
		line := s.String()

		if colored {
			line = colorFor(s).Sprint(line)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing status: %w", err)
		}
	}

	return nil
}

func colorFor(s planner.State) *color.Color {
	var c *color.Color

	switch s.(type) {
	case planner.Applied:
		c = color.New(color.FgGreen)
	case planner.Changed:
		c = color.New(color.FgYellow, color.Bold)
	case planner.Removed:
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgCyan)
	}

	// Callers decide when to color; fatih/color's own terminal detection
	// would otherwise disable it for every non-stdout writer.
	c.EnableColor()

	return c
}

// Entry is the JSON shape of one state.
type Entry struct {
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	ID        *int32     `json:"id,omitempty"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
	Checksum  string     `json:"checksum,omitempty"`
}

// Entries converts states to their JSON representation.
func Entries(states []planner.State) []Entry {
	entries := make([]Entry, 0, len(states))

	for _, s := range states {
		e := Entry{Name: s.Name()}

		switch v := s.(type) {
		case planner.Pending:
			e.Status = StatusPending
			e.Checksum = v.Definition.Checksum()
		case planner.Applied:
			e.Status = StatusApplied
			e.Checksum = v.Definition.Checksum()
			e.ID, e.AppliedAt = &v.Record.ID, &v.Record.CreatedAt
		case planner.Changed:
			e.Status = StatusChanged
			e.Checksum = v.Definition.Checksum()
			e.ID, e.AppliedAt = &v.Record.ID, &v.Record.CreatedAt
		case planner.Removed:
			e.Status = StatusRemoved
			e.ID, e.AppliedAt = &v.Record.ID, &v.Record.CreatedAt
		}

		entries = append(entries, e)
	}

	return entries
}

// JSON prints states as an indented JSON array.
func JSON(w io.Writer, states []planner.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(Entries(states)); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}
