package migration

import (
	"fmt"
	"io"
	"strings"
)

// Section markers. A marker line must match exactly, with no surrounding whitespace.
const (
	UpMarker   = "-- up"
	DownMarker = "-- down"
)

type section int

const (
	sectionNone section = iota
	sectionUp
	sectionDown
)

// Parse reads a migration file body and splits it into up and down SQL.
// Lines before the first marker are ignored.
func Parse(name string, r io.Reader) (Migration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Migration{}, fmt.Errorf("reading migration %s: %w", name, err)
	}

	var (
		up, down   strings.Builder
		current    = sectionNone
		downBefore bool
	)

	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case line == UpMarker:
			switch {
			case current != sectionNone:
				return Migration{}, &FormatError{Name: name, Err: ErrMultipleUp}
			case downBefore:
				return Migration{}, &FormatError{Name: name, Err: ErrUpNotFirst}
			}

			current = sectionUp
		case line == DownMarker:
			switch current {
			case sectionNone:
				downBefore = true
			case sectionUp:
				current = sectionDown
			case sectionDown:
				return Migration{}, &FormatError{Name: name, Err: ErrMultipleDown}
			}
		case current == sectionUp:
			up.WriteString(line)
			up.WriteByte('\n')
		case current == sectionDown:
			down.WriteString(line)
			down.WriteByte('\n')
		}
	}

	if current != sectionDown {
		return Migration{}, &FormatError{Name: name, Err: ErrMissingSection}
	}

	return Migration{
		Name:    name,
		UpSQL:   strings.TrimSpace(up.String()),
		DownSQL: strings.TrimSpace(down.String()),
	}, nil
}
