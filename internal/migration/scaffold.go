package migration

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Template is the body written to newly scaffolded migration files.
const Template = UpMarker + "\n\n" + DownMarker + "\n"

// Scaffold creates an empty migration file named "<unix-seconds>-<name>.sql"
// in dir and returns its path. Existing files are never overwritten.
func Scaffold(fsys afero.Fs, dir, name string, now time.Time) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	path := filepath.Join(dir, fmt.Sprintf("%d-%s%s", now.Unix(), name, migrationExt))

	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return "", fmt.Errorf("checking migration file %s: %w", path, err)
	}

	if exists {
		return "", fmt.Errorf("migration file %s: %w", path, ErrFileExists)
	}

	if err := afero.WriteFile(fsys, path, []byte(Template), 0o644); err != nil {
		return "", fmt.Errorf("creating migration file %s: %w", path, err)
	}

	return path, nil
}
