package migration

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// migrationExt is the suffix a file needs to be treated as a migration source.
const migrationExt = ".sql"

// LoadFromDir reads every migration file in dir from the OS filesystem and
// returns the parsed definitions sorted by name.
func LoadFromDir(dir string) ([]Migration, error) {
	return LoadFromFs(afero.NewOsFs(), dir)
}

// LoadFromFs reads every migration file in dir from fsys. Symlinks are
// followed; hidden files, directories and files without a .sql suffix are
// skipped.
func LoadFromFs(fsys afero.Fs, dir string) ([]Migration, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	migrations := make([]Migration, 0, len(entries))

	for _, entry := range entries {
		if !isMigrationFile(entry.Name()) || !isRegularFile(fsys, dir, entry) {
			continue
		}

		m, err := readMigration(fsys, dir, entry.Name())
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	return Sort(migrations), nil
}

// isRegularFile reports whether entry is a regular file, following
// symlinks. Broken links are not files.
func isRegularFile(fsys afero.Fs, dir string, entry fs.FileInfo) bool {
	if entry.Mode()&fs.ModeSymlink == 0 {
		return entry.Mode().IsRegular()
	}

	target, err := fsys.Stat(filepath.Join(dir, entry.Name()))

	return err == nil && target.Mode().IsRegular()
}

func isMigrationFile(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(name, migrationExt)
}

// readMigration opens and parses a single migration file.
func readMigration(fsys afero.Fs, dir, name string) (Migration, error) {
	if !utf8.ValidString(name) {
		return Migration{}, &FormatError{Name: fmt.Sprintf("%q", name), Err: ErrInvalidFilename}
	}

	path := filepath.Join(dir, name)

	f, err := fsys.Open(path)
	if err != nil {
		return Migration{}, fmt.Errorf("opening migration file %s: %w", path, err)
	}
	defer f.Close()

	return Parse(name, f)
}
