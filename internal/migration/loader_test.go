package migration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/fly/internal/migration"
)

const validBody = "-- up\nCREATE TABLE test (id INT);\n-- down\nDROP TABLE test;\n"

func TestLoadFromFs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		dirs    []string
		wantErr error
		check   func(t *testing.T, ms []migration.Migration)
	}{
		{
			name: "empty directory returns empty slice",
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				assert.Empty(t, ms)
			},
		},
		{
			name: "results are sorted by name",
			files: map[string]string{
				"1700000300-c.sql": validBody,
				"1700000100-a.sql": validBody,
				"1700000200-b.sql": validBody,
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				require.Len(t, ms, 3)
				assert.Equal(t, "1700000100-a.sql", ms[0].Name)
				assert.Equal(t, "1700000200-b.sql", ms[1].Name)
				assert.Equal(t, "1700000300-c.sql", ms[2].Name)
			},
		},
		{
			name: "name keeps the extension and sql is trimmed",
			files: map[string]string{
				"1700000000-users.sql": "-- up\n\n  CREATE TABLE users (id INT);  \n\n-- down\n  DROP TABLE users;\n",
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				require.Len(t, ms, 1)
				assert.Equal(t, "1700000000-users.sql", ms[0].Name)
				assert.Equal(t, "CREATE TABLE users (id INT);", ms[0].UpSQL)
				assert.Equal(t, "DROP TABLE users;", ms[0].DownSQL)
			},
		},
		{
			name: "hidden and non-sql files are skipped",
			files: map[string]string{
				".1700000000-hidden.sql": "garbage",
				"README.md":              "# readme",
				"1700000000-keep.sql":    validBody,
			},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				require.Len(t, ms, 1)
				assert.Equal(t, "1700000000-keep.sql", ms[0].Name)
			},
		},
		{
			name: "subdirectories are skipped",
			dirs: []string{"archive.sql"},
			check: func(t *testing.T, ms []migration.Migration) {
				t.Helper()
				assert.Empty(t, ms)
			},
		},
		{
			name: "malformed file fails the whole load",
			files: map[string]string{
				"1700000000-good.sql": validBody,
				"1700000001-bad.sql":  "-- up\nselect 1;\n",
			},
			wantErr: migration.ErrMissingSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := afero.NewMemMapFs()
			require.NoError(t, fsys.MkdirAll("migrations", 0o755))

			for name, body := range tt.files {
				require.NoError(t, afero.WriteFile(fsys, filepath.Join("migrations", name), []byte(body), 0o644))
			}

			for _, dir := range tt.dirs {
				require.NoError(t, fsys.MkdirAll(filepath.Join("migrations", dir), 0o755))
			}

			ms, err := migration.LoadFromFs(fsys, "migrations")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "1700000001-bad.sql")

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, ms)
			}
		})
	}
}

func TestLoadFromFs_missingDirectory_returnsError(t *testing.T) {
	t.Parallel()

	_, err := migration.LoadFromFs(afero.NewMemMapFs(), "nonexistent")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading migrations directory")
}

func TestLoadFromDir_readsOSFilesystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "1700000000-users.sql", validBody)

	ms, err := migration.LoadFromDir(dir)

	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "CREATE TABLE test (id INT);", ms[0].UpSQL)
}

func TestLoadFromDir_followsSymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.txt", validBody)
	require.NoError(t, os.Symlink(filepath.Join(dir, "real.txt"), filepath.Join(dir, "1700000000-link.sql")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "1700000100-broken.sql")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "1700000200-dir.sql")))

	ms, err := migration.LoadFromDir(dir)

	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "1700000000-link.sql", ms[0].Name)
	assert.Equal(t, "DROP TABLE test;", ms[0].DownSQL)
}

func TestLoadFromDir_invalidUTF8Name_returnsFormatError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a\xff.sql", validBody)

	_, err := migration.LoadFromDir(dir)

	require.ErrorIs(t, err, migration.ErrInvalidFilename)

	var formatErr *migration.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, `"a\xff.sql"`, formatErr.Name)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
