package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

func testDoc() settings.Document {
	return settings.Document{Pages: []settings.PropertyPage{{
		Name: "CSharp",
		Settings: settings.EditorSettings{TabSettings: settings.TabSettings{
			IndentStyle: settings.IndentSmart,
			TabSize:     settings.Int(4),
		}},
	}}}
}

func TestStore_LoadAbsent(t *testing.T) {
	s := New(afero.NewMemMapFs())

	_, err := s.Load("/nowhere/text.settings.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, settings.ErrDocumentAbsent))
	assert.False(t, settings.IsFormatError(err))
}

func TestStore_SaveCreatesDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs)

	path := "/home/user/.config/respacer/text.settings.json"
	require.NoError(t, s.Save(context.Background(), path, testDoc()))
	assert.True(t, s.Exists(path))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Version: 2\n")

	got, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, testDoc(), got)
}

func TestStore_SaveTruncates(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs)
	path := "/p/text.settings.json"

	big := testDoc()
	for _, name := range []string{"A", "B", "C", "D"} {
		big.Pages = append(big.Pages, settings.PropertyPage{Name: name})
	}
	require.NoError(t, s.Save(context.Background(), path, big))
	require.NoError(t, s.Save(context.Background(), path, testDoc()))

	got, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, testDoc(), got)
}

func TestStore_LoadFormatErrorCarriesPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/p/text.settings.json"
	require.NoError(t, afero.WriteFile(fs, path, []byte("Version: 99\n{}"), 0o644))

	_, err := New(fs).Load(path)
	require.Error(t, err)

	var fe *settings.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, path, fe.Path)
	assert.Equal(t, 99, fe.Version)
}

func TestStore_ExistsIgnoresDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/p/text.settings.json", 0o755))
	assert.False(t, New(fs).Exists("/p/text.settings.json"))
}

func TestStore_SaveWithLock(t *testing.T) {
	dir := t.TempDir()
	lockDir := filepath.Join(dir, "locks")
	s := New(afero.NewOsFs(), WithLockDir(lockDir))

	path := filepath.Join(dir, "project", DefaultFileName)
	require.NoError(t, s.Save(context.Background(), path, testDoc()))
	require.NoError(t, s.Save(context.Background(), path, testDoc()), "lock is released after each save")

	entries, err := filepath.Glob(filepath.Join(lockDir, "*.lock"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_SaveRejectsInvalidDocument(t *testing.T) {
	s := New(afero.NewMemMapFs())
	err := s.Save(context.Background(), "/p/x.json", settings.Document{Pages: []settings.PropertyPage{{Name: ""}}})
	assert.Error(t, err)
	assert.False(t, s.Exists("/p/x.json"))
}
