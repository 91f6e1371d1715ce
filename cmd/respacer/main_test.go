package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	globalDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "respacer.toml"),
		globalDir:  filepath.Join(base, "global"),
	}

	cfg := fmt.Sprintf(`[settings]
global_dir = '%s'
lock_dir = '%s'

[host]
registry = '%s'

[log]
file = '%s'
`,
		env.globalDir,
		filepath.Join(base, "locks"),
		filepath.Join(base, "registry.toml"),
		filepath.Join(base, "respacer.log"),
	)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func sampleDocument() settings.Document {
	return settings.Document{Pages: []settings.PropertyPage{{
		Name: "CSharp",
		Settings: settings.EditorSettings{TabSettings: settings.TabSettings{
			IndentStyle: settings.IndentSmart,
			TabSize:     settings.Int(4),
			InsertTabs:  settings.Bool(false),
		}},
	}}}
}

func writeDocument(t *testing.T, path string) {
	t.Helper()
	data, err := settings.Encode(sampleDocument())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "respacer dev"))
}

func TestMissingConfigFile(t *testing.T) {
	_, err := runCLI(t, "-c", filepath.Join(t.TempDir(), "missing.toml"), "show", "x")
	assert.Error(t, err)
}

func TestShow_Table(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "doc.json")
	writeDocument(t, path)

	out, err := runCLI(t, "-c", env.configPath, "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, "CSharp")
	assert.Contains(t, out, "Smart")
	assert.Contains(t, out, "Tab Size")
}

func TestShow_YAML(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "doc.json")
	writeDocument(t, path)

	out, err := runCLI(t, "-c", env.configPath, "show", "--yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 2")
	assert.Contains(t, out, "name: CSharp")
	assert.Contains(t, out, "indent_style: Smart")
	assert.Contains(t, out, "tab_size: 4")
	assert.Contains(t, out, "insert_tabs: false")
	assert.NotContains(t, out, "indent_size")
}

func TestShow_DefaultsToGlobal(t *testing.T) {
	env := setupCLITestEnv(t)
	writeDocument(t, filepath.Join(env.globalDir, "text.settings.json"))

	out, err := runCLI(t, "-c", env.configPath, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "CSharp")
}

func TestShow_Project(t *testing.T) {
	env := setupCLITestEnv(t)
	project := filepath.Join(env.baseDir, "project")
	writeDocument(t, filepath.Join(project, "text.settings.json"))

	out, err := runCLI(t, "-c", env.configPath, "show", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(project, "text.settings.json"))
	assert.Contains(t, out, "CSharp")
}

func TestShow_Missing(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := runCLI(t, "-c", env.configPath, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no settings document")
}

func TestShow_Invalid(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("Version: 7\n{}"), 0o644))

	_, err := runCLI(t, "-c", env.configPath, "show", path)
	require.Error(t, err)
	assert.True(t, settings.IsFormatError(err))
}

func TestUpgrade_Legacy(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "legacy.json")
	legacy := `[{"Name":"CSharp","Settings":{"TabSettings":{"IndentStyle":2,"TabSize":4,"IndentSize":4,"InsertTabs":false}}}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	out, err := runCLI(t, "-c", env.configPath, "upgrade", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Upgraded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Version: 2\n"))

	doc, err := settings.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	page, ok := doc.Page("CSharp")
	require.True(t, ok)
	assert.Equal(t, settings.IndentSmart, page.Settings.TabSettings.IndentStyle)
	assert.Equal(t, 4, *page.Settings.TabSettings.IndentSize)

	out, err = runCLI(t, "-c", env.configPath, "upgrade", path)
	require.NoError(t, err)
	assert.Contains(t, out, "already at version 2")
}

func TestUpgrade_Missing(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := runCLI(t, "-c", env.configPath, "upgrade", filepath.Join(env.baseDir, "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no settings document")
}

func TestUpgrade_RequiresFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := runCLI(t, "-c", env.configPath, "upgrade")
	assert.Error(t, err)
}
