package registry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

const registryFile = "/state/registry.toml"

const sampleTOML = `
[TextEditor.CSharp]
IndentStyle = "Smart"
TabSize = 4
IndentSize = 4
InsertTabs = false

[TextEditor.Basic]
IndentStyle = 1
TabSize = "eight"

[TextEditor.PlainText]
TabSize = 2
`

func openSample(t *testing.T) (*Registry, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, registryFile, []byte(sampleTOML), 0o644))
	reg, err := Open(fs, registryFile)
	require.NoError(t, err)
	return reg, fs
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	reg, err := Open(afero.NewMemMapFs(), registryFile)
	require.NoError(t, err)
	assert.Empty(t, reg.Pages())
	assert.Equal(t, registryFile, reg.Path())
}

func TestOpen_FlattensTables(t *testing.T) {
	reg, _ := openSample(t)

	v, ok := reg.Get("TextEditor/CSharp/TabSize")
	require.True(t, ok)
	assert.Equal(t, "4", v)

	v, ok = reg.Get("TextEditor/CSharp/InsertTabs")
	require.True(t, ok)
	assert.Equal(t, "false", v)

	assert.Equal(t, []string{"Basic", "CSharp", "PlainText"}, reg.Pages())
	assert.True(t, reg.HasPage("CSharp"))
	assert.False(t, reg.HasPage("Python"))
}

func TestOpen_ParseError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, registryFile, []byte("[TextEditor\nx = 1\n"), 0o644))

	_, err := Open(fs, registryFile)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, registryFile, pe.Path)
	assert.Positive(t, pe.Line)
	assert.Contains(t, pe.Error(), "parse error in "+registryFile)
}

func TestSet_ValidatesKey(t *testing.T) {
	reg, err := Open(afero.NewMemMapFs(), registryFile)
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Set("TextEditor", "x"), ErrInvalidKey)
	assert.ErrorIs(t, reg.Set("TextEditor//TabSize", "x"), ErrInvalidKey)
	require.NoError(t, reg.Set(Key("Go", PropTabSize), "8"))

	// Values and subtrees cannot share a key.
	assert.ErrorIs(t, reg.Set(Key("Go", PropTabSize)+"/Extra", "x"), ErrInvalidKey)
	assert.ErrorIs(t, reg.Set("TextEditor/Go", "x"), ErrInvalidKey)
}

func TestSave_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg, err := Open(fs, registryFile)
	require.NoError(t, err)

	require.NoError(t, reg.Set(Key("Go", PropIndentStyle), "Smart"))
	require.NoError(t, reg.Set(Key("Go", PropInsertTabs), "true"))
	require.NoError(t, reg.Set("Environment/Theme", "dark"))
	require.NoError(t, reg.Save())

	reopened, err := Open(fs, registryFile)
	require.NoError(t, err)
	assert.Equal(t, reg.Keys(""), reopened.Keys(""))
	v, _ := reopened.Get(Key("Go", PropInsertTabs))
	assert.Equal(t, "true", v)
	assert.Equal(t, []string{"Go"}, reopened.Pages())
}

func TestDelete(t *testing.T) {
	reg, _ := openSample(t)
	reg.Delete("TextEditor/PlainText/TabSize")
	assert.False(t, reg.HasPage("PlainText"))
}

func TestAdapter_Extract(t *testing.T) {
	reg, _ := openSample(t)
	a := NewAdapter(reg, zerolog.Nop())

	doc, err := a.Extract(context.Background())
	require.NoError(t, err)

	// PlainText has no indent style and is left out.
	assert.Equal(t, []string{"Basic", "CSharp"}, doc.Names())

	cs, _ := doc.Page("CSharp")
	assert.Equal(t, settings.IndentSmart, cs.Settings.TabSettings.IndentStyle)
	assert.Equal(t, settings.Int(4), cs.Settings.TabSettings.TabSize)
	assert.Equal(t, settings.Int(4), cs.Settings.TabSettings.IndentSize)
	assert.Equal(t, settings.Bool(false), cs.Settings.TabSettings.InsertTabs)

	basic, _ := doc.Page("Basic")
	assert.Equal(t, settings.IndentDefault, basic.Settings.TabSettings.IndentStyle)
	assert.Nil(t, basic.Settings.TabSettings.TabSize, "unparseable value is not captured")
	assert.Nil(t, basic.Settings.TabSettings.IndentSize)
	assert.Nil(t, basic.Settings.TabSettings.InsertTabs)
}

func TestAdapter_ExtractSkipsInvalidStyle(t *testing.T) {
	reg, err := Open(afero.NewMemMapFs(), registryFile)
	require.NoError(t, err)
	require.NoError(t, reg.Set(Key("Go", PropIndentStyle), "sideways"))
	require.NoError(t, reg.Set(Key("Rust", PropIndentStyle), "7"))

	doc, err := NewAdapter(reg, zerolog.Nop()).Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
}

func TestAdapter_Apply(t *testing.T) {
	reg, fs := openSample(t)
	a := NewAdapter(reg, zerolog.Nop())

	doc := settings.Document{Pages: []settings.PropertyPage{
		{Name: "CSharp", Settings: settings.EditorSettings{TabSettings: settings.TabSettings{
			IndentStyle: settings.IndentBlock,
			TabSize:     settings.Int(2),
			InsertTabs:  settings.Bool(true),
		}}},
		{Name: "Cobol", Settings: settings.EditorSettings{TabSettings: settings.TabSettings{
			IndentStyle: settings.IndentSmart,
		}}},
	}}

	require.NoError(t, a.Apply(context.Background(), doc))

	v, _ := reg.Get(Key("CSharp", PropIndentStyle))
	assert.Equal(t, "Block", v)
	v, _ = reg.Get(Key("CSharp", PropTabSize))
	assert.Equal(t, "2", v)
	v, _ = reg.Get(Key("CSharp", PropInsertTabs))
	assert.Equal(t, "true", v)
	v, _ = reg.Get(Key("CSharp", PropIndentSize))
	assert.Equal(t, "4", v, "uncaptured value leaves the host untouched")

	assert.False(t, reg.HasPage("Cobol"), "unknown page skipped")

	reopened, err := Open(fs, registryFile)
	require.NoError(t, err)
	v, _ = reopened.Get(Key("CSharp", PropTabSize))
	assert.Equal(t, "2", v, "apply persists the registry")
}

func TestAdapter_ExtractApplyRoundTrip(t *testing.T) {
	reg, _ := openSample(t)
	a := NewAdapter(reg, zerolog.Nop())

	before, err := a.Extract(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Apply(context.Background(), before))

	after, err := a.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAdapter_CancelledContext(t *testing.T) {
	reg, _ := openSample(t)
	a := NewAdapter(reg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, a.Apply(ctx, settings.Document{}), context.Canceled)
}
