package settings

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{Pages: []PropertyPage{
		{
			Name: "CSharp",
			Settings: EditorSettings{TabSettings: TabSettings{
				IndentStyle: IndentSmart,
				TabSize:     Int(4),
				IndentSize:  Int(4),
				InsertTabs:  Bool(false),
			}},
		},
		{
			Name: "HTML",
			Settings: EditorSettings{TabSettings: TabSettings{
				IndentStyle: IndentBlock,
				TabSize:     Int(2),
			}},
		},
		{
			Name: "Basic",
			Settings: EditorSettings{TabSettings: TabSettings{
				IndentStyle: IndentDefault,
				InsertTabs:  Bool(true),
			}},
		},
	}}
}

func TestEncode_WritesVersionLine(t *testing.T) {
	data, err := Encode(sampleDocument())
	require.NoError(t, err)

	first, _, ok := strings.Cut(string(data), "\n")
	require.True(t, ok)
	assert.Equal(t, "Version: 2", first)
	assert.Contains(t, string(data), `"PropertyPages"`)
	assert.Contains(t, string(data), `"IndentStyle": "Smart"`)
}

func TestEncode_OmitsUncapturedValues(t *testing.T) {
	doc := Document{Pages: []PropertyPage{{
		Name:     "HTML",
		Settings: EditorSettings{TabSettings: TabSettings{IndentStyle: IndentBlock}},
	}}}

	data, err := Encode(doc)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "TabSize")
	assert.NotContains(t, string(data), "IndentSize")
	assert.NotContains(t, string(data), "InsertTabs")
}

func TestEncode_KeepsCapturedZeroValues(t *testing.T) {
	doc := Document{Pages: []PropertyPage{{
		Name: "Plain",
		Settings: EditorSettings{TabSettings: TabSettings{
			IndentStyle: IndentBlock,
			TabSize:     Int(0),
			InsertTabs:  Bool(false),
		}},
	}}}

	data, err := Encode(doc)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"TabSize": 0`)
	assert.Contains(t, string(data), `"InsertTabs": false`)
}

func TestEncode_RejectsInvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"empty name", Document{Pages: []PropertyPage{{Name: ""}}}},
		{"duplicate", Document{Pages: []PropertyPage{{Name: "A"}, {Name: "A"}}}},
		{"bad style", Document{Pages: []PropertyPage{{Name: "A", Settings: EditorSettings{TabSettings: TabSettings{IndentStyle: 7}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	docs := []Document{
		sampleDocument(),
		{},
		{Pages: []PropertyPage{{Name: "Only", Settings: EditorSettings{TabSettings: TabSettings{IndentStyle: IndentSmart}}}}},
	}

	for _, doc := range docs {
		data, err := Encode(doc)
		require.NoError(t, err)

		got, err := Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	}
}

func TestDecode_EmptyPagesAreNil(t *testing.T) {
	data, err := Encode(Document{Pages: []PropertyPage{}})
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Nil(t, got.Pages)
	assert.Equal(t, Document{}, got)

	got, err = Decode(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Nil(t, got.Pages)
}

func TestDecode_Legacy(t *testing.T) {
	body := `[
  {"Name": "CSharp", "Settings": {"IndentStyle": 2, "IndentSize": 4, "InsertTabs": true}},
  {"Name": "XML", "Settings": {"TabSettings": {"IndentStyle": "Block", "TabSize": 8}}}
]`

	doc, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	cs := doc.Pages[0].Settings.TabSettings
	assert.Equal(t, IndentSmart, cs.IndentStyle)
	require.NotNil(t, cs.TabSize, "legacy fields are always captured")
	assert.Equal(t, 0, *cs.TabSize)
	assert.Equal(t, 4, *cs.IndentSize)
	assert.True(t, *cs.InsertTabs)

	xml := doc.Pages[1].Settings.TabSettings
	assert.Equal(t, IndentBlock, xml.IndentStyle)
	assert.Equal(t, 8, *xml.TabSize)
	require.NotNil(t, xml.InsertTabs)
	assert.False(t, *xml.InsertTabs)
}

func TestDecode_LegacyMatchesTaggedVersion1(t *testing.T) {
	body := `[{"Name": "CSharp", "Settings": {"TabSettings": {"IndentStyle": "Smart", "TabSize": 4}}}]`

	untagged, err := Decode(strings.NewReader(body))
	require.NoError(t, err)

	tagged, err := Decode(strings.NewReader("Version: 1\n" + body))
	require.NoError(t, err)

	assert.Equal(t, tagged, untagged)
}

func TestDecode_UnknownVersion(t *testing.T) {
	_, err := Decode(strings.NewReader("Version: 99\n{\"PropertyPages\": []}"))
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 99, fe.Version)
	assert.True(t, IsFormatError(err))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n "},
		{"garbage", "not json at all"},
		{"tag without body", "Version: 2\n"},
		{"broken body", "Version: 2\n{\"PropertyPages\": ["},
		{"object as legacy", `{"PropertyPages": []}`},
		{"duplicate pages", "Version: 2\n" + `{"PropertyPages": [{"Name": "A", "Settings": {"TabSettings": {"IndentStyle": "Smart"}}}, {"Name": "A", "Settings": {"TabSettings": {"IndentStyle": "Smart"}}}]}`},
		{"unknown style", "Version: 2\n" + `{"PropertyPages": [{"Name": "A", "Settings": {"TabSettings": {"IndentStyle": "Fancy"}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, IsFormatError(err), "got %v", err)
		})
	}
}

func TestDecode_CRLFAndBOM(t *testing.T) {
	data, err := Encode(sampleDocument())
	require.NoError(t, err)

	windows := append([]byte{0xEF, 0xBB, 0xBF}, bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))...)

	got, err := Decode(bytes.NewReader(windows))
	require.NoError(t, err)
	assert.Equal(t, sampleDocument(), got)
}

func TestDecode_AcceptsIntegerIndentStyle(t *testing.T) {
	input := "Version: 2\n" + `{"PropertyPages": [{"Name": "A", "Settings": {"TabSettings": {"IndentStyle": 1}}}]}`

	doc, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, IndentDefault, doc.Pages[0].Settings.TabSettings.IndentStyle)
	assert.Nil(t, doc.Pages[0].Settings.TabSettings.TabSize)
}

func TestFormatError_Message(t *testing.T) {
	err := &FormatError{Path: "/tmp/x.json", Version: 99, Message: "unknown version"}
	assert.Equal(t, "format error in /tmp/x.json (version 99): unknown version", err.Error())

	wrapped := &FormatError{Message: "malformed body", Err: errors.New("eof")}
	assert.Equal(t, "format error in settings document: malformed body", wrapped.Error())
	assert.Equal(t, "eof", errors.Unwrap(wrapped).Error())
}
