package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndentStyle(t *testing.T) {
	tests := []struct {
		input   string
		want    IndentStyle
		wantErr bool
	}{
		{"Smart", IndentSmart, false},
		{"smart", IndentSmart, false},
		{" Block ", IndentBlock, false},
		{"none", IndentBlock, false},
		{"DEFAULT", IndentDefault, false},
		{"tabs", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIndentStyle(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndentStyle_UnmarshalRejectsOutOfRange(t *testing.T) {
	var s IndentStyle
	assert.Error(t, json.Unmarshal([]byte("5"), &s))
	assert.Error(t, json.Unmarshal([]byte("true"), &s))
}

func TestDocument_Page(t *testing.T) {
	doc := sampleDocument()

	page, ok := doc.Page("HTML")
	require.True(t, ok)
	assert.Equal(t, 2, *page.Settings.TabSettings.TabSize)

	_, ok = doc.Page("Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"CSharp", "HTML", "Basic"}, doc.Names())
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "global", ScopeGlobal.String())
	assert.Equal(t, "scoped", ScopeScoped.String())
	assert.Equal(t, ScopeGlobal, Scope(0), "zero value is global")
}
