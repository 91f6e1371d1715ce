package settings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IndentStyle is the auto-indent behaviour of a language page.
type IndentStyle int

const (
	// IndentBlock keeps the indentation of the previous line.
	IndentBlock IndentStyle = iota
	// IndentDefault uses the host's default indentation.
	IndentDefault
	// IndentSmart lets the language service compute indentation.
	IndentSmart
)

// String returns the indent style name.
func (s IndentStyle) String() string {
	switch s {
	case IndentBlock:
		return "Block"
	case IndentDefault:
		return "Default"
	case IndentSmart:
		return "Smart"
	default:
		return fmt.Sprintf("IndentStyle(%d)", int(s))
	}
}

// ParseIndentStyle parses an indent style name, case-insensitively.
func ParseIndentStyle(s string) (IndentStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "none":
		return IndentBlock, nil
	case "default":
		return IndentDefault, nil
	case "smart":
		return IndentSmart, nil
	default:
		return 0, fmt.Errorf("unknown indent style %q", s)
	}
}

// Valid reports whether s is one of the known styles.
func (s IndentStyle) Valid() bool {
	return s >= IndentBlock && s <= IndentSmart
}

// MarshalJSON writes the style name.
func (s IndentStyle) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid indent style %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the style name or the integer form written by
// older hosts.
func (s *IndentStyle) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseIndentStyle(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("indent style must be a name or integer: %s", string(data))
	}
	style := IndentStyle(n)
	if !style.Valid() {
		return fmt.Errorf("invalid indent style %d", n)
	}
	*s = style
	return nil
}

// TabSettings holds the tab related settings of one page.
// Nil fields were not captured from the host.
type TabSettings struct {
	IndentStyle IndentStyle `json:"IndentStyle"`
	TabSize     *int        `json:"TabSize,omitempty"`
	IndentSize  *int        `json:"IndentSize,omitempty"`
	InsertTabs  *bool       `json:"InsertTabs,omitempty"`
}

// EditorSettings groups the settings categories of a page.
type EditorSettings struct {
	TabSettings TabSettings `json:"TabSettings"`
}

// PropertyPage is the settings of a single language page.
type PropertyPage struct {
	Name     string         `json:"Name"`
	Settings EditorSettings `json:"Settings"`
}

// Document is an ordered set of property pages keyed by name. A nil and an
// empty Pages mean the same thing; decoded documents without pages always
// hold nil.
type Document struct {
	Pages []PropertyPage `json:"PropertyPages"`
}

// Page returns the page with the given name.
func (d Document) Page(name string) (PropertyPage, bool) {
	for _, p := range d.Pages {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyPage{}, false
}

// Names returns the page names in document order.
func (d Document) Names() []string {
	names := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		names = append(names, p.Name)
	}
	return names
}

// Validate checks page names are present and unique and styles are known.
func (d Document) Validate() error {
	seen := make(map[string]bool, len(d.Pages))
	for i, p := range d.Pages {
		if p.Name == "" {
			return fmt.Errorf("page %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate page %q", p.Name)
		}
		seen[p.Name] = true
		if !p.Settings.TabSettings.IndentStyle.Valid() {
			return fmt.Errorf("page %q: invalid indent style %d", p.Name, int(p.Settings.TabSettings.IndentStyle))
		}
	}
	return nil
}

// Scope identifies which document is authoritative.
type Scope int

const (
	// ScopeGlobal is the per-user document.
	ScopeGlobal Scope = iota
	// ScopeScoped is the document stored with the open project.
	ScopeScoped
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// Int returns a pointer to v, for building optional fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for building optional fields.
func Bool(v bool) *bool { return &v }
