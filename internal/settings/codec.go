package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CurrentVersion is the version tag written by Encode.
const CurrentVersion = 2

const versionPrefix = "Version: "

var versionLine = regexp.MustCompile(`^Version:\s*(\d+)\s*$`)

// bodyReader decodes the body that follows a version line.
type bodyReader func(body []byte) (Document, error)

var bodyReaders = map[int]bodyReader{
	1: decodeLegacy,
	2: decodeV2,
}

// Encode writes doc in the current version.
func Encode(doc Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}

	out := doc
	if out.Pages == nil {
		out.Pages = []PropertyPage{}
	}
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(versionPrefix) + 4 + len(body))
	buf.WriteString(versionPrefix)
	buf.WriteString(strconv.Itoa(CurrentVersion))
	buf.WriteByte('\n')
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode reads a document in any known version. Content without a version
// line is read as the legacy format.
func Decode(r io.Reader) (Document, error) {
	// BOMOverride strips a UTF-8 BOM and transcodes UTF-16 content.
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return Document{}, &FormatError{Message: "reading document", Err: err}
	}

	first, rest := splitFirstLine(data)
	m := versionLine.FindSubmatch(first)
	if m == nil {
		return decodeLegacy(data)
	}

	version, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return Document{}, &FormatError{Message: fmt.Sprintf("bad version tag %q", first), Err: err}
	}
	read, ok := bodyReaders[version]
	if !ok {
		return Document{}, &FormatError{Version: version, Message: "unknown version"}
	}
	doc, err := read(rest)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) && fe.Version == 0 {
			fe.Version = version
		}
		return Document{}, err
	}
	return doc, nil
}

func splitFirstLine(data []byte) (first, rest []byte) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return bytes.TrimSuffix(data, []byte("\r")), nil
	}
	return bytes.TrimSuffix(data[:i], []byte("\r")), data[i+1:]
}

func decodeV2(body []byte) (Document, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Document{}, &FormatError{Message: "empty body"}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, &FormatError{Message: "malformed body", Err: err}
	}
	if len(doc.Pages) == 0 {
		doc.Pages = nil
	}
	if err := doc.Validate(); err != nil {
		return Document{}, &FormatError{Message: err.Error(), Err: err}
	}
	return doc, nil
}

// legacyTab is the version 1 tab settings shape. Every field is treated as
// captured, so missing values decode as zero.
type legacyTab struct {
	IndentStyle IndentStyle `json:"IndentStyle"`
	TabSize     int         `json:"TabSize"`
	IndentSize  int         `json:"IndentSize"`
	InsertTabs  bool        `json:"InsertTabs"`
}

// legacySettings accepts both the nested TabSettings object and the flat
// fields of the earliest files.
type legacySettings struct {
	TabSettings *legacyTab `json:"TabSettings"`
	legacyTab
}

type legacyEntry struct {
	Name     string         `json:"Name"`
	Settings legacySettings `json:"Settings"`
}

func decodeLegacy(body []byte) (Document, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Document{}, &FormatError{Message: "empty document"}
	}

	var entries []legacyEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return Document{}, &FormatError{Message: "malformed legacy body", Err: err}
	}

	var doc Document
	for _, e := range entries {
		tab := e.Settings.legacyTab
		if e.Settings.TabSettings != nil {
			tab = *e.Settings.TabSettings
		}
		doc.Pages = append(doc.Pages, PropertyPage{
			Name: e.Name,
			Settings: EditorSettings{TabSettings: TabSettings{
				IndentStyle: tab.IndentStyle,
				TabSize:     Int(tab.TabSize),
				IndentSize:  Int(tab.IndentSize),
				InsertTabs:  Bool(tab.InsertTabs),
			}},
		})
	}
	if err := doc.Validate(); err != nil {
		return Document{}, &FormatError{Message: err.Error(), Err: err}
	}
	return doc, nil
}
