// Package settings defines the persisted text editor settings document and
// its versioned on-disk encoding.
//
// # Document
//
// A Document is an ordered list of property pages, one per language. Each page
// carries tab settings whose numeric and boolean fields are optional: a nil
// field means the host did not report a value, which is different from a
// reported zero or false. The distinction survives encoding.
//
// # File Format
//
// Documents are written as a version line followed by a JSON body:
//
//	Version: 2
//	{
//	  "PropertyPages": [
//	    {
//	      "Name": "CSharp",
//	      "Settings": {
//	        "TabSettings": {
//	          "IndentStyle": "Smart",
//	          "TabSize": 4,
//	          "IndentSize": 4,
//	          "InsertTabs": true
//	        }
//	      }
//	    }
//	  ]
//	}
//
// Files without a version line are read with the legacy reader, which expects
// a bare JSON array of pages and treats every optional field as present.
//
// # Error Handling
//
//   - ErrDocumentAbsent: the document does not exist yet (first run)
//   - FormatError: unknown version tag or malformed body
package settings
