// Package cover implements the cover-image generation pipeline: request
// parsing and validation, the WCAG contrast gate, rendering, and the
// orchestration of one generation request end to end.
package cover

import (
	"encoding/json"
	"net/url"
	"strconv"

	"coverserver/internal/wcag"
)

// Dimension bounds for generated covers, inclusive.
const (
	MinDimension = 1
	MaxDimension = 1200
)

// Default text length limits, overridable per Validator.
const (
	DefaultMaxTitleLen    = 40
	DefaultMaxSubtitleLen = 70
)

// DefaultFilename is used for the attachment disposition when the caller
// does not name the download.
const DefaultFilename = "cover.png"

// DefaultFonts is the stock font allow-list.
var DefaultFonts = []string{
	"Inter",
	"Roboto",
	"Montserrat",
	"Lora",
	"Playfair Display",
	"Open Sans",
}

// Request is a fully validated generation request. A Request value only
// exists after every validation rule passed, including the contrast gate.
type Request struct {
	Width           int
	Height          int
	BackgroundColor string
	TextColor       string
	Font            string
	Title           string
	Subtitle        string
	Filename        string

	// Computed during validation.
	ContrastRatio float64
	Level         wcag.Level
}

// FieldError is one user-correctable validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RawParams is the merged, untyped request input keyed by field name.
type RawParams map[string]string

// MergeParams combines query-string values with a JSON body. Query values win
// field-by-field. A malformed body is swallowed and treated as carrying no
// fields; the request still succeeds if the query alone satisfies validation.
func MergeParams(query url.Values, body []byte) RawParams {
	params := RawParams{}
	if len(body) > 0 {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err == nil {
			for key, value := range fields {
				if s, ok := stringify(value); ok {
					params[key] = s
				}
			}
		}
	}
	for key, values := range query {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return "", false
	default:
		return "", false
	}
}
