package services

import "strings"

// Media types accepted for request bodies and emitted for responses.
const (
	MimeJSON     = "application/json"
	MimeYAML     = "application/x-yaml"
	MimeYAMLAlt  = "application/yaml"
	MimeYAMLText = "text/yaml"
)

// BodyFormat identifies the serialization format of a request or response
// body.
type BodyFormat int

const (
	FormatJSON BodyFormat = iota
	FormatYAML
)

// MimeType returns the canonical media type of the format
func (f BodyFormat) MimeType() string {
	if f == FormatYAML {
		return MimeYAML
	}
	return MimeJSON
}

// NormalizeMime strips media-type parameters and normalizes case
func NormalizeMime(header string) string {
	if header == "" {
		return ""
	}
	if separator := strings.IndexByte(header, ';'); separator >= 0 {
		header = header[:separator]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

// IsYAMLMime reports whether mime is one of the accepted YAML media types
func IsYAMLMime(mime string) bool {
	return mime == MimeYAML || mime == MimeYAMLAlt || mime == MimeYAMLText
}

// DetectFormat resolves a normalized media type to a body format
func DetectFormat(mime string) (BodyFormat, error) {
	switch {
	case mime == MimeJSON:
		return FormatJSON, nil
	case IsYAMLMime(mime):
		return FormatYAML, nil
	default:
		return FormatJSON, NewValidation("unsupported content type: " + mime)
	}
}

// ResponseFormatFromAccept selects the response format from an Accept
// header; JSON is the default.
func ResponseFormatFromAccept(accept string) BodyFormat {
	lowered := strings.ToLower(accept)
	if strings.Contains(lowered, MimeYAML) ||
		strings.Contains(lowered, MimeYAMLAlt) ||
		strings.Contains(lowered, MimeYAMLText) {
		return FormatYAML
	}
	return FormatJSON
}
