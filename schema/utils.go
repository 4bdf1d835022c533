package schema

import (
	"net/url"
	"path"
	"strings"
)

// IsAbsoluteURI reports whether urlStr has both a scheme and a host.
func IsAbsoluteURI(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ResolveRelativeURI resolves relativeURL against baseURI, returning
// relativeURL unchanged if either fails to parse as a URL.
func ResolveRelativeURI(baseURI, relativeURL string) string {
	if IsAbsoluteURI(relativeURL) {
		return relativeURL
	}
	base, err := url.Parse(baseURI)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return relativeURL
	}
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return relativeURL
	}
	return base.ResolveReference(rel).String()
}

// BaseURIFromID derives a base URI (directory-level) from an $id value,
// the way a browser would resolve a relative link against the current
// document's own location.
func BaseURIFromID(id string) string {
	if id == "" {
		return ""
	}
	u, err := url.Parse(id)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	if strings.HasSuffix(u.Path, "/") {
		return u.String()
	}
	u.Path = path.Dir(u.Path)
	if u.Path == "." {
		u.Path = "/"
	}
	if u.Path != "/" && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// SplitRef separates a $ref value into its base URI and fragment.
func SplitRef(ref string) (baseURI, fragment string) {
	parts := strings.SplitN(ref, "#", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return ref, ""
}

// IsJSONPointerFragment reports whether a $ref fragment is a JSON Pointer
// (as opposed to a plain anchor name).
func IsJSONPointerFragment(fragment string) bool {
	return strings.HasPrefix(fragment, "/")
}

// DataType classifies a decoded JSON value (nil, bool, float64, Go integer
// types, string, []any, map[string]any; anything else, json.Number
// included, is "unknown") into its JSON Schema type name, used by
// the generator and repair engine to check a produced value's declared
// type without re-parsing it.
func DataType(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		if x == float64(int64(x)) {
			return "integer"
		}
		return "number"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
