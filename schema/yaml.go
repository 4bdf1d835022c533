package schema

import (
	"fmt"

	goccyjson "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// LoadYAML parses a YAML-encoded schema document by decoding it into a
// generic value the same way the teacher's "application/yaml" media-type
// handler does (compiler.go's setupMediaTypes), re-encoding that value as
// JSON, and reusing Parse — so YAML input goes through the exact same
// keyword handling as JSON input. This is a supplemented input format: the
// teacher only reads JSON schemas directly, but go-yaml is already a
// direct dependency used for exactly this decode shape elsewhere in the
// teacher's own media-type registry.
func LoadYAML(yamlDoc []byte) (*Schema, error) {
	var generic any
	if err := yaml.Unmarshal(yamlDoc, &generic); err != nil {
		return nil, fmt.Errorf("schema: decode YAML: %w", err)
	}
	jsonBytes, err := goccyjson.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("schema: re-encode YAML as JSON: %w", err)
	}
	return Parse(jsonBytes)
}
