package schema

import (
	"fmt"

	"github.com/go-json-experiment/json"
)

// SchemaType holds one or more JSON Schema primitive type names, since
// "type" may be a single string or an array of strings.
type SchemaType []string

func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*st = SchemaType{single}
		return nil
	}
	var multi []string
	if err := json.Unmarshal(data, &multi); err == nil {
		*st = SchemaType(multi)
		return nil
	}
	return fmt.Errorf("schema: \"type\" must be a string or array of strings")
}

// Has reports whether t allows the given primitive type name.
func (st SchemaType) Has(name string) bool {
	for _, t := range st {
		if t == name {
			return true
		}
	}
	return false
}
