package schema

import "strings"

// Dialect identifies which JSON Schema draft a document declares via
// $schema, the detail the distilled pipeline spec leaves implicit but any
// multi-draft implementation must resolve before normalization can fold
// draft-specific keyword spellings (definitions vs $defs, items-as-array
// vs items-as-schema) into the canonical 2020-12 shape.
type Dialect string

const (
	DialectDraft04    Dialect = "draft-04"
	DialectDraft06    Dialect = "draft-06"
	DialectDraft07    Dialect = "draft-07"
	Dialect201909     Dialect = "2019-09"
	Dialect202012     Dialect = "2020-12"
	DialectUnknown    Dialect = "unknown"
)

var dialectsByURIFragment = []struct {
	fragment string
	dialect  Dialect
}{
	{"draft-04", DialectDraft04},
	{"draft-06", DialectDraft06},
	{"draft-07", DialectDraft07},
	{"2019-09", Dialect201909},
	{"2020-12", Dialect202012},
}

// DetectDialect inspects a schema's $schema URI (falling back to "" when
// absent, which is treated as the newest supported dialect so that
// schemas written without a $schema keyword still normalize) and returns
// the matching Dialect.
func DetectDialect(schemaURI string) Dialect {
	if schemaURI == "" {
		return Dialect202012
	}
	for _, d := range dialectsByURIFragment {
		if strings.Contains(schemaURI, d.fragment) {
			return d.dialect
		}
	}
	return DialectUnknown
}

// UsesDefinitionsKeyword reports whether a dialect spells its definitions
// container "definitions" (draft-04/06/07) rather than "$defs".
func (d Dialect) UsesDefinitionsKeyword() bool {
	switch d {
	case DialectDraft04, DialectDraft06, DialectDraft07:
		return true
	default:
		return false
	}
}

// ItemsIsTupleArray reports whether a dialect spells tuple validation as
// an "items" array with a separate "additionalItems" schema (pre-2020-12)
// rather than "prefixItems" + "items".
func (d Dialect) ItemsIsTupleArray() bool {
	switch d {
	case DialectDraft04, DialectDraft06, DialectDraft07, Dialect201909:
		return true
	default:
		return false
	}
}
