// Package schema models JSON Schema documents across drafts 04 through
// 2020-12. Credit to the upstream validators this package's keyword
// coverage and struct shape are adapted from, in the same spirit as the
// teacher's own acknowledgement of santhosh-tekuri/jsonschema for its
// format validators.
package schema
