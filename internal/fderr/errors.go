// Package fderr collects the sentinel errors shared across pipeline stages.
//
// Stage code should prefer returning a diag.Diagnostic over a bare error;
// these sentinels exist for the Go-level error chain (errors.Is/As) that
// underlies diagnostic construction and for package-internal control flow.
package fderr

import "errors"

// Schema parsing / dialect errors.
var (
	ErrNotWellFormedJSON  = errors.New("fderr: schema is not well-formed JSON")
	ErrUnknownDialect     = errors.New("fderr: $schema does not match a supported dialect")
	ErrBooleanSchemaField = errors.New("fderr: boolean schema has no keyword fields")
	ErrUnsupportedKeyword = errors.New("fderr: keyword combination outside the supported envelope")
)

// Pointer / reference errors.
var (
	ErrInvalidPointer      = errors.New("fderr: malformed JSON Pointer")
	ErrPointerNotFound     = errors.New("fderr: JSON Pointer does not resolve within the document")
	ErrRefCycle            = errors.New("fderr: $ref resolution cycle detected")
	ErrAnchorNotFound      = errors.New("fderr: $anchor/$dynamicAnchor not found in scope")
	ErrExternalRefUnresolved = errors.New("fderr: external $ref could not be resolved")
)

// Resolver errors.
var (
	ErrHostNotAllowlisted = errors.New("fderr: resolver host is not on the configured allowlist")
	ErrDocumentTooLarge   = errors.New("fderr: resolved document exceeds the configured byte cap")
	ErrTooManyRedirects   = errors.New("fderr: resolver redirect count exceeded")
	ErrTooManyDocuments   = errors.New("fderr: resolver overall document count exceeded")
)

// Composition errors.
var (
	ErrUnsat            = errors.New("fderr: schema proven unsatisfiable")
	ErrComplexityCapped = errors.New("fderr: static analysis hit a complexity cap")
)

// Generation / repair errors.
var (
	ErrGenerationBudgetExhausted = errors.New("fderr: generation budget exhausted before count was reached")
	ErrRepairStagnated           = errors.New("fderr: repair loop made no score progress and exhausted its action set")
	ErrOracleUnavailable         = errors.New("fderr: no validation oracle is configured")
)

// ErrInternal marks invariant violations. It is always wrapped with context
// and never silenced; callers surface it as diag.CodeInternalError.
var ErrInternal = errors.New("fderr: internal invariant violation")
