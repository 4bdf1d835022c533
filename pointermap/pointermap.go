// Package pointermap tracks the bijection between canonical JSON Pointers
// (paths into the schema tree Normalize produces) and origin JSON Pointers
// (paths into the schema document the caller supplied), using
// github.com/kaptinlin/jsonpointer for segment parsing the way the
// teacher's ref.go resolves $ref pointers; token escaping is done locally
// by Escape.
package pointermap

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonpointer"
)

// Map is a bijective mapping between canonical and origin pointers. Every
// canonical pointer Normalize emits has exactly one origin pointer, and
// every origin pointer participating in the canonical tree has exactly one
// canonical counterpart.
type Map struct {
	toOrigin map[string]string
	toCanon  map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{toOrigin: make(map[string]string), toCanon: make(map[string]string)}
}

// Record registers a canonical<->origin pointer pair. Re-recording the same
// pair is a no-op; recording a canonical pointer with a different origin
// than previously seen is an invariant violation and panics, since
// Normalize is expected to assign each canonical path exactly once.
func (m *Map) Record(canon, origin string) {
	if existing, ok := m.toOrigin[canon]; ok {
		if existing != origin {
			panic(fmt.Sprintf("pointermap: canonical pointer %q already mapped to %q, cannot remap to %q", canon, existing, origin))
		}
		return
	}
	m.toOrigin[canon] = origin
	m.toCanon[origin] = canon
}

// Origin returns the origin pointer for a canonical pointer.
func (m *Map) Origin(canon string) (string, bool) {
	v, ok := m.toOrigin[canon]
	return v, ok
}

// Canonical returns the canonical pointer for an origin pointer.
func (m *Map) Canonical(origin string) (string, bool) {
	v, ok := m.toCanon[origin]
	return v, ok
}

// Len returns the number of recorded pairs.
func (m *Map) Len() int { return len(m.toOrigin) }

// CanonicalPaths returns every recorded canonical pointer, in map-iteration
// (non-deterministic) order; callers that need a stable order should sort
// the result.
func (m *Map) CanonicalPaths() []string {
	out := make([]string, 0, len(m.toOrigin))
	for k := range m.toOrigin {
		out = append(out, k)
	}
	return out
}

// Join appends a raw (already-unescaped) token to a pointer, escaping it
// per RFC 6901 (~ -> ~0, / -> ~1) with Escape.
func Join(base string, tokens ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(Escape(t))
	}
	return b.String()
}

// Escape applies RFC 6901 escaping to a single pointer token.
func Escape(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return token
}

// Segments parses a pointer into its unescaped tokens using
// jsonpointer.Parse, the same primitive the teacher's resolveJSONPointer
// uses for $ref resolution.
func Segments(pointer string) []string {
	if pointer == "" || pointer == "/" {
		return nil
	}
	return jsonpointer.Parse(pointer)
}

// Bijective reports whether every origin pointer maps back to the
// canonical pointer that produced it and vice versa — the invariant
// Normalize must uphold for every pointer it emits.
func (m *Map) Bijective() bool {
	if len(m.toOrigin) != len(m.toCanon) {
		return false
	}
	for canon, origin := range m.toOrigin {
		if back, ok := m.toCanon[origin]; !ok || back != canon {
			return false
		}
	}
	return true
}
