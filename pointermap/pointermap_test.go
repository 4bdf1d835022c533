package pointermap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrips(t *testing.T) {
	m := New()
	m.Record("/properties/name", "/properties/name")
	m.Record("/$defs/Widget/properties/id", "/definitions/Widget/properties/id")

	origin, ok := m.Origin("/$defs/Widget/properties/id")
	require.True(t, ok)
	assert.Equal(t, "/definitions/Widget/properties/id", origin)

	canon, ok := m.Canonical("/definitions/Widget/properties/id")
	require.True(t, ok)
	assert.Equal(t, "/$defs/Widget/properties/id", canon)

	assert.True(t, m.Bijective())
}

func TestRecordSameCanonicalSameOriginIsNoop(t *testing.T) {
	m := New()
	m.Record("/a", "/a")
	m.Record("/a", "/a")
	assert.Equal(t, 1, m.Len())
}

func TestRecordConflictingOriginPanics(t *testing.T) {
	m := New()
	m.Record("/a", "/a")
	assert.Panics(t, func() { m.Record("/a", "/b") })
}

func TestJoinEscapesTildeAndSlash(t *testing.T) {
	assert.Equal(t, "/properties/a~1b", Join("/properties", "a/b"))
	assert.Equal(t, "/properties/a~0b", Join("/properties", "a~b"))
}

func TestSegmentsParsesPointer(t *testing.T) {
	assert.Equal(t, []string{"properties", "a/b"}, Segments("/properties/a~1b"))
	assert.Nil(t, Segments(""))
}
