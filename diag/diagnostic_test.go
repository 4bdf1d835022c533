package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeAndHTTPStatusKnownCode(t *testing.T) {
	assert.Equal(t, 64, ExitCode(CodeCoverageThresholdNotMet))
	assert.Equal(t, 409, HTTPStatus(CodeCoverageThresholdNotMet))
	assert.NotEqual(t, ExitCode(CodeCoverageThresholdNotMet), ExitCode(CodeInternalError))
}

func TestExitCodeUnknownCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, ExitCode(CodeInternalError), ExitCode(Code("NOT_A_REAL_CODE")))
	assert.False(t, Known(Code("NOT_A_REAL_CODE")))
}

func TestFirstByLexicalPathPicksSmallestPath(t *testing.T) {
	ds := []Diagnostic{
		New(CodeContainsUnsatBySum, PhaseCompose, "/properties/z", nil),
		New(CodeNumericRangeUnsat, PhaseCompose, "/properties/a", nil),
	}
	best, ok := FirstByLexicalPath(ds)
	require.True(t, ok)
	assert.Equal(t, "/properties/a", best.CanonPath)
}

func TestGetI18nLoadsEmbeddedLocales(t *testing.T) {
	bundle, err := GetI18n()
	require.NoError(t, err)
	require.NotNil(t, bundle)
}
