package diag

// Code is a member of the closed diagnostic code vocabulary. An unknown
// code reaching the wire is a protocol violation, not a new kind of error.
type Code string

// Phase identifies which pipeline stage raised a diagnostic.
type Phase string

const (
	PhaseNormalize Phase = "normalize"
	PhaseCompose   Phase = "compose"
	PhaseGenerate  Phase = "generate"
	PhaseRepair    Phase = "repair"
	PhaseValidate  Phase = "validate"
	PhaseCoverage  Phase = "coverage"
)

// Normalize-phase codes.
const (
	CodeBundleIDCollision Code = "BUNDLE_ID_COLLISION"
	CodeDialectUnknown    Code = "DIALECT_UNKNOWN"
)

// Compose-phase codes.
const (
	CodeComplexityCapEnum      Code = "COMPLEXITY_CAP_ENUM"
	CodeExternalRefUnresolved  Code = "EXTERNAL_REF_UNRESOLVED"
	CodeEvalTracePropSource    Code = "EVALTRACE_PROP_SOURCE"
	CodeContainsUnsatBySum     Code = "CONTAINS_UNSAT_BY_SUM"
	CodeNumericRangeUnsat      Code = "NUMERIC_RANGE_UNSAT"
	CodeMultipleOfUnsat        Code = "MULTIPLEOF_UNSAT"
	CodeOneOfAlwaysAmbiguous   Code = "ONEOF_ALWAYS_AMBIGUOUS"
)

// Generate-phase codes.
const (
	CodeNumericMinHit      Code = "NUMERIC_MIN_HIT"
	CodeNumericMaxHit      Code = "NUMERIC_MAX_HIT"
	CodeGenerationCapped   Code = "GENERATION_CAPPED"
	CodePatternWitnessCap  Code = "PATTERN_WITNESS_CAP"
	CodeIfAwareHintApplied Code = "IF_AWARE_HINT_APPLIED"
)

// Repair-phase codes.
const (
	CodeRepairPNamesPatternEnum   Code = "REPAIR_PNAMES_PATTERN_ENUM"
	CodeRepairStagnated           Code = "REPAIR_STAGNATED"
	CodeRepairActionRejected      Code = "REPAIR_ACTION_REJECTED"
	CodeMustCoverIndexMissing     Code = "MUSTCOVER_INDEX_MISSING"
	CodeRepairEvalGuardFail       Code = "REPAIR_EVAL_GUARD_FAIL"
	CodeRepairRenamePreflightFail Code = "REPAIR_RENAME_PREFLIGHT_FAIL"
)

// Coverage-phase codes.
const (
	CodeCoverageThresholdNotMet Code = "COVERAGE_THRESHOLD_NOT_MET"
)

// Cross-cutting codes.
const (
	CodeInternalError Code = "INTERNAL_ERROR"
)

// exitCodes maps every code to a process exit status. Informational codes
// (the boundary-hit, if-aware, rename, rejected-action and eval-guard
// codes) map to 0; every other code maps to a status in 1..255.
// CodeCoverageThresholdNotMet gets a dedicated code distinct from internal
// failures so callers can distinguish "ran fine, coverage fell short" from
// a real crash.
var exitCodes = map[Code]int{
	CodeBundleIDCollision:       10,
	CodeDialectUnknown:         11,
	CodeComplexityCapEnum:      20,
	CodeExternalRefUnresolved:  21,
	CodeEvalTracePropSource:    22,
	CodeContainsUnsatBySum:     30,
	CodeNumericRangeUnsat:      32,
	CodeMultipleOfUnsat:        33,
	CodeOneOfAlwaysAmbiguous:   34,
	CodeNumericMinHit:          0,
	CodeNumericMaxHit:          0,
	CodeGenerationCapped:       40,
	CodePatternWitnessCap:      41,
	CodeIfAwareHintApplied:     0,
	CodeRepairPNamesPatternEnum: 0,
	CodeRepairStagnated:        50,
	CodeRepairActionRejected:   0,
	CodeMustCoverIndexMissing:     51,
	CodeRepairEvalGuardFail:       0,
	CodeRepairRenamePreflightFail: 52,
	CodeCoverageThresholdNotMet: 64,
	CodeInternalError:          1,
}

// httpStatuses maps every code to an HTTP status: warning and
// informational codes map to 200, every other code to a status in
// 400..599.
var httpStatuses = map[Code]int{
	CodeBundleIDCollision:       422,
	CodeDialectUnknown:         422,
	CodeComplexityCapEnum:      200,
	CodeExternalRefUnresolved:  424,
	CodeEvalTracePropSource:    200,
	CodeContainsUnsatBySum:     422,
	CodeNumericRangeUnsat:      422,
	CodeMultipleOfUnsat:        422,
	CodeOneOfAlwaysAmbiguous:   422,
	CodeNumericMinHit:          200,
	CodeNumericMaxHit:          200,
	CodeGenerationCapped:       200,
	CodePatternWitnessCap:      200,
	CodeIfAwareHintApplied:     200,
	CodeRepairPNamesPatternEnum: 200,
	CodeRepairStagnated:        500,
	CodeRepairActionRejected:   200,
	CodeMustCoverIndexMissing:     422,
	CodeRepairEvalGuardFail:       200,
	CodeRepairRenamePreflightFail: 422,
	CodeCoverageThresholdNotMet: 409,
	CodeInternalError:          500,
}

// ExitCode returns the process exit status for code, or the internal-error
// status if code is not in the closed vocabulary.
func ExitCode(code Code) int {
	if v, ok := exitCodes[code]; ok {
		return v
	}
	return exitCodes[CodeInternalError]
}

// HTTPStatus returns the HTTP status for code, or 500 if code is not in the
// closed vocabulary.
func HTTPStatus(code Code) int {
	if v, ok := httpStatuses[code]; ok {
		return v
	}
	return 500
}

// Known reports whether code belongs to the closed vocabulary.
func Known(code Code) bool {
	_, ok := exitCodes[code]
	return ok
}
