package diag

import (
	"fmt"
	"sort"

	"github.com/kaptinlin/go-i18n"
)

// Diagnostic is the tagged-variant record every stage emits: a closed code,
// the canonical path it concerns, and a free-form parameter bag used both
// for message interpolation and for structural-hash based repair
// bookkeeping. It mirrors the shape of the teacher's EvaluationError
// (Keyword/Code/Message/Params) generalized from a single validation error
// to any pipeline diagnostic.
type Diagnostic struct {
	Code       Code           `json:"code"`
	CanonPath  string         `json:"canonPath"`
	Phase      Phase          `json:"phase"`
	Provable   *bool          `json:"provable,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Metrics    map[string]any `json:"metrics,omitempty"`
	ScoreDetails map[string]any `json:"scoreDetails,omitempty"`
}

// New constructs a Diagnostic, defensively copying params so callers can't
// mutate it out from under a stored diagnostic.
func New(code Code, phase Phase, canonPath string, details map[string]any) Diagnostic {
	d := Diagnostic{Code: code, Phase: phase, CanonPath: canonPath}
	if len(details) > 0 {
		d.Details = make(map[string]any, len(details))
		for k, v := range details {
			d.Details[k] = v
		}
	}
	return d
}

// WithProvable marks the diagnostic as a proven (true) or merely suspected
// (false) UNSAT finding and returns the same Diagnostic for chaining.
func (d Diagnostic) WithProvable(provable bool) Diagnostic {
	d.Provable = &provable
	return d
}

// Error implements error so a Diagnostic can travel through ordinary Go
// error-handling paths before being re-attached to a stage's envelope.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s: %v", d.Code, d.CanonPath, d.Details)
}

// Localize renders a human message for the diagnostic via an i18n
// localizer, mirroring the teacher's EvaluationError.Localize. Diagnostics
// with no matching message key fall back to the raw code. The message
// variables are Details plus canonPath (unless Details sets its own).
func (d Diagnostic) Localize(localizer *i18n.Localizer) string {
	if localizer == nil {
		return string(d.Code)
	}
	vars := make(map[string]any, len(d.Details)+1)
	for k, v := range d.Details {
		vars[k] = v
	}
	if _, ok := vars["canonPath"]; !ok {
		vars["canonPath"] = d.CanonPath
	}
	return localizer.Get(string(d.Code), i18n.Vars(vars))
}

// Envelope buckets diagnostics the way the wire protocol expects: fatal
// conditions that abort a stage, warnings that don't, UNSAT hints the
// composer proved or merely suspects (see Provable), and free-form run
// notes.
type Envelope struct {
	Fatal      []Diagnostic `json:"fatal,omitempty"`
	Warn       []Diagnostic `json:"warn,omitempty"`
	UnsatHints []Diagnostic `json:"unsatHints,omitempty"`
	Run        []string     `json:"run,omitempty"`
}

// AddFatal appends a fatal diagnostic.
func (e *Envelope) AddFatal(d Diagnostic) { e.Fatal = append(e.Fatal, d) }

// AddWarn appends a non-fatal diagnostic.
func (e *Envelope) AddWarn(d Diagnostic) { e.Warn = append(e.Warn, d) }

// AddUnsatHint appends a suspected-or-proven UNSAT diagnostic.
func (e *Envelope) AddUnsatHint(d Diagnostic) { e.UnsatHints = append(e.UnsatHints, d) }

// AddNote appends a free-form run note.
func (e *Envelope) AddNote(note string) { e.Run = append(e.Run, note) }

// HasFatal reports whether the stage should be considered failed.
func (e *Envelope) HasFatal() bool { return len(e.Fatal) > 0 }

// Merge appends another envelope's contents onto e, preserving order by
// canonical path so downstream consumers see deterministic ordering.
func (e *Envelope) Merge(other Envelope) {
	e.Fatal = append(e.Fatal, other.Fatal...)
	e.Warn = append(e.Warn, other.Warn...)
	e.UnsatHints = append(e.UnsatHints, other.UnsatHints...)
	e.Run = append(e.Run, other.Run...)
	sortByCanonPath(e.Fatal)
	sortByCanonPath(e.Warn)
	sortByCanonPath(e.UnsatHints)
}

func sortByCanonPath(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].CanonPath < ds[j].CanonPath })
}

// FirstByLexicalPath resolves the Open Question on overlapping strong-UNSAT
// paths: the diagnostic with the lexically smallest canonical path wins for
// conflict metadata. Both diagnostics remain in UnsatHints; this only picks
// which one carries the conflict annotation.
func FirstByLexicalPath(ds []Diagnostic) (Diagnostic, bool) {
	if len(ds) == 0 {
		return Diagnostic{}, false
	}
	best := ds[0]
	for _, d := range ds[1:] {
		if d.CanonPath < best.CanonPath {
			best = d
		}
	}
	return best, true
}
