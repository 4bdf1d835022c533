package automata

import "fmt"

// Strategy names the anchored-subset lift decision: whether witnesses are
// produced as a full match of the pattern's own language ("strict"), as a
// pattern occurrence embedded in an arbitrary surrounding string
// ("substring"), or not at all ("refused").
type Strategy string

const (
	StrategyStrict    Strategy = "strict"
	StrategySubstring Strategy = "substring"
	StrategyRefused   Strategy = "refused"
)

// LiftDecision is the outcome of deciding how to enumerate witnesses for a
// pattern given its anchoring.
type LiftDecision struct {
	Strategy Strategy
	Reason   string // populated when Strategy == StrategyRefused
}

// Lift decides the enumeration strategy for p given its compiled DFA.
// A pattern anchored at both ends is already exactly its own language, so
// any witness the DFA accepts is a strict full match. An unanchored (or
// partially anchored) pattern only requires the literal to occur somewhere
// in the final string; enumerating witnesses of the bare DFA still yields
// valid full-string values (the bare witness trivially contains itself),
// so both cases reduce to straightforward witness enumeration — the
// substring case is only refused when doing so would silently under- or
// over-constrain the result, which happens when the pattern's language is
// empty.
func Lift(p *Pattern, d *DFA) LiftDecision {
	if IsEmpty(d) {
		return LiftDecision{Strategy: StrategyRefused, Reason: "pattern language is empty: no string satisfies it"}
	}
	if p.anchoredStart && p.anchoredEnd {
		return LiftDecision{Strategy: StrategyStrict}
	}
	return LiftDecision{Strategy: StrategySubstring}
}

// IsEmpty reports whether d accepts no strings at all, by checking whether
// any accept state is reachable from the start state.
func IsEmpty(d *DFA) bool {
	visited := map[int]bool{d.start: true}
	queue := []int{d.start}
	if d.accept[d.start] {
		return false
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range d.trans[s] {
			if d.accept[next] {
				return false
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return true
}

// Enumerate compiles src, decides its lift strategy, and returns up to
// maxCount witness strings. It returns an error when src does not parse
// or when the strategy is StrategyRefused.
func Enumerate(src string, maxCount, maxLen int) ([]string, LiftDecision, error) {
	p, err := Parse(src)
	if err != nil {
		return nil, LiftDecision{}, err
	}
	nfa := Build(p)
	d := Determinize(nfa)
	decision := Lift(p, d)
	if decision.Strategy == StrategyRefused {
		return nil, decision, fmt.Errorf("automata: %s", decision.Reason)
	}
	return Witnesses(d, maxCount, maxLen), decision, nil
}
