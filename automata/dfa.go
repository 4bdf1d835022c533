package automata

import "sort"

// DFA is a deterministic automaton over a partition of rune-range symbols
// derived by subset construction from an NFA.
type DFA struct {
	alphabet []runeRange    // disjoint, sorted symbol intervals
	trans    []map[int]int  // trans[state][symbolIndex] = next state
	accept   map[int]bool
	start    int
}

// Determinize runs subset construction over n, producing a DFA whose
// alphabet is the coarsest partition of rune space consistent with every
// transition range in n.
func Determinize(n *NFA) *DFA {
	alphabet := buildAlphabet(n)

	startSet := n.epsilonClosure(map[int]bool{n.start: true})
	key := func(set map[int]bool) string {
		ids := make([]int, 0, len(set))
		for s := range set {
			ids = append(ids, s)
		}
		sort.Ints(ids)
		b := make([]byte, 0, len(ids)*5)
		for _, id := range ids {
			b = append(b, byte(id>>24), byte(id>>16), byte(id>>8), byte(id), '|')
		}
		return string(b)
	}

	dfa := &DFA{alphabet: alphabet, accept: map[int]bool{}}
	seen := map[string]int{}
	var sets []map[int]bool

	addSet := func(set map[int]bool) int {
		k := key(set)
		if id, ok := seen[k]; ok {
			return id
		}
		id := len(sets)
		seen[k] = id
		sets = append(sets, set)
		dfa.trans = append(dfa.trans, map[int]int{})
		if set[n.accept] {
			dfa.accept[id] = true
		}
		return id
	}

	dfa.start = addSet(startSet)

	for i := 0; i < len(sets); i++ {
		current := sets[i]
		for symIdx, sym := range alphabet {
			next := map[int]bool{}
			for s := range current {
				for _, t := range n.states[s].trans {
					if transCovers(t.ranges, sym) {
						next[t.to] = true
					}
				}
			}
			if len(next) == 0 {
				continue
			}
			closed := n.epsilonClosure(next)
			dfa.trans[i][symIdx] = addSet(closed)
		}
	}

	return dfa
}

// transCovers reports whether any range in ranges fully contains sym; the
// alphabet is built so that every NFA transition range is expressible as a
// union of whole alphabet symbols, so partial overlap never occurs.
func transCovers(ranges []runeRange, sym runeRange) bool {
	for _, r := range ranges {
		if r.lo <= sym.lo && sym.hi <= r.hi {
			return true
		}
	}
	return false
}

// buildAlphabet computes the coarsest partition of rune space such that no
// NFA transition range straddles a partition boundary, via the classic
// sweep-line technique over range endpoints.
func buildAlphabet(n *NFA) []runeRange {
	var points []rune
	for _, st := range n.states {
		for _, t := range st.trans {
			for _, r := range t.ranges {
				points = append(points, r.lo, r.hi+1)
			}
		}
	}
	if len(points) == 0 {
		return nil
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	uniq := points[:0:0]
	var last rune = -1
	first := true
	for _, p := range points {
		if first || p != last {
			uniq = append(uniq, p)
			last = p
			first = false
		}
	}
	var alphabet []runeRange
	for i := 0; i+1 < len(uniq); i++ {
		alphabet = append(alphabet, runeRange{uniq[i], uniq[i+1] - 1})
	}
	return alphabet
}

// symbolRepresentative returns a rune inside sym usable as a witness
// character for that alphabet symbol.
func symbolRepresentative(sym runeRange) rune { return sym.lo }
