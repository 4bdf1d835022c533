package automata

// Match runs s through d and reports whether it is accepted. Exported so
// callers that only need a yes/no answer (propertyNames filtering, say)
// don't have to build a witness enumerator just to test membership.
func Match(d *DFA, s string) bool {
	state := d.start
	for _, r := range s {
		sym, ok := symbolIndexFor(d, r)
		if !ok {
			return false
		}
		next, ok := d.trans[state][sym]
		if !ok {
			return false
		}
		state = next
	}
	return d.accept[state]
}

func symbolIndexFor(d *DFA, r rune) (int, bool) {
	for i, sym := range d.alphabet {
		if sym.lo <= r && r <= sym.hi {
			return i, true
		}
	}
	return 0, false
}
