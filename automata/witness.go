package automata

import "sort"

// ShortestWitness returns the lexicographically-smallest shortest string d
// accepts, or false if d's language is empty.
func ShortestWitness(d *DFA) (string, bool) {
	w := Witnesses(d, 1, 4096)
	if len(w) == 0 {
		return "", false
	}
	return w[0], true
}

// Witnesses runs a breadth-first search over d's states, collecting up to
// maxCount accepting strings of non-decreasing length, each the
// lexicographically smallest string reaching its state. maxLen bounds how
// deep the search goes, guarding against unbounded exploration of a cyclic
// DFA (e.g. a pattern built from `*`).
func Witnesses(d *DFA, maxCount, maxLen int) []string {
	type item struct {
		state int
		path  []rune
	}

	visited := map[int]bool{d.start: true}
	queue := []item{{state: d.start, path: nil}}
	var out []string

	if d.accept[d.start] {
		out = append(out, "")
		if len(out) >= maxCount {
			return out
		}
	}

	symOrder := sortedSymbolIndices(d.alphabet)

	for len(queue) > 0 && len(out) < maxCount {
		cur := queue[0]
		queue = queue[1:]
		if len(cur.path) >= maxLen {
			continue
		}
		for _, symIdx := range symOrder {
			next, ok := d.trans[cur.state][symIdx]
			if !ok || visited[next] {
				continue
			}
			visited[next] = true
			r := symbolRepresentative(d.alphabet[symIdx])
			path := append(append([]rune(nil), cur.path...), r)
			if d.accept[next] {
				out = append(out, string(path))
				if len(out) >= maxCount {
					return out
				}
			}
			queue = append(queue, item{state: next, path: path})
		}
	}
	return out
}

func sortedSymbolIndices(alphabet []runeRange) []int {
	idx := make([]int, len(alphabet))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return alphabet[idx[i]].lo < alphabet[idx[j]].lo })
	return idx
}
