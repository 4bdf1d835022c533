package automata

import "sort"

// Intersect builds the product DFA of a and b: it accepts exactly the
// strings both a and b accept. Lift and Enumerate do not call it; the
// package tests use it to build empty and length-restricted languages.
func Intersect(a, b *DFA) *DFA {
	alphabet := refineAlphabets(a.alphabet, b.alphabet)
	aMap := symbolIndexMap(a.alphabet, alphabet)
	bMap := symbolIndexMap(b.alphabet, alphabet)

	type pair struct{ a, b int }
	key := func(p pair) int64 { return int64(p.a)<<32 | int64(uint32(p.b)) }

	out := &DFA{alphabet: alphabet, accept: map[int]bool{}}
	seen := map[int64]int{}
	var pairs []pair

	addPair := func(p pair) int {
		k := key(p)
		if id, ok := seen[k]; ok {
			return id
		}
		id := len(pairs)
		seen[k] = id
		pairs = append(pairs, p)
		out.trans = append(out.trans, map[int]int{})
		if a.accept[p.a] && b.accept[p.b] {
			out.accept[id] = true
		}
		return id
	}

	out.start = addPair(pair{a.start, b.start})

	for i := 0; i < len(pairs); i++ {
		cur := pairs[i]
		for symIdx := range alphabet {
			aSym, ok1 := aMap[symIdx]
			bSym, ok2 := bMap[symIdx]
			if !ok1 || !ok2 {
				continue
			}
			an, ok1 := a.trans[cur.a][aSym]
			bn, ok2 := b.trans[cur.b][bSym]
			if !ok1 || !ok2 {
				continue
			}
			out.trans[i][symIdx] = addPair(pair{an, bn})
		}
	}

	return out
}

// refineAlphabets computes the common refinement of two rune-range
// partitions: the set of intervals such that every interval in either
// input partition is a union of intervals in the output.
func refineAlphabets(a, b []runeRange) []runeRange {
	var points []rune
	for _, r := range a {
		points = append(points, r.lo, r.hi+1)
	}
	for _, r := range b {
		points = append(points, r.lo, r.hi+1)
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
	var out []runeRange
	for i := 0; i+1 < len(uniq); i++ {
		out = append(out, runeRange{uniq[i], uniq[i+1] - 1})
	}
	return out
}

// symbolIndexMap maps each refined-alphabet index to the index of the
// original-alphabet interval that contains it.
func symbolIndexMap(original, refined []runeRange) map[int]int {
	m := make(map[int]int, len(refined))
	for ri, r := range refined {
		for oi, o := range original {
			if o.lo <= r.lo && r.hi <= o.hi {
				m[ri] = oi
				break
			}
		}
	}
	return m
}

// AnyStringDFA returns a DFA accepting every finite string over all runes
// — the identity element for Intersect.
func AnyStringDFA() *DFA {
	return &DFA{
		alphabet: []runeRange{{0, 0x10FFFF}},
		trans:    []map[int]int{{0: 0}},
		accept:   map[int]bool{0: true},
		start:    0,
	}
}
