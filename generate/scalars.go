package generate

import (
	"math"
	"math/big"
	"sort"

	"github.com/foundrydata/foundrydata-sub008/automata"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

// generateNumber picks a value inside [minimum, maximum] (honoring
// exclusivity), snapping to a multipleOf grid when present. Boundary
// representatives are forced for the first two items of a multi-item run
// (item 0 takes the minimum, item 1 the maximum, whichever bound is
// present) so NUMERIC_MIN_HIT/NUMERIC_MAX_HIT coverage targets are
// guaranteed rather than merely likely once count permits both; later
// items still favor a boundary a fraction of the time on top of that.
func (g *Generator) generateNumber(s *schema.Schema, canonPath, t string) any {
	lo, loExcl, hasLo := effectiveLower(s)
	hi, hiExcl, hasHi := effectiveUpper(s)

	r := g.subRand(canonPath, "numeric", g.itemIndex)

	var loF, hiF float64 = -1e6, 1e6
	if hasLo {
		loF, _ = lo.Float64()
		if loExcl {
			loF += boundaryEpsilon(t)
		}
	}
	if hasHi {
		hiF, _ = hi.Float64()
		if hiExcl {
			hiF -= boundaryEpsilon(t)
		}
	}
	if loF > hiF {
		loF, hiF = hiF, loF
	}

	var val float64
	switch forcedBoundary(g.itemIndex, hasLo, hasHi) {
	case "min":
		val = loF
		g.recordEvent("numeric_min", canonPath)
		if g.notes != nil {
			g.notes.AddNote("boundary representative: numeric minimum at " + canonPath)
		}
	case "max":
		val = hiF
		g.recordEvent("numeric_max", canonPath)
		if g.notes != nil {
			g.notes.AddNote("boundary representative: numeric maximum at " + canonPath)
		}
	default:
		switch {
		case hasLo && r.Float64() < 0.15:
			val = loF
			g.recordEvent("numeric_min", canonPath)
		case hasHi && r.Float64() < 0.15:
			val = hiF
			g.recordEvent("numeric_max", canonPath)
		default:
			val = loF + r.Float64()*(hiF-loF)
		}
	}

	if t == "integer" {
		val = math.Round(val)
	}
	if s.MultipleOf != nil {
		m, _ := s.MultipleOf.Float64()
		if m != 0 {
			val = math.Round(val/m) * m
		}
	}
	if t == "integer" {
		return int64(val)
	}
	return val
}

// forcedBoundary reports which boundary, if any, item itemIndex must use:
// the first item takes the minimum when one exists (the maximum
// otherwise), the second takes the maximum when one exists. Every later
// item falls back to generateNumber's probabilistic sampling.
func forcedBoundary(itemIndex int, hasLo, hasHi bool) string {
	switch itemIndex {
	case 0:
		if hasLo {
			return "min"
		}
		if hasHi {
			return "max"
		}
	case 1:
		if hasHi {
			return "max"
		}
	}
	return ""
}

func boundaryEpsilon(t string) float64 {
	if t == "integer" {
		return 1
	}
	return 1e-6
}

func effectiveLower(s *schema.Schema) (*big.Rat, bool, bool) {
	if s.ExclusiveMinimum != nil {
		return s.ExclusiveMinimum.Rat, true, true
	}
	if s.Minimum != nil {
		return s.Minimum.Rat, false, true
	}
	return nil, false, false
}

func effectiveUpper(s *schema.Schema) (*big.Rat, bool, bool) {
	if s.ExclusiveMaximum != nil {
		return s.ExclusiveMaximum.Rat, true, true
	}
	if s.Maximum != nil {
		return s.Maximum.Rat, false, true
	}
	return nil, false, false
}

// generateString produces a pattern witness via the automata engine when
// a pattern is present, otherwise a random lowercase a-z string whose
// code-point length respects minLength/maxLength.
func (g *Generator) generateString(s *schema.Schema, canonPath string) any {
	minLen, maxLen := 0, 16
	if s.MinLength != nil {
		minLen = int(*s.MinLength)
	}
	if s.MaxLength != nil {
		maxLen = int(*s.MaxLength)
	} else if minLen > maxLen {
		maxLen = minLen + 8
	}

	if s.Pattern != nil {
		witnesses, decision, err := automata.Enumerate(*s.Pattern, 32, maxLen+8)
		if err == nil && decision.Strategy != automata.StrategyRefused {
			for _, w := range witnesses {
				n := len([]rune(w))
				if n >= minLen && (s.MaxLength == nil || n <= maxLen) {
					return w
				}
			}
			if g.notes != nil {
				g.notes.AddWarn(diag.New(diag.CodePatternWitnessCap, diag.PhaseGenerate, canonPath, map[string]any{"tried": decision}))
			}
		}
	}

	r := g.subRand(canonPath, "string", 0)
	length := minLen
	if maxLen > minLen {
		length += r.Intn(maxLen - minLen + 1)
	}
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	out := make([]rune, length)
	for i := range out {
		out[i] = rune(alphabet[r.Intn(len(alphabet))])
	}
	return string(out)
}

// generateArray produces prefixItems-then-items elements, honoring
// minItems/maxItems, and a contains witness when needed.
func (g *Generator) generateArray(s *schema.Schema, canonPath string) any {
	minItems := 0
	if s.MinItems != nil {
		minItems = int(*s.MinItems)
	}
	maxItems := minItems + 3
	if s.MaxItems != nil {
		maxItems = int(*s.MaxItems)
	}
	n := len(s.PrefixItems)
	if n < minItems {
		n = minItems
	}
	if n == 0 && s.Items != nil {
		r := g.subRand(canonPath, "arrayLength", 0)
		n = minItems
		if maxItems > minItems {
			n += r.Intn(maxItems-minItems+1)
		}
	}
	if n > maxItems && maxItems >= len(s.PrefixItems) {
		n = maxItems
	}

	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		var sub *schema.Schema
		path := canonPath
		if i < len(s.PrefixItems) {
			sub = s.PrefixItems[i]
			path += "/prefixItems/" + itoa(i)
		} else {
			sub = s.Items
			path += "/items"
		}
		if sub == nil {
			break
		}
		out = append(out, g.Generate(sub, path))
	}

	if s.Contains != nil {
		min := 1
		if s.MinContains != nil {
			min = int(*s.MinContains)
		}
		for len(out) < min {
			out = append(out, g.Generate(s.Contains, canonPath+"/contains"))
		}
	}
	return out
}

// generateObject produces required keys plus a deterministic subset of
// optional keys drawn from Compose's admissible key universe, honoring
// minProperties/maxProperties.
func (g *Generator) generateObject(s *schema.Schema, canonPath string) any {
	out := map[string]any{}
	required := map[string]bool{}
	for _, k := range s.Required {
		required[k] = true
	}

	for _, k := range s.Required {
		sub := propertySchema(s, k)
		out[k] = g.Generate(sub, canonPath+"/properties/"+k)
	}

	node := g.model.Nodes[canonPath]
	if node != nil {
		candidates := make([]string, 0, len(node.Universe.Keys))
		for _, k := range node.Universe.Keys {
			if !required[k] {
				candidates = append(candidates, k)
			}
		}
		sort.Strings(candidates)

		minProps := 0
		if s.MinProperties != nil {
			minProps = int(*s.MinProperties)
		}
		need := minProps - len(out)
		r := g.subRand(canonPath, "objectKeys", 0)
		for i := 0; i < len(candidates) && (need > 0 || r.Float64() < 0.3); i++ {
			k := candidates[i]
			sub := propertySchema(s, k)
			out[k] = g.Generate(sub, canonPath+"/properties/"+k)
			need--
			if s.MaxProperties != nil && len(out) >= int(*s.MaxProperties) {
				break
			}
		}
	}
	if node != nil && len(node.Universe.Keys) > 0 {
		for _, k := range node.Universe.Keys {
			if _, ok := out[k]; ok {
				g.recordEvent("object_keys", canonPath)
				break
			}
		}
	}
	return out
}

func propertySchema(s *schema.Schema, key string) *schema.Schema {
	if s.Properties != nil {
		if sub, ok := (*s.Properties)[key]; ok {
			return sub
		}
	}
	if s.AdditionalProperties != nil {
		return s.AdditionalProperties
	}
	return &schema.Schema{}
}
