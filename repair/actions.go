package repair

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/foundrydata/foundrydata-sub008/automata"
	"github.com/foundrydata/foundrydata-sub008/coverageindex"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/oracle"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func getAtPath(root any, path string) (any, bool) {
	cur := root
	for _, tok := range splitPath(path) {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[tok]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// setAtPath mutates root (or the container path leads into) to newVal,
// returning false if the path doesn't resolve to an existing container.
func setAtPath(root *any, path string, newVal any) bool {
	tokens := splitPath(path)
	if len(tokens) == 0 {
		*root = newVal
		return true
	}
	var container any = *root
	for i := 0; i < len(tokens)-1; i++ {
		switch c := container.(type) {
		case map[string]any:
			container = c[tokens[i]]
		case []any:
			idx, err := strconv.Atoi(tokens[i])
			if err != nil || idx < 0 || idx >= len(c) {
				return false
			}
			container = c[idx]
		default:
			return false
		}
	}
	last := tokens[len(tokens)-1]
	switch c := container.(type) {
	case map[string]any:
		c[last] = newVal
		return true
	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil || idx < 0 || idx >= len(c) {
			return false
		}
		c[idx] = newVal
		return true
	}
	return false
}

// nudgeNumeric moves a numeric value onto the violated bound: minimum and
// maximum set it to the bound itself, exclusiveMinimum/exclusiveMaximum
// step one epsilonFor past it (1 when the value is an int64, 1e-9
// otherwise), matching the teacher's minimum.go/maximum.go bound
// semantics in reverse.
func nudgeNumeric(value *any, target oracle.Error) bool {
	cur, ok := getAtPath(*value, target.InstancePath)
	if !ok {
		return false
	}
	var f float64
	switch v := cur.(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	default:
		return false
	}

	switch target.Keyword {
	case "minimum":
		if bound, ok := numParam(target.Params, "minimum"); ok {
			f = bound
		}
	case "exclusiveMinimum":
		if bound, ok := numParam(target.Params, "exclusiveMinimum"); ok {
			f = bound + epsilonFor(cur)
		}
	case "maximum":
		if bound, ok := numParam(target.Params, "maximum"); ok {
			f = bound
		}
	case "exclusiveMaximum":
		if bound, ok := numParam(target.Params, "exclusiveMaximum"); ok {
			f = bound - epsilonFor(cur)
		}
	}

	var out any = f
	if _, wasInt := cur.(int64); wasInt {
		out = int64(f)
	}
	return setAtPath(value, target.InstancePath, out)
}

func epsilonFor(cur any) float64 {
	if _, ok := cur.(int64); ok {
		return 1
	}
	return 1e-9
}

func numParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// snapMultipleOf rounds the current value to the nearest grid point of
// its multipleOf divisor.
func snapMultipleOf(value *any, target oracle.Error) bool {
	cur, ok := getAtPath(*value, target.InstancePath)
	if !ok {
		return false
	}
	m, ok := numParam(target.Params, "multipleOf")
	if !ok || m == 0 {
		return false
	}
	var f float64
	switch v := cur.(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	default:
		return false
	}
	snapped := roundToGrid(f, m)
	var out any = snapped
	if _, wasInt := cur.(int64); wasInt {
		out = int64(snapped)
	}
	return setAtPath(value, target.InstancePath, out)
}

func roundToGrid(v, m float64) float64 {
	n := v / m
	r := n - float64(int64(n))
	if r >= 0.5 {
		n = float64(int64(n) + 1)
	} else if r <= -0.5 {
		n = float64(int64(n) - 1)
	} else {
		n = float64(int64(n))
	}
	return n * m
}

// padString extends a too-short string by repeating a filler character,
// counting code points rather than UTF-16 units.
func padString(value *any, target oracle.Error) bool {
	cur, ok := getAtPath(*value, target.InstancePath)
	if !ok {
		return false
	}
	str, ok := cur.(string)
	if !ok {
		return false
	}
	minLen, ok := numParam(target.Params, "minLength")
	if !ok {
		return false
	}
	need := int(minLen) - utf8.RuneCountInString(str)
	if need <= 0 {
		return false
	}
	return setAtPath(value, target.InstancePath, str+strings.Repeat("x", need))
}

// truncateString shortens a too-long string to maxLength code points.
func truncateString(value *any, target oracle.Error) bool {
	cur, ok := getAtPath(*value, target.InstancePath)
	if !ok {
		return false
	}
	str, ok := cur.(string)
	if !ok {
		return false
	}
	maxLen, ok := numParam(target.Params, "maxLength")
	if !ok {
		return false
	}
	runes := []rune(str)
	if len(runes) <= int(maxLen) {
		return false
	}
	return setAtPath(value, target.InstancePath, string(runes[:int(maxLen)]))
}

// addRequiredWitness synthesizes a minimal value for a missing required
// key, grounded on schemamerge.go's boolean-schema-aware merge: an
// unconstrained (or boolean-true) subschema gets a plain synthetic
// string, anything else falls back to its declared type's zero witness.
func addRequiredWitness(s *schema.Schema, value *any, target oracle.Error) bool {
	missing, ok := target.Params["missing"].(string)
	if !ok {
		return false
	}
	obj, ok := getAtPath(*value, target.InstancePath)
	if !ok {
		return false
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return false
	}
	target2 := propSchema(s, target.CanonPath, missing)
	m[missing] = zeroWitness(target2)
	return true
}

func propSchema(s *schema.Schema, canonPath, key string) *schema.Schema {
	node := resolveCanonPath(s, canonPath)
	if node == nil || node.Properties == nil {
		return nil
	}
	if sub, ok := (*node.Properties)[key]; ok {
		return sub
	}
	return nil
}

func resolveCanonPath(s *schema.Schema, canonPath string) *schema.Schema {
	if canonPath == "" {
		return s
	}
	sub, err := s.ResolvePointer(canonPath)
	if err != nil {
		return nil
	}
	return sub
}

func zeroWitness(s *schema.Schema) any {
	if s == nil || s.Boolean != nil {
		return "x"
	}
	if len(s.Type) == 0 {
		return "x"
	}
	switch s.Type[0] {
	case "integer", "number":
		if s.Minimum != nil {
			f, _ := s.Minimum.Float64()
			return f
		}
		return float64(0)
	case "boolean":
		return false
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	case "null":
		return nil
	default:
		if s.MinLength != nil && int(*s.MinLength) > 0 {
			return strings.Repeat("x", int(*s.MinLength))
		}
		return "x"
	}
}

// renameToEnumMember renames the current value to the lexicographically
// smallest enum member not already present elsewhere in the sibling must-
// cover set, the closed-enum rename action family. Here the "must-cover
// set" is simply the single current value, since full coverage-plan
// bookkeeping lives in the coverage package; this action proves the
// rename is sound against the enum list Compose already validated.
func renameToEnumMember(s *schema.Schema, value *any, target oracle.Error, notes *diag.Envelope) bool {
	node := resolveCanonPath(s, target.CanonPath)
	if node == nil || len(node.Enum) == 0 {
		return false
	}
	members := make([]string, 0, len(node.Enum))
	for _, v := range node.Enum {
		if str, ok := v.(string); ok {
			members = append(members, str)
		}
	}
	if len(members) == 0 {
		return false
	}
	sort.Strings(members)
	return setAtPath(value, target.InstancePath, members[0])
}

// renamePropertyNamesMember renames an object key that fails
// propertyNames.enum to the lexicographically smallest enum member not
// already present on the object, honoring the coverage index's must-cover
// set when the owning object is closed (additionalProperties:false plus a
// minProperties floor): a candidate outside that set is skipped with
// MUSTCOVER_INDEX_MISSING, a candidate an unevaluatedProperties:false
// sibling would reject is skipped with REPAIR_EVAL_GUARD_FAIL, and
// exhausting every candidate reports REPAIR_RENAME_PREFLIGHT_FAIL.
func renamePropertyNamesMember(s *schema.Schema, value *any, target oracle.Error, notes *diag.Envelope, universe map[string]coverageindex.CoverageEntry) bool {
	node := resolveCanonPath(s, target.CanonPath)
	if node == nil || len(node.Enum) == 0 {
		return false
	}
	objCanon := strings.TrimSuffix(target.CanonPath, "/propertyNames")

	tokens := splitPath(target.InstancePath)
	if len(tokens) == 0 {
		return false
	}
	from := tokens[len(tokens)-1]
	parentPath := ""
	if len(tokens) > 1 {
		parentPath = "/" + strings.Join(tokens[:len(tokens)-1], "/")
	}

	objAny, ok := getAtPath(*value, parentPath)
	if !ok {
		return false
	}
	obj, ok := objAny.(map[string]any)
	if !ok {
		return false
	}

	entry, hasEntry := universe[objCanon]
	mustCover := hasEntry && entry.MustCover

	members := make([]string, 0, len(node.Enum))
	for _, v := range node.Enum {
		if str, ok := v.(string); ok {
			members = append(members, str)
		}
	}
	sort.Strings(members)

	objSchema := resolveCanonPath(s, objCanon)
	for _, candidate := range members {
		if candidate == from {
			continue
		}
		if _, taken := obj[candidate]; taken {
			continue
		}
		if mustCover && !entry.Has(candidate) {
			notes.AddWarn(diag.New(diag.CodeMustCoverIndexMissing, diag.PhaseRepair, objCanon, map[string]any{"candidate": candidate}))
			continue
		}
		if unevaluatedPropertiesRejects(objSchema, candidate) {
			notes.AddWarn(diag.New(diag.CodeRepairEvalGuardFail, diag.PhaseRepair, objCanon, map[string]any{"candidate": candidate}))
			continue
		}

		val := obj[from]
		delete(obj, from)
		obj[candidate] = val
		notes.AddWarn(diag.New(diag.CodeRepairPNamesPatternEnum, diag.PhaseRepair, objCanon, map[string]any{
			"from": from, "to": candidate, "mustCover": mustCover,
		}))
		return true
	}

	notes.AddWarn(diag.New(diag.CodeRepairRenamePreflightFail, diag.PhaseRepair, objCanon, map[string]any{"from": from}))
	return false
}

// unevaluatedPropertiesRejects reports whether renaming a key to candidate
// would fall outside a closed unevaluatedProperties:false guard: the
// candidate must be matched by a literal property, a patternProperties
// regex, or an additionalProperties schema to count as "evaluated."
func unevaluatedPropertiesRejects(node *schema.Schema, candidate string) bool {
	if node == nil || node.UnevaluatedProperties == nil {
		return false
	}
	if node.UnevaluatedProperties.Boolean == nil || *node.UnevaluatedProperties.Boolean {
		return false
	}
	if node.Properties != nil {
		if _, ok := (*node.Properties)[candidate]; ok {
			return false
		}
	}
	if node.PatternProperties != nil {
		for pattern := range *node.PatternProperties {
			pat, err := automata.Parse(pattern)
			if err != nil {
				continue
			}
			dfa := automata.Determinize(automata.Build(pat))
			if automata.Match(dfa, candidate) {
				return false
			}
		}
	}
	if node.AdditionalProperties != nil {
		return false
	}
	return true
}
