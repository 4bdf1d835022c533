// Package oracle adapts the teacher's validate.go/keywords.go evaluation
// engine (one evaluateXxx function per keyword, collected into an
// EvaluationResult) into the Oracle the Repair Engine needs: a pure
// function from (schema, instance) to a flat list of validation errors
// whose identity is the tuple (keyword, canonPath, instancePath,
// stableParamsKey(params)) Repair's error-signature scoring requires.
package oracle

import (
	"fmt"
	"math/big"
	"sort"
	"unicode/utf8"

	"github.com/foundrydata/foundrydata-sub008/automata"
	"github.com/foundrydata/foundrydata-sub008/rational"
	"github.com/foundrydata/foundrydata-sub008/schema"
	"github.com/foundrydata/foundrydata-sub008/structhash"
)

// Error is one failed keyword evaluation.
type Error struct {
	Keyword      string
	CanonPath    string
	InstancePath string
	Params       map[string]any
}

// Signature is the stable identity Repair's scoring uses to count
// distinct error kinds rather than raw occurrences.
func (e Error) Signature() string {
	return fmt.Sprintf("%s|%s|%s|%s", e.Keyword, e.CanonPath, e.InstancePath, structhash.StableParamsKey(e.Params))
}

// Oracle evaluates an instance against a schema and returns every failed
// keyword, in a deterministic order (by instance path, then keyword).
type Oracle interface {
	Evaluate(s *schema.Schema, canonPath string, instance any) []Error
}

// InProcess is the default Oracle: direct recursive evaluation against
// the in-memory schema.Schema tree, no external process or network call.
type InProcess struct{}

// NewInProcess constructs the default adapter.
func NewInProcess() *InProcess { return &InProcess{} }

// Evaluate walks s and instance together, collecting every failed keyword.
func (o *InProcess) Evaluate(s *schema.Schema, canonPath string, instance any) []Error {
	var errs []Error
	evaluate(s, canonPath, "", instance, &errs)
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].InstancePath != errs[j].InstancePath {
			return errs[i].InstancePath < errs[j].InstancePath
		}
		if errs[i].Keyword != errs[j].Keyword {
			return errs[i].Keyword < errs[j].Keyword
		}
		return errs[i].Signature() < errs[j].Signature()
	})
	return errs
}

func evaluate(s *schema.Schema, canonPath, instancePath string, instance any, errs *[]Error) {
	if s == nil {
		return
	}
	if s.Boolean != nil {
		if !*s.Boolean {
			*errs = append(*errs, Error{Keyword: "false schema", CanonPath: canonPath, InstancePath: instancePath})
		}
		return
	}

	dt := schema.DataType(instance)

	evalType(s, canonPath, instancePath, dt, errs)
	evalEnum(s, canonPath, instancePath, instance, errs)
	evalConst(s, canonPath, instancePath, instance, errs)

	if dt == "integer" || dt == "number" {
		evalNumeric(s, canonPath, instancePath, instance, errs)
	}
	if dt == "string" {
		evalString(s, canonPath, instancePath, instance.(string), errs)
	}
	if dt == "array" {
		evalArray(s, canonPath, instancePath, instance.([]any), errs)
	}
	if dt == "object" {
		evalObject(s, canonPath, instancePath, instance.(map[string]any), errs)
	}

	for i, sub := range s.AllOf {
		evaluate(sub, fmt.Sprintf("%s/allOf/%d", canonPath, i), instancePath, instance, errs)
	}
	if len(s.AnyOf) > 0 {
		anyOK := false
		var branchErrs []Error
		for i, sub := range s.AnyOf {
			var local []Error
			evaluate(sub, fmt.Sprintf("%s/anyOf/%d", canonPath, i), instancePath, instance, &local)
			if len(local) == 0 {
				anyOK = true
				break
			}
			branchErrs = append(branchErrs, local...)
		}
		if !anyOK {
			*errs = append(*errs, Error{Keyword: "anyOf", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"branches": len(s.AnyOf)}})
			*errs = append(*errs, branchErrs...)
		}
	}
	if len(s.OneOf) > 0 {
		matchCount := 0
		for i, sub := range s.OneOf {
			var local []Error
			evaluate(sub, fmt.Sprintf("%s/oneOf/%d", canonPath, i), instancePath, instance, &local)
			if len(local) == 0 {
				matchCount++
			}
		}
		if matchCount != 1 {
			*errs = append(*errs, Error{Keyword: "oneOf", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"matched": matchCount}})
		}
	}
	if s.Not != nil {
		var local []Error
		evaluate(s.Not, canonPath+"/not", instancePath, instance, &local)
		if len(local) == 0 {
			*errs = append(*errs, Error{Keyword: "not", CanonPath: canonPath, InstancePath: instancePath})
		}
	}
	if s.If != nil {
		var ifErrs []Error
		evaluate(s.If, canonPath+"/if", instancePath, instance, &ifErrs)
		if len(ifErrs) == 0 && s.Then != nil {
			evaluate(s.Then, canonPath+"/then", instancePath, instance, errs)
		} else if len(ifErrs) > 0 && s.Else != nil {
			evaluate(s.Else, canonPath+"/else", instancePath, instance, errs)
		}
	}
}

func evalType(s *schema.Schema, canonPath, instancePath, dt string, errs *[]Error) {
	if len(s.Type) == 0 {
		return
	}
	if s.Type.Has(dt) {
		return
	}
	if dt == "integer" && s.Type.Has("number") {
		return
	}
	*errs = append(*errs, Error{Keyword: "type", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"expected": []string(s.Type), "actual": dt}})
}

func evalEnum(s *schema.Schema, canonPath, instancePath string, instance any, errs *[]Error) {
	if len(s.Enum) == 0 {
		return
	}
	for _, v := range s.Enum {
		if deepEqual(v, instance) {
			return
		}
	}
	*errs = append(*errs, Error{Keyword: "enum", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"count": len(s.Enum)}})
}

func evalConst(s *schema.Schema, canonPath, instancePath string, instance any, errs *[]Error) {
	if s.Const == nil || !s.Const.IsSet {
		return
	}
	if !deepEqual(s.Const.Value, instance) {
		*errs = append(*errs, Error{Keyword: "const", CanonPath: canonPath, InstancePath: instancePath})
	}
}

func evalNumeric(s *schema.Schema, canonPath, instancePath string, instance any, errs *[]Error) {
	val := toRat(instance)
	if val == nil {
		return
	}
	if s.Minimum != nil && val.Cmp(s.Minimum.Rat) < 0 {
		*errs = append(*errs, Error{Keyword: "minimum", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"minimum": rational.FormatRat(s.Minimum)}})
	}
	if s.Maximum != nil && val.Cmp(s.Maximum.Rat) > 0 {
		*errs = append(*errs, Error{Keyword: "maximum", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"maximum": rational.FormatRat(s.Maximum)}})
	}
	if s.ExclusiveMinimum != nil && val.Cmp(s.ExclusiveMinimum.Rat) <= 0 {
		*errs = append(*errs, Error{Keyword: "exclusiveMinimum", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"exclusiveMinimum": rational.FormatRat(s.ExclusiveMinimum)}})
	}
	if s.ExclusiveMaximum != nil && val.Cmp(s.ExclusiveMaximum.Rat) >= 0 {
		*errs = append(*errs, Error{Keyword: "exclusiveMaximum", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"exclusiveMaximum": rational.FormatRat(s.ExclusiveMaximum)}})
	}
	if s.MultipleOf != nil {
		ok, err := rational.IsMultiple(rational.ModeExact, val.Rat, s.MultipleOf.Rat)
		if err == nil && !ok {
			*errs = append(*errs, Error{Keyword: "multipleOf", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"multipleOf": rational.FormatRat(s.MultipleOf)}})
		}
	}
}

func toRat(instance any) *rational.Rat {
	switch v := instance.(type) {
	case float64:
		return &rational.Rat{Rat: new(big.Rat).SetFloat64(v)}
	case int:
		return &rational.Rat{Rat: new(big.Rat).SetInt64(int64(v))}
	case int64:
		return &rational.Rat{Rat: new(big.Rat).SetInt64(v)}
	default:
		return nil
	}
}

func evalString(s *schema.Schema, canonPath, instancePath, str string, errs *[]Error) {
	length := utf8.RuneCountInString(str)
	if s.MinLength != nil && length < int(*s.MinLength) {
		*errs = append(*errs, Error{Keyword: "minLength", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"minLength": *s.MinLength, "actual": length}})
	}
	if s.MaxLength != nil && length > int(*s.MaxLength) {
		*errs = append(*errs, Error{Keyword: "maxLength", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"maxLength": *s.MaxLength, "actual": length}})
	}
	if s.Pattern != nil {
		pat, err := automata.Parse(*s.Pattern)
		if err == nil {
			dfa := automata.Determinize(automata.Build(pat))
			if !automata.Match(dfa, str) {
				*errs = append(*errs, Error{Keyword: "pattern", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"pattern": *s.Pattern}})
			}
		}
	}
	if s.Format != nil {
		if validate, ok := formatValidators[*s.Format]; ok && !validate(str) {
			*errs = append(*errs, Error{Keyword: "format", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"format": *s.Format}})
		}
	}
	evalContent(s, canonPath, instancePath, str, errs)
}

// evalContent decodes contentEncoding and parses contentMediaType, then
// evaluates contentSchema against the decoded value, adapted from the
// teacher's evaluateContent three-stage pipeline (decode, unmarshal,
// validate) generalized into this oracle's flat error-list shape.
func evalContent(s *schema.Schema, canonPath, instancePath, str string, errs *[]Error) {
	if s.ContentEncoding == nil && s.ContentMediaType == nil && s.ContentSchema == nil {
		return
	}
	content := []byte(str)
	if s.ContentEncoding != nil {
		decoder, ok := contentDecoders[*s.ContentEncoding]
		if !ok {
			*errs = append(*errs, Error{Keyword: "contentEncoding", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"encoding": *s.ContentEncoding, "reason": "unsupported"}})
			return
		}
		decoded, err := decoder(str)
		if err != nil {
			*errs = append(*errs, Error{Keyword: "contentEncoding", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"encoding": *s.ContentEncoding, "reason": "invalid"}})
			return
		}
		content = decoded
	}

	var parsed any = string(content)
	if s.ContentMediaType != nil {
		unmarshal, ok := contentMediaTypes[*s.ContentMediaType]
		if !ok {
			*errs = append(*errs, Error{Keyword: "contentMediaType", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"mediaType": *s.ContentMediaType, "reason": "unsupported"}})
			return
		}
		v, err := unmarshal(content)
		if err != nil {
			*errs = append(*errs, Error{Keyword: "contentMediaType", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"mediaType": *s.ContentMediaType, "reason": "invalid"}})
			return
		}
		parsed = v
	}

	if s.ContentSchema != nil {
		evaluate(s.ContentSchema, canonPath+"/contentSchema", instancePath, parsed, errs)
	}
}

func evalArray(s *schema.Schema, canonPath, instancePath string, items []any, errs *[]Error) {
	if s.MinItems != nil && len(items) < int(*s.MinItems) {
		*errs = append(*errs, Error{Keyword: "minItems", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"minItems": *s.MinItems, "actual": len(items)}})
	}
	if s.MaxItems != nil && len(items) > int(*s.MaxItems) {
		*errs = append(*errs, Error{Keyword: "maxItems", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"maxItems": *s.MaxItems, "actual": len(items)}})
	}
	if s.UniqueItems != nil && *s.UniqueItems && hasDuplicates(items) {
		*errs = append(*errs, Error{Keyword: "uniqueItems", CanonPath: canonPath, InstancePath: instancePath})
	}

	evaluated := map[int]bool{}
	for i, item := range items {
		var sub *schema.Schema
		if i < len(s.PrefixItems) {
			sub = s.PrefixItems[i]
		} else {
			sub = s.Items
		}
		if sub != nil {
			evaluated[i] = true
			evaluate(sub, prefixOrItemsPath(s, canonPath, i), fmt.Sprintf("%s/%d", instancePath, i), item, errs)
		}
	}

	if s.Contains != nil {
		count := 0
		for i, item := range items {
			var local []Error
			evaluate(s.Contains, canonPath+"/contains", instancePath, item, &local)
			if len(local) == 0 {
				count++
				evaluated[i] = true
			}
		}
		min := 1
		if s.MinContains != nil {
			min = int(*s.MinContains)
		}
		if count < min {
			*errs = append(*errs, Error{Keyword: "contains", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"minContains": min, "actual": count}})
		}
		if s.MaxContains != nil && count > int(*s.MaxContains) {
			*errs = append(*errs, Error{Keyword: "maxContains", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"maxContains": *s.MaxContains, "actual": count}})
		}
	}

	if s.UnevaluatedItems != nil {
		for i, item := range items {
			if evaluated[i] {
				continue
			}
			var local []Error
			evaluate(s.UnevaluatedItems, canonPath+"/unevaluatedItems", fmt.Sprintf("%s/%d", instancePath, i), item, &local)
			for _, e := range local {
				e.Keyword = "unevaluatedItems"
				*errs = append(*errs, e)
			}
		}
	}
}

func sortedDependentSchemaKeys(m map[string]*schema.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func prefixOrItemsPath(s *schema.Schema, canonPath string, i int) string {
	if i < len(s.PrefixItems) {
		return fmt.Sprintf("%s/prefixItems/%d", canonPath, i)
	}
	return canonPath + "/items"
}

func hasDuplicates(items []any) bool {
	seen := map[string]bool{}
	for _, item := range items {
		key, err := structhash.Sum(item)
		if err != nil {
			continue
		}
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func evalObject(s *schema.Schema, canonPath, instancePath string, obj map[string]any, errs *[]Error) {
	if s.MinProperties != nil && len(obj) < int(*s.MinProperties) {
		*errs = append(*errs, Error{Keyword: "minProperties", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"minProperties": *s.MinProperties, "actual": len(obj)}})
	}
	if s.MaxProperties != nil && len(obj) > int(*s.MaxProperties) {
		*errs = append(*errs, Error{Keyword: "maxProperties", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"maxProperties": *s.MaxProperties, "actual": len(obj)}})
	}
	for _, req := range s.Required {
		if _, ok := obj[req]; !ok {
			*errs = append(*errs, Error{Keyword: "required", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"missing": req}})
		}
	}
	for key, deps := range s.DependentRequired {
		if _, ok := obj[key]; !ok {
			continue
		}
		for _, dep := range deps {
			if _, ok := obj[dep]; !ok {
				*errs = append(*errs, Error{Keyword: "dependentRequired", CanonPath: canonPath, InstancePath: instancePath, Params: map[string]any{"key": key, "missing": dep}})
			}
		}
	}
	for _, key := range sortedDependentSchemaKeys(s.DependentSchemas) {
		if _, ok := obj[key]; !ok {
			continue
		}
		evaluate(s.DependentSchemas[key], fmt.Sprintf("%s/dependentSchemas/%s", canonPath, key), instancePath, obj, errs)
	}

	matched := map[string]bool{}
	if s.Properties != nil {
		for key, sub := range *s.Properties {
			if v, ok := obj[key]; ok {
				matched[key] = true
				evaluate(sub, canonPath+"/properties/"+key, instancePath+"/"+key, v, errs)
			}
		}
	}
	if s.PatternProperties != nil {
		for pattern, sub := range *s.PatternProperties {
			pat, err := automata.Parse(pattern)
			if err != nil {
				continue
			}
			dfa := automata.Determinize(automata.Build(pat))
			for key, v := range obj {
				if automata.Match(dfa, key) {
					matched[key] = true
					evaluate(sub, canonPath+"/patternProperties/"+pattern, instancePath+"/"+key, v, errs)
				}
			}
		}
	}
	if s.AdditionalProperties != nil {
		for key, v := range obj {
			if matched[key] {
				continue
			}
			matched[key] = true
			evaluate(s.AdditionalProperties, canonPath+"/additionalProperties", instancePath+"/"+key, v, errs)
		}
	}
	if s.PropertyNames != nil {
		for key := range obj {
			var local []Error
			evaluate(s.PropertyNames, canonPath+"/propertyNames", instancePath+"/"+key, key, &local)
			errs2 := make([]Error, len(local))
			for i, e := range local {
				e.Keyword = "propertyNames"
				errs2[i] = e
			}
			*errs = append(*errs, errs2...)
		}
	}
	if s.UnevaluatedProperties != nil {
		for key, v := range obj {
			if matched[key] {
				continue
			}
			evaluate(s.UnevaluatedProperties, canonPath+"/unevaluatedProperties", instancePath+"/"+key, v, errs)
		}
	}
}

func deepEqual(a, b any) bool {
	ja, err1 := structhash.Sum(a)
	jb, err2 := structhash.Sum(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return ja == jb
}
