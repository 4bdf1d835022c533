package structhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Sum returns the lowercase hex sha256 digest of the canonical JSON
// encoding of v, mirroring the pack's HashString/ComputePlanHash pattern of
// hashing a canonical string rather than raw struct bytes.
func Sum(v any) (string, error) {
	canon, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return HashString(string(canon)), nil
}

// HashString returns the lowercase hex sha256 digest of s, the same
// primitive quantumlife-canon-core's CoveragePlan identifiers use.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// StableParamsKey produces an order-independent string key for a
// validator-error params map, used by the repair engine's error-signature
// computation: two maps with the same key/value pairs in different
// insertion order must produce the same key. Values are rendered via
// fmt.Sprint so the key stays a plain comparable string without reaching
// back into full canonical-JSON encoding for every error signature.
func StableParamsKey(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%s=%v", k, params[k])
	}
	return b.String()
}

// CanonicalTargetID computes a CoverageTarget.ID of the form
// "cov:<engineMajor>:<reportMajor>:<sha256 of the canonical target
// payload>", the identifier stability scheme grounded on
// quantumlife-canon-core's CanonicalStringV1-then-hash pipeline.
func CanonicalTargetID(engineMajor, reportMajor int, payload any) (string, error) {
	sum, err := Sum(payload)
	if err != nil {
		return "", fmt.Errorf("structhash: target id: %w", err)
	}
	return fmt.Sprintf("cov:%d:%d:%s", engineMajor, reportMajor, sum), nil
}
