package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	cedar "github.com/cedar-policy/cedar-go"

	"hodei-authz/internal/authz"
)

// buildContext converts an arbitrary attribute map (already validated as
// JSON-shaped by the caller, per §3) into a Cedar context record.
func buildContext(attrs map[string]any) cedar.Record {
	if len(attrs) == 0 {
		return cedar.NewRecord(cedar.RecordMap{})
	}
	rm := make(cedar.RecordMap, len(attrs))
	for k, v := range attrs {
		rm[cedar.String(k)] = toCedarValue(v)
	}
	return cedar.NewRecord(rm)
}

// toCedarValue maps a decoded JSON value onto its Cedar equivalent.
// JSON numbers (decoded as float64) become Longs, truncating any fractional
// part, since Cedar has no float type. Other unrepresentable values are
// dropped to their string form rather than rejected outright, since context
// attributes are advisory inputs to policy conditions, not request identity.
func toCedarValue(v any) cedar.Value {
	switch t := v.(type) {
	case string:
		return cedar.String(t)
	case bool:
		return cedar.Boolean(t)
	case int:
		return cedar.Long(t)
	case int64:
		return cedar.Long(t)
	case float64:
		return cedar.Long(int64(t))
	case map[string]any:
		rm := make(cedar.RecordMap, len(t))
		for k, nested := range t {
			rm[cedar.String(k)] = toCedarValue(nested)
		}
		return cedar.NewRecord(rm)
	case []any:
		vals := make([]cedar.Value, 0, len(t))
		for _, nested := range t {
			vals = append(vals, toCedarValue(nested))
		}
		return cedar.NewSet(vals...)
	default:
		return cedar.String(fmt.Sprintf("%v", t))
	}
}

// cacheKey hashes the principal, action and resource of a request. Context
// is deliberately excluded: two requests differing only in volatile context
// (request IDs, timestamps) must hit the same cache entry.
func cacheKey(req authz.AuthorizationRequest) string {
	h := sha256.New()
	h.Write([]byte(req.PrincipalHRN.String()))
	h.Write([]byte{0})
	h.Write([]byte(req.Action))
	h.Write([]byte{0})
	h.Write([]byte(req.ResourceHRN.String()))
	return hex.EncodeToString(h.Sum(nil))
}
