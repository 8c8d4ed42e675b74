package model

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jmespath-community/go-jmespath"
)

// maxExactFloat is the largest integer a float64 represents exactly.
const maxExactFloat = 1 << 53

// Resource is an opaque record returned by a resource server, stored verbatim.
type Resource map[string]any

// Lookup evaluates a JMESPath expression against the resource.
func (r Resource) Lookup(expr string) (any, error) {
	if r == nil {
		return nil, nil
	}
	v, err := jmespath.Search(expr, map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", expr, err)
	}
	return v, nil
}

// String returns the string at expr, or empty string when absent or not a string.
func (r Resource) String(expr string) string {
	v, err := r.Lookup(expr)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ID returns the resource server's identifier for the record.
func (r Resource) ID() string {
	return r.String("id")
}

// AmountAt decodes an amount object found at expr.
// Values may be strings or JSON numbers; the result always carries a string value.
func (r Resource) AmountAt(expr string) (*Amount, error) {
	v, err := r.Lookup(expr)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("no amount at %q", expr)
	}
	amt := &Amount{}
	switch val := obj["value"].(type) {
	case string:
		amt.Value = val
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > maxExactFloat {
			return nil, fmt.Errorf("amount at %q is not an exact integer: %v", expr, val)
		}
		amt.Value = strconv.FormatInt(int64(val), 10)
	case int:
		amt.Value = fmt.Sprintf("%d", val)
	case int64:
		amt.Value = fmt.Sprintf("%d", val)
	default:
		return nil, fmt.Errorf("amount at %q has no value", expr)
	}
	if code, ok := obj["assetCode"].(string); ok {
		amt.AssetCode = code
	}
	switch scale := obj["assetScale"].(type) {
	case float64:
		amt.AssetScale = int(scale)
	case int:
		amt.AssetScale = scale
	}
	return amt, nil
}

// Clone returns a shallow copy of the top-level map.
func (r Resource) Clone() Resource {
	if r == nil {
		return nil
	}
	out := make(Resource, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
