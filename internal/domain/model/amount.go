package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ValidAmount reports whether s is a non-empty string of ASCII digits.
func ValidAmount(s string) bool {
	return digitsOnly.MatchString(s)
}

// AmountInput accepts a JSON string or number and keeps its textual form.
// null and "" leave it unset. Numeric records that the JSON was a number.
type AmountInput struct {
	Value   string
	Set     bool
	Numeric bool
}

// Empty reports whether a carries no usable amount: unset, or the number zero.
// The string "0" is not empty.
func (a AmountInput) Empty() bool {
	return !a.Set || (a.Numeric && a.Value == "0")
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AmountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = AmountInput{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountInput{Value: s, Set: s != ""}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = AmountInput{Value: normalizeNumber(n), Set: true, Numeric: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AmountInput) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// normalizeNumber renders integral numbers without exponent or fraction so
// 50000 and 5e4 coerce to "50000"; anything else keeps its literal text.
func normalizeNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// PositiveAmount parses s as an integer greater than zero.
func PositiveAmount(s string) (int64, error) {
	if !ValidAmount(s) {
		return 0, fmt.Errorf("amount %q is not an integer", s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return n, nil
}
