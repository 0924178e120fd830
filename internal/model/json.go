package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// FlexibleID is an identifier that may arrive as a JSON string or number.
// null decodes to the empty string.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, jsonNull):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*f = FlexibleID(n.String())
	}
	return nil
}

// Quantity keeps an ingredient quantity exactly as the client sent it so
// the service can tell a missing value from a non-numeric one.
type Quantity struct {
	Raw   string
	Valid bool
	// Literal is set when the value was a bare JSON number or boolean
	Literal bool
}

// QuantityOf builds a Quantity from a client string
func QuantityOf(raw string) Quantity {
	return Quantity{Raw: raw, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*q = Quantity{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity{Raw: strings.TrimSpace(s), Valid: true}
		return nil
	}
	*q = Quantity{Raw: string(data), Valid: true, Literal: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return jsonNull, nil
	}
	if q.Literal {
		return []byte(q.Raw), nil
	}
	return json.Marshal(q.Raw)
}

// IsEmpty reports whether the value counts as absent. Among strings only ""
// and "0" do, so "0.0" is present; a bare false or numeric zero is absent.
func (q Quantity) IsEmpty() bool {
	switch {
	case !q.Valid:
		return true
	case !q.Literal:
		return q.Raw == "" || q.Raw == "0"
	case q.Raw == "false":
		return true
	}
	f, err := strconv.ParseFloat(q.Raw, 64)
	return err == nil && f == 0
}

// Float parses the value as a finite decimal number
func (q Quantity) Float() (float64, error) {
	f, err := strconv.ParseFloat(q.Raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("quantity %q is not finite", q.Raw)
	}
	return f, nil
}

// NullableInt is an optional integer that may arrive as a JSON number, a
// numeric string, an empty string or null.
type NullableInt struct {
	Int   int
	Valid bool
}

// IntOf builds a set NullableInt
func IntOf(v int) NullableInt {
	return NullableInt{Int: v, Valid: true}
}

// Ptr returns the value as a pointer, nil when unset
func (n NullableInt) Ptr() *int {
	if !n.Valid {
		return nil
	}
	v := n.Int
	return &v
}

// UnmarshalJSON implements json.Unmarshaler
func (n *NullableInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if bytes.Equal(data, jsonNull) {
		*n = NullableInt{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = NullableInt{}
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("%q is not an integer", raw)
	}
	*n = NullableInt{Int: int(f), Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (n NullableInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Int)
}
