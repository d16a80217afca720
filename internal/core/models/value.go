package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the scalar type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

// Value is a tagged metadata scalar. Session metadata on disk is free-form
// JSON, so values arrive as strings, numbers, booleans, timestamps or null;
// keeping the tag explicit gives predicate evaluation a single, well-defined
// string coercion instead of ad-hoc conversions at every call site.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Timestamp layouts accepted when decoding string values.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func Null() Value            { return Value{kind: KindNull} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null scalar.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String renders the value for predicate comparison and display. The rules
// are fixed: null is the empty string, numbers use the shortest exact
// representation, booleans are "true"/"false", timestamps are RFC3339.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Time returns the timestamp and true when the value is (or parses as) one.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.t, true
	case KindString:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v.str); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Number returns the numeric value and true when the value carries one.
func (v Value) Number() (float64, bool) {
	if v.kind == KindNumber {
		return v.num, true
	}
	return 0, false
}

// MarshalJSON writes the value back in its native JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a tagged value. Strings that parse
// as timestamps keep their original text but report KindTime semantics via
// Time(); the tag stays KindString so round-trips are byte-stable.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case string:
		*v = String(x)
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	default:
		// Nested objects/arrays inside free-form metadata are flattened to
		// their JSON text so they stay visible to contains/regex predicates.
		*v = String(string(data))
	}
	return nil
}

// Meta is the free-form metadata mapping of a session.
type Meta map[string]Value

// FromAny converts a decoded JSON scalar into a Value.
func FromAny(x any) Value {
	switch val := x.(type) {
	case nil:
		return Null()
	case string:
		return String(val)
	case float64:
		return Number(val)
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case bool:
		return Bool(val)
	case time.Time:
		return Time(val)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return String(fmt.Sprintf("%v", x))
		}
		return String(string(data))
	}
}
