package options

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the declared type of an option.
type Kind int

const (
	KindBool Kind = iota + 1
	KindEnum
	KindInt
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindInt:
		return "integer"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Value is a validated option value. Exactly one field is meaningful,
// selected by Kind.
type Value struct {
	kind Kind
	b    bool
	i    int
	f    float64
	s    string
}

func Bool(v bool) Value        { return Value{kind: KindBool, b: v} }
func Int(v int) Value          { return Value{kind: KindInt, i: v, f: float64(v)} }
func Number(v float64) Value   { return Value{kind: KindNumber, f: v} }
func String(v string) Value    { return Value{kind: KindString, s: v} }
func enumValue(v string) Value { return Value{kind: KindEnum, s: v} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v was never set.
func (v Value) IsZero() bool { return v.kind == 0 }

func (v Value) Bool() bool { return v.b }
func (v Value) Int() int   { return v.i }

// Float returns the numeric value; integers widen.
func (v Value) Float() float64 { return v.f }

// Text returns the string or enum member.
func (v Value) Text() string { return v.s }

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindNumber:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindEnum, KindString:
		return v.s
	}
	return ""
}

// MarshalJSON renders the underlying scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindNumber:
		return json.Marshal(v.f)
	case KindEnum, KindString:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

// typeName names the dynamic type of a raw value the way error messages
// report it.
func typeName(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return "number"
	case Value:
		switch v.kind {
		case KindBool:
			return "boolean"
		case KindInt, KindNumber:
			return "number"
		case KindEnum, KindString:
			return "string"
		}
	}
	return "object"
}

// render prints a raw value for an error message.
func render(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Value:
		return v.String()
	}
	return fmt.Sprint(raw)
}

// asFloat extracts a numeric raw value.
func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case Value:
		if v.kind == KindInt || v.kind == KindNumber {
			return v.f, true
		}
	}
	return 0, false
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case Value:
		if v.kind == KindString || v.kind == KindEnum {
			return v.s, true
		}
	}
	return "", false
}

func asBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case Value:
		if v.kind == KindBool {
			return v.b, true
		}
	}
	return false, false
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}
