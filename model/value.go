package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type ValueKind string

const VALUE_STRING ValueKind = "STRING"
const VALUE_NUMBER ValueKind = "NUMBER"
const VALUE_BOOLEAN ValueKind = "BOOLEAN"
const VALUE_TIMESTAMP ValueKind = "DATE"
const VALUE_JSON ValueKind = "JSON"

// Value is the tagged variable representation shared by the variable store,
// the condition evaluator and the template interpolator. The tag lets
// consumers reject type mismatches instead of silently coercing.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
	Bool bool      `json:"bool,omitempty"`
	Time time.Time `json:"time,omitempty"`
	Doc  any       `json:"doc,omitempty"`
}

func StringValue(s string) Value {
	return Value{Kind: VALUE_STRING, Str: s}
}

func NumberValue(n float64) Value {
	return Value{Kind: VALUE_NUMBER, Num: n}
}

func BooleanValue(b bool) Value {
	return Value{Kind: VALUE_BOOLEAN, Bool: b}
}

func TimestampValue(t time.Time) Value {
	return Value{Kind: VALUE_TIMESTAMP, Time: t}
}

func JSONValue(doc any) Value {
	return Value{Kind: VALUE_JSON, Doc: doc}
}

// ValueOf builds a Value from a dynamically typed input, as produced by
// json.Unmarshal or a script engine.
func ValueOf(v any) Value {
	switch tv := v.(type) {
	case nil:
		return StringValue("")
	case string:
		return StringValue(tv)
	case bool:
		return BooleanValue(tv)
	case float64:
		return NumberValue(tv)
	case float32:
		return NumberValue(float64(tv))
	case int:
		return NumberValue(float64(tv))
	case int32:
		return NumberValue(float64(tv))
	case int64:
		return NumberValue(float64(tv))
	case json.Number:
		n, err := tv.Float64()
		if err != nil {
			return StringValue(tv.String())
		}
		return NumberValue(n)
	case time.Time:
		return TimestampValue(tv)
	case Value:
		return tv
	default:
		return JSONValue(v)
	}
}

// String renders the value the way message templates expect: integers
// without a decimal part, timestamps as RFC3339, JSON documents compacted.
func (v Value) String() string {
	switch v.Kind {
	case VALUE_STRING:
		return v.Str
	case VALUE_NUMBER:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case VALUE_BOOLEAN:
		return strconv.FormatBool(v.Bool)
	case VALUE_TIMESTAMP:
		return v.Time.Format(time.RFC3339)
	case VALUE_JSON:
		data, err := json.Marshal(v.Doc)
		if err != nil {
			return fmt.Sprintf("%v", v.Doc)
		}
		return string(data)
	}
	return ""
}

// AsNumber returns the numeric form of the value. Strings are parsed,
// anything else is a type error.
func (v Value) AsNumber() (float64, error) {
	switch v.Kind {
	case VALUE_NUMBER:
		return v.Num, nil
	case VALUE_STRING:
		n, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v.Str)
		}
		return n, nil
	}
	return 0, fmt.Errorf("value of kind %s is not numeric", v.Kind)
}

// AsInterface unwraps the value for script engines and json path lookups.
func (v Value) AsInterface() any {
	switch v.Kind {
	case VALUE_STRING:
		return v.Str
	case VALUE_NUMBER:
		return v.Num
	case VALUE_BOOLEAN:
		return v.Bool
	case VALUE_TIMESTAMP:
		return v.Time.Format(time.RFC3339)
	case VALUE_JSON:
		return v.Doc
	}
	return nil
}
