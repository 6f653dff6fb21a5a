package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IDField is the key under which a student's identifier is rendered.
const IDField = "_id"

var (
	// ErrReservedField is returned for the identifier field and for names a
	// document store would read as an operator or a nested path.
	ErrReservedField = errors.New("field is reserved")
	// ErrUnsupportedValue is returned for field values outside the supported set.
	ErrUnsupportedValue = errors.New("unsupported field value")
)

// Value is one of String, Int, Float, Bool, Null or List.
type Value interface {
	isValue()
}

type (
	String string
	Int    int64
	Float  float64
	Bool   bool
	Null   struct{}
	List   []Value
)

func (String) isValue() {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (List) isValue()   {}

// Fields holds the caller supplied attributes of a student record.
type Fields map[string]Value

// Student is a stored record together with its store assigned identifier.
type Student struct {
	ID     string
	Fields Fields
}

// MarshalJSON renders the record as a flat object with the identifier under "_id".
func (s Student) MarshalJSON() ([]byte, error) {
	out := s.Fields.Native()
	out[IDField] = s.ID
	return json.Marshal(out)
}

// Native converts the fields into plain Go values (string, int64, float64,
// bool, nil, []any) understood by JSON encoders and database drivers.
func (f Fields) Native() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = NativeValue(v)
	}
	return out
}

// NativeValue converts a single Value into its plain Go representation.
func NativeValue(v Value) any {
	switch t := v.(type) {
	case String:
		return string(t)
	case Int:
		return int64(t)
	case Float:
		return float64(t)
	case Bool:
		return bool(t)
	case List:
		out := make([]any, len(t))
		for i := range t {
			out[i] = NativeValue(t[i])
		}
		return out
	default:
		return nil
	}
}

// DecodeFields converts a decoded JSON object into Fields. Numbers are
// expected as json.Number (decoder.UseNumber) but float64 is accepted too.
func DecodeFields(raw map[string]any) (Fields, error) {
	fields := make(Fields, len(raw))
	for k, v := range raw {
		if k == IDField || k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return nil, fmt.Errorf("%w: %q", ErrReservedField, k)
		}
		val, err := DecodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = val
	}
	return fields, nil
}

// DecodeValue converts one plain Go value into a Value.
func DecodeValue(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s", ErrUnsupportedValue, t)
		}
		return Float(f), nil
	case int:
		return Int(t), nil
	case int32:
		return Int(t), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case []any:
		list := make(List, len(t))
		for i := range t {
			item, err := DecodeValue(t[i])
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// Equal reports whether two values hold the same variant and content.
func Equal(a, b Value) bool {
	switch at := a.(type) {
	case List:
		bt, ok := b.(List)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !Equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		return a == b
	}
}
