package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type identifies the declared type of a parameter value.
type Type int

// Supported value types. Int is 32-bit, Long is 64-bit.
const (
	TypeUndefined Type = iota
	TypeInt
	TypeLong
	TypeChar
	TypeString
	TypeFloat
	TypeDouble
	TypeDate
	TypeTime
	TypeDateTime
)

var typeNames = map[Type]string{
	TypeUndefined: "undefined",
	TypeInt:       "int",
	TypeLong:      "long",
	TypeChar:      "char",
	TypeString:    "string",
	TypeFloat:     "float",
	TypeDouble:    "double",
	TypeDate:      "date",
	TypeTime:      "time",
	TypeDateTime:  "datetime",
}

// String returns the lower-case type name used in scenario and querymap files.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsNumeric reports whether values of this type are parsed into numbers.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInt, TypeLong, TypeFloat, TypeDouble:
		return true
	}
	return false
}

// ParseType maps a type name to a Type. Matching is case-insensitive.
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if t != TypeUndefined && n == key {
			return t, nil
		}
	}
	return TypeUndefined, fmt.Errorf("unknown value type %q", name)
}

// Value is a typed, nullable scalar.
//
// The zero Value is an undefined null.
type Value struct {
	typ  Type
	raw  string
	null bool
	i    int64
	f    float64
}

// New constructs a Value of the given type from its raw text.
//
// Numeric types must parse raw; a failure is returned as an error and no
// Value is produced. Null values are not parsed.
func New(typ Type, raw string, isNull bool) (Value, error) {
	v := Value{typ: typ, raw: raw, null: isNull}
	if isNull {
		return v, nil
	}

	switch typ {
	case TypeUndefined:
		return Value{}, fmt.Errorf("value type is undefined")
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int value %q: %w", raw, err)
		}
		v.i = n
	case TypeLong:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid long value %q: %w", raw, err)
		}
		v.i = n
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float value %q: %w", raw, err)
		}
		v.f = f
	case TypeDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid double value %q: %w", raw, err)
		}
		v.f = f
	}
	return v, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(typ Type, raw string, isNull bool) Value {
	v, err := New(typ, raw, isNull)
	if err != nil {
		panic(err)
	}
	return v
}

// Int returns a non-null TypeInt value.
func Int(n int32) Value {
	return Value{typ: TypeInt, raw: strconv.FormatInt(int64(n), 10), i: int64(n)}
}

// Long returns a non-null TypeLong value.
func Long(n int64) Value {
	return Value{typ: TypeLong, raw: strconv.FormatInt(n, 10), i: n}
}

// String returns a non-null TypeString value.
func String(s string) Value {
	return Value{typ: TypeString, raw: s}
}

// Null returns a null value of the given type.
func Null(typ Type) Value {
	return Value{typ: typ, null: true}
}

// Type returns the declared type.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.null }

// Raw returns the text the value was constructed from.
func (v Value) Raw() string { return v.raw }

// Int64 returns the parsed integer for Int and Long values.
func (v Value) Int64() (int64, bool) {
	if v.null || (v.typ != TypeInt && v.typ != TypeLong) {
		return 0, false
	}
	return v.i, true
}

// Float64 returns the parsed number for Float and Double values.
func (v Value) Float64() (float64, bool) {
	if v.null || (v.typ != TypeFloat && v.typ != TypeDouble) {
		return 0, false
	}
	return v.f, true
}

// Driver returns the value as a database/sql argument.
// Null values map to nil; everything non-numeric binds as its raw string.
func (v Value) Driver() any {
	if v.null {
		return nil
	}
	switch v.typ {
	case TypeInt, TypeLong:
		return v.i
	case TypeFloat:
		return float64(float32(v.f))
	case TypeDouble:
		return v.f
	default:
		return v.raw
	}
}

// Conforms reports whether a scanned column value is compatible with typ.
// It is used to check fetched rows against a declared result shape.
func Conforms(typ Type, col any) bool {
	if col == nil {
		return true
	}
	switch typ {
	case TypeInt, TypeLong:
		switch c := col.(type) {
		case int64:
			return typ == TypeLong || (c >= math.MinInt32 && c <= math.MaxInt32)
		case int, int32, int16, int8, uint8, uint16, uint32:
			return true
		case float64:
			return c == math.Trunc(c)
		case []byte:
			_, err := strconv.ParseInt(string(c), 10, bitSize(typ))
			return err == nil
		case string:
			_, err := strconv.ParseInt(c, 10, bitSize(typ))
			return err == nil
		}
		return false
	case TypeFloat, TypeDouble:
		switch c := col.(type) {
		case float64, float32, int64, int, int32:
			return true
		case []byte:
			_, err := strconv.ParseFloat(string(c), 64)
			return err == nil
		case string:
			_, err := strconv.ParseFloat(c, 64)
			return err == nil
		}
		return false
	default:
		return true
	}
}

func bitSize(typ Type) int {
	if typ == TypeInt {
		return 32
	}
	return 64
}
