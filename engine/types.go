package engine

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
)

// TypeID identifies a physical column type.
type TypeID uint8

const (
	// TypeInvalid is the zero TypeID.
	TypeInvalid TypeID = iota
	// TypeBoolean is a boolean column.
	TypeBoolean
	// TypeBigInt is a 64-bit integer column.
	TypeBigInt
	// TypeDouble is a 64-bit float column.
	TypeDouble
	// TypeVarchar is a string column.
	TypeVarchar
	// TypeBlob is a binary column.
	TypeBlob
	// TypeRowID is the row identifier pseudo column.
	TypeRowID
)

func (id TypeID) String() string {
	switch id {
	case TypeBoolean:
		return "BOOLEAN"
	case TypeBigInt:
		return "BIGINT"
	case TypeDouble:
		return "DOUBLE"
	case TypeVarchar:
		return "VARCHAR"
	case TypeBlob:
		return "BLOB"
	case TypeRowID:
		return "ROW_ID"
	default:
		return "INVALID"
	}
}

// LogicalType is a TypeID with an optional alias, e.g. a BLOB aliased as
// "stbox".
type LogicalType struct {
	ID    TypeID
	Alias string
}

// Built-in logical types.
var (
	Boolean   = LogicalType{ID: TypeBoolean}
	BigInt    = LogicalType{ID: TypeBigInt}
	Double    = LogicalType{ID: TypeDouble}
	Varchar   = LogicalType{ID: TypeVarchar}
	Blob      = LogicalType{ID: TypeBlob}
	RowIDType = LogicalType{ID: TypeRowID}
)

// WithAlias returns a copy of t carrying alias.
func (t LogicalType) WithAlias(alias string) LogicalType {
	t.Alias = alias
	return t
}

// String returns the alias if set, otherwise the type id name.
func (t LogicalType) String() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.ID.String()
}

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindBlob represents a binary value.
	KindBlob
)

// Value is a single cell.
//
// No reflection and no fmt-based stringification; comparisons switch on Kind.
type Value struct {
	Kind  Kind    `json:"k"`
	I64   int64   `json:"i,omitempty"`
	F64   float64 `json:"f,omitempty"`
	S     string  `json:"s,omitempty"`
	B     bool    `json:"b,omitempty"`
	Bytes []byte  `json:"x,omitempty"`
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// BlobValue returns a binary Value. The bytes are not copied.
func BlobValue(v []byte) Value { return Value{Kind: KindBlob, Bytes: v} }

// IsNull reports whether v is null (or the zero Value).
func (v Value) IsNull() bool {
	return v.Kind == KindNull || v.Kind == KindInvalid
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the value as float64 if Kind is KindFloat or KindInt.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F64, true
	case KindInt:
		return float64(v.I64), true
	default:
		return 0, false
	}
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsBlob returns the binary value if Kind is KindBlob.
func (v Value) AsBlob() ([]byte, bool) {
	if v.Kind != KindBlob {
		return nil, false
	}
	return v.Bytes, true
}

// Equal reports whether v and o hold the same value. Null equals null.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	c, ok := v.Compare(o)
	return ok && c == 0
}

// Compare orders v against o. Integers and floats compare numerically.
// ok is false when either side is null or the kinds are not comparable.
func (v Value) Compare(o Value) (c int, ok bool) {
	if v.IsNull() || o.IsNull() {
		return 0, false
	}
	switch {
	case isNumeric(v.Kind) && isNumeric(o.Kind):
		if v.Kind == KindInt && o.Kind == KindInt {
			return cmpInt(v.I64, o.I64), true
		}
		a, _ := v.AsFloat64()
		b, _ := o.AsFloat64()
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, false
		}
		return cmpFloat(a, b), true
	case v.Kind != o.Kind:
		return 0, false
	}
	switch v.Kind {
	case KindString:
		switch {
		case v.S < o.S:
			return -1, true
		case v.S > o.S:
			return 1, true
		}
		return 0, true
	case KindBool:
		switch {
		case v.B == o.B:
			return 0, true
		case !v.B:
			return -1, true
		}
		return 1, true
	case KindBlob:
		return bytes.Compare(v.Bytes, o.Bytes), true
	}
	return 0, false
}

// String renders v for explains and results.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.S)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindBlob:
		return `\x` + hex.EncodeToString(v.Bytes)
	default:
		return "NULL"
	}
}

// Interface returns v as a plain Go value; blobs are hex encoded and NULL is
// nil.
func (v Value) Interface() any {
	switch v.Kind {
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.S
	case KindBool:
		return v.B
	case KindBlob:
		return hex.EncodeToString(v.Bytes)
	default:
		return nil
	}
}

// Copy returns a deep copy of v.
func (v Value) Copy() Value {
	if v.Kind == KindBlob && v.Bytes != nil {
		v.Bytes = append([]byte(nil), v.Bytes...)
	}
	return v
}

func isNumeric(k Kind) bool {
	return k == KindInt || k == KindFloat
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CheckType reports whether v can be stored in a column of type t.
func CheckType(t LogicalType, v Value) bool {
	if v.IsNull() {
		return true
	}
	switch t.ID {
	case TypeBoolean:
		return v.Kind == KindBool
	case TypeBigInt, TypeRowID:
		return v.Kind == KindInt
	case TypeDouble:
		return isNumeric(v.Kind)
	case TypeVarchar:
		return v.Kind == KindString
	case TypeBlob:
		return v.Kind == KindBlob
	default:
		return false
	}
}
