package core

import (
	"fmt"
	"strconv"
)

// Kind identifies which member of the Field union a value holds.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindText
)

func (kind Kind) String() string {
	switch kind {
	case KindInteger:
		return "Integer"
	case KindReal:
		return "Real"
	case KindText:
		return "Text"
	default:
		return "Kind(" + strconv.Itoa(int(kind)) + ")"
	}
}

// Field is one typed column value. The only implementations are Integer,
// Real and Text; the unexported method keeps the union closed.
type Field interface {
	Kind() Kind
	String() string
	field()
}

type Integer int64

type Real float64

type Text string

func (Integer) Kind() Kind { return KindInteger }
func (Real) Kind() Kind    { return KindReal }
func (Text) Kind() Kind    { return KindText }

func (Integer) field() {}
func (Real) field()    {}
func (Text) field()    {}

func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Real) String() string    { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v Text) String() string    { return string(v) }

// FieldOf converts a loosely typed Go value into a Field.
func FieldOf(value any) (Field, error) {
	switch v := value.(type) {
	case Field:
		return v, nil
	case int:
		return Integer(v), nil
	case int8:
		return Integer(v), nil
	case int16:
		return Integer(v), nil
	case int32:
		return Integer(v), nil
	case int64:
		return Integer(v), nil
	case uint8:
		return Integer(v), nil
	case uint16:
		return Integer(v), nil
	case uint32:
		return Integer(v), nil
	case float32:
		return Real(v), nil
	case float64:
		return Real(v), nil
	case string:
		return Text(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

// MustInt extracts an Integer. Calling it on another kind is a programming
// error and panics.
func MustInt(f Field) int64 {
	v, ok := f.(Integer)
	if !ok {
		panic(fmt.Sprintf("core: field is %v, not Integer", kindOf(f)))
	}
	return int64(v)
}

// MustFloat extracts a Real. It panics on any other kind.
func MustFloat(f Field) float64 {
	v, ok := f.(Real)
	if !ok {
		panic(fmt.Sprintf("core: field is %v, not Real", kindOf(f)))
	}
	return float64(v)
}

// MustString extracts a Text. It panics on any other kind.
func MustString(f Field) string {
	v, ok := f.(Text)
	if !ok {
		panic(fmt.Sprintf("core: field is %v, not Text", kindOf(f)))
	}
	return string(v)
}

func kindOf(f Field) string {
	if f == nil {
		return "nil"
	}
	return f.Kind().String()
}
