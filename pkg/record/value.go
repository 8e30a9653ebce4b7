package record

import (
	"bytes"
	"cmp"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

var ErrIncomparable = errors.New("values are not comparable")

// ValuesEqual reports whether two attribute values are equal. Two nil values are equal, numbers are
// compared by value whatever their Go type, everything else falls back to deep equality.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if res, err := compareNumbers(a, b); err == nil {
		return res == 0
	}

	switch va := a.(type) {
	case time.Time:
		vb, ok := b.(time.Time)

		return ok && va.Equal(vb)
	case []byte:
		vb, ok := b.([]byte)

		return ok && bytes.Equal(va, vb)
	}

	return reflect.DeepEqual(a, b)
}

// CompareValues orders two key values. It supports strings, booleans, time.Time and any mix of
// integer and floating point numbers. It returns ErrIncomparable for nil or mismatched values.
func CompareValues(a, b any) (int, error) {
	if a == nil || b == nil {
		return 0, errors.Wrap(ErrIncomparable, "nil value")
	}

	if res, err := compareNumbers(a, b); err == nil {
		return res, nil
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return cmp.Compare(va, vb), nil
		}
	case bool:
		if vb, ok := b.(bool); ok {
			return compareBools(va, vb), nil
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb), nil
		}
	}

	return 0, errors.Wrapf(ErrIncomparable, "%T and %T", a, b)
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

type numberKind int

const (
	notNumber numberKind = iota
	signedNumber
	unsignedNumber
	floatNumber
)

type number struct {
	kind numberKind
	i    int64
	u    uint64
	f    float64
}

func toNumber(v any) number {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: signedNumber, i: rv.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: unsignedNumber, u: rv.Uint()}
	case reflect.Float32, reflect.Float64:
		return number{kind: floatNumber, f: rv.Float()}
	default:
		return number{}
	}
}

func (n number) float() float64 {
	switch n.kind {
	case signedNumber:
		return float64(n.i)
	case unsignedNumber:
		return float64(n.u)
	default:
		return n.f
	}
}

func compareNumbers(a, b any) (int, error) {
	na, nb := toNumber(a), toNumber(b)
	if na.kind == notNumber || nb.kind == notNumber {
		return 0, ErrIncomparable
	}

	switch {
	case na.kind == signedNumber && nb.kind == signedNumber:
		return cmp.Compare(na.i, nb.i), nil
	case na.kind == unsignedNumber && nb.kind == unsignedNumber:
		return cmp.Compare(na.u, nb.u), nil
	case na.kind == signedNumber && nb.kind == unsignedNumber:
		if na.i < 0 {
			return -1, nil
		}

		return cmp.Compare(uint64(na.i), nb.u), nil
	case na.kind == unsignedNumber && nb.kind == signedNumber:
		if nb.i < 0 {
			return 1, nil
		}

		return cmp.Compare(na.u, uint64(nb.i)), nil
	default:
		return cmp.Compare(na.float(), nb.float()), nil
	}
}
