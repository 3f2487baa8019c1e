package jsontree

import (
	"math"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// number is satisfied by json.Number and jsoniter.Number.
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case *Object:
		return "object"
	case *Array:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case number, float64:
		return "number"
	default:
		return reflect.TypeOf(value).String()
	}
}

func mismatch(value any, expected string) error {
	return errors.Wrapf(ErrTypeMismatch, "%s is not %s", kindOf(value), expected)
}

func toString(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", mismatch(value, "string")
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
	}
	return false, mismatch(value, "boolean")
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, mismatch(value, "integer")
		}
		return floatToInt64(f, value)
	case float64:
		return floatToInt64(v, value)
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, mismatch(value, "integer")
}

func floatToInt64(f float64, value any) (int64, error) {
	if f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, mismatch(value, "integer")
	}
	return int64(f), nil
}

func toUint64(value any) (uint64, error) {
	var f float64
	switch v := value.(type) {
	case number:
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u, nil
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, mismatch(value, "unsigned integer")
		}
		f = parsed
	case float64:
		f = v
	case string:
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u, nil
		}
		return 0, mismatch(value, "unsigned integer")
	default:
		return 0, mismatch(value, "unsigned integer")
	}
	if f != math.Trunc(f) || f < 0 || f >= 0x1p64 {
		return 0, mismatch(value, "unsigned integer")
	}
	return uint64(f), nil
}

func toInt(value any) (int, error) {
	i, err := toInt64(value)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt || i < math.MinInt {
		return 0, errors.Wrapf(ErrTypeMismatch, "%d overflows int", i)
	}
	return int(i), nil
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	case float64:
		return v, nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
	}
	return 0, mismatch(value, "number")
}

func toObject(value any) (*Object, error) {
	if o, ok := value.(*Object); ok && o != nil {
		return o, nil
	}
	return nil, mismatch(value, "object")
}

func toArray(value any) (*Array, error) {
	if a, ok := value.(*Array); ok && a != nil {
		return a, nil
	}
	return nil, mismatch(value, "array")
}

// As converts a raw value returned by Get into T. It is used by generated code for field
// types that have no typed getter. Values of a compatible JSON kind are converted when T
// is a defined type over string, bool or a number kind.
func As[T any](value any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v, ok := value.(T); ok {
		return v, nil
	}
	target := reflect.TypeOf(&zero).Elem()
	if value == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return zero, nil
		}
		return zero, mismatch(value, target.String())
	}
	converted, err := convert(value, target)
	if err != nil {
		return zero, err
	}
	return converted.Interface().(T), nil
}

func convert(value any, target reflect.Type) (reflect.Value, error) {
	result := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.String:
		s, err := toString(value)
		if err != nil {
			return result, mismatch(value, target.String())
		}
		result.SetString(s)
	case reflect.Bool:
		b, err := toBool(value)
		if err != nil {
			return result, mismatch(value, target.String())
		}
		result.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(value)
		if err != nil || result.OverflowInt(i) {
			return result, mismatch(value, target.String())
		}
		result.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := toUint64(value)
		if err != nil || result.OverflowUint(u) {
			return result, mismatch(value, target.String())
		}
		result.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(value)
		if err != nil || result.OverflowFloat(f) {
			return result, mismatch(value, target.String())
		}
		result.SetFloat(f)
	default:
		return result, mismatch(value, target.String())
	}
	return result, nil
}
