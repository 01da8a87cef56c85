package matcher

import (
	"fmt"
	"reflect"
	"strconv"
)

// IsNil reports whether v is nil or a typed nil of a nillable kind.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// Equals compares two argument values. Nil compares equal only to nil.
// Instances related by eq are equal. Slices and arrays compare element
// by element (so nested mock instances still consult eq); comparable
// values use ==; everything else falls back to reflect.DeepEqual.
func Equals(a, b any, eq Equivalence) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	if eq != nil && eq.Equivalent(a, b) {
		return true
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Slice, reflect.Array:
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !Equals(va.Index(i).Interface(), vb.Index(i).Interface(), eq) {
				return false
			}
		}
		return true
	case reflect.Func:
		return va.Pointer() == vb.Pointer()
	}

	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return reflect.DeepEqual(a, b)
}

// DescribeValue renders an argument value for diagnostics.
func DescribeValue(v any) string {
	if IsNil(v) {
		return "nil"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
