// Package filter provides ready-made result predicates.
//
// Every constructor returns a plain func(T) bool, which can be passed
// directly to task.ResultBuilder.AddFilter or task.NewResultFilter.
package filter

import (
	"cmp"
	"os"
	"reflect"
)

// Between accepts values in the closed range [min, max]
func Between[T cmp.Ordered](min, max T) func(T) bool {
	return func(v T) bool { return v >= min && v <= max }
}

// GreaterThan accepts values strictly above n
func GreaterThan[T cmp.Ordered](n T) func(T) bool {
	return func(v T) bool { return v > n }
}

// AtLeast accepts values greater than or equal to n
func AtLeast[T cmp.Ordered](n T) func(T) bool {
	return func(v T) bool { return v >= n }
}

// LessThan accepts values strictly below n
func LessThan[T cmp.Ordered](n T) func(T) bool {
	return func(v T) bool { return v < n }
}

// AtMost accepts values less than or equal to n
func AtMost[T cmp.Ordered](n T) func(T) bool {
	return func(v T) bool { return v <= n }
}

// Number is the set of types NonNegative works on
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// NonNegative accepts zero and positive numbers
func NonNegative[T Number]() func(T) bool {
	return func(v T) bool { return v >= 0 }
}

// NotEqual rejects one specific value
func NotEqual[T comparable](not T) func(T) bool {
	return func(v T) bool { return v != not }
}

// NotNil rejects nil pointers, maps, slices, channels, funcs and interfaces
func NotNil[T any]() func(T) bool {
	return func(v T) bool {
		rv := reflect.ValueOf(&v).Elem()
		switch rv.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return !rv.IsNil()
		}
		return true
	}
}

// NotEmpty rejects the empty string
func NotEmpty() func(string) bool {
	return func(s string) bool { return s != "" }
}

// MinLength accepts strings of at least n bytes
func MinLength(n int) func(string) bool {
	return func(s string) bool { return len(s) >= n }
}

// MaxLength accepts strings of at most n bytes
func MaxLength(n int) func(string) bool {
	return func(s string) bool { return len(s) <= n }
}

// LengthBetween accepts strings whose length is in [min, max]
func LengthBetween(min, max int) func(string) bool {
	return func(s string) bool { return len(s) >= min && len(s) <= max }
}

// IsFile accepts paths naming an existing regular file
func IsFile() func(string) bool {
	return func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
}

// IsDir accepts paths naming an existing directory
func IsDir() func(string) bool {
	return func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
}

// IsEmptyDir accepts paths naming a directory with no entries
func IsEmptyDir() func(string) bool {
	return func(path string) bool {
		entries, err := os.ReadDir(path)
		return err == nil && len(entries) == 0
	}
}

// MinSize accepts regular files of at least n bytes
func MinSize(n int64) func(string) bool {
	return func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular() && info.Size() >= n
	}
}

// MaxSize accepts regular files of at most n bytes
func MaxSize(n int64) func(string) bool {
	return func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular() && info.Size() <= n
	}
}
