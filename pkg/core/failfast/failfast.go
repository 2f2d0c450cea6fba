package failfast

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidArgument is wrapped by every panic raised through NotNil,
// so recovered values can be matched with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// NotNil panics if v is nil.
// Typed nil pointers, funcs, maps, chans and interfaces holding them count as nil.
func NotNil(v interface{}, name string) {
	if isNil(v) {
		panic(fmt.Errorf("fail-fast: %w: %s is nil", ErrInvalidArgument, name))
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
