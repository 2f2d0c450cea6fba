package config

import (
	"fmt"
	"reflect"
	"strings"
)

// RequiredFields fails when any named field holds its zero value.
// Nested fields use dot notation, e.g. "Tracing.ZipkinEndpoint".
func RequiredFields(fields ...string) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}

		var missing []string
		for _, name := range fields {
			field := getNestedField(val, name)
			if !field.IsValid() {
				return fmt.Errorf("field %s not found in config struct", name)
			}
			if field.IsZero() {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("required fields are missing: %s", strings.Join(missing, ", "))
		}
		return nil
	})
}

// RangeValidator fails when a numeric field lies outside [min, max]
func RangeValidator(fieldName string, min, max float64) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}
		field := getNestedField(val, fieldName)
		if !field.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		var n float64
		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n = float64(field.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n = float64(field.Uint())
		case reflect.Float32, reflect.Float64:
			n = field.Float()
		default:
			return fmt.Errorf("field %s is not numeric", fieldName)
		}

		if n < min || n > max {
			return fmt.Errorf("field %s value %v is out of range [%v, %v]", fieldName, n, min, max)
		}
		return nil
	})
}

// OneOfValidator fails unless the field equals one of allowed
func OneOfValidator(fieldName string, allowed ...interface{}) Validator {
	return ValidatorFunc(func(config interface{}) error {
		val, err := structValue(config)
		if err != nil {
			return err
		}
		field := getNestedField(val, fieldName)
		if !field.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		v := field.Interface()
		for _, a := range allowed {
			if reflect.DeepEqual(v, a) {
				return nil
			}
		}
		return fmt.Errorf("field %s value %v is not one of allowed values: %v", fieldName, v, allowed)
	})
}

func structValue(config interface{}) (reflect.Value, error) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("config must be a struct")
	}
	return val, nil
}

func getNestedField(val reflect.Value, path string) reflect.Value {
	current := val
	for _, part := range strings.Split(path, ".") {
		if current.Kind() == reflect.Ptr {
			current = current.Elem()
		}
		if current.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		current = current.FieldByName(part)
		if !current.IsValid() {
			return reflect.Value{}
		}
	}
	return current
}
