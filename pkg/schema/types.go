package schema

import (
	"fmt"
	"reflect"
)

// Type checks one bag value for structural correctness.
type Type interface {
	// Name returns the human-readable name of the type.
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return fmt.Sprintf("[%s]", t.elem.Name()) }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type mapType struct {
	fields Schema
}

func (t mapType) Name() string { return "object" }

func (t mapType) Validate(value any) error {
	bag, err := asBag(value)
	if err != nil {
		return err
	}
	return Validate(t.fields, bag)
}

type enumType struct {
	name   string
	values []string
}

func (t enumType) Name() string { return t.name }

func (t enumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if s == "" {
		return nil
	}
	for _, v := range t.values {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", s, t.values)
}

type requiredType struct {
	inner Type
}

func (t requiredType) Name() string { return t.inner.Name() }

func (t requiredType) Validate(value any) error { return t.inner.Validate(value) }

// String validates a plain string value.
func String() Type { return stringType{} }

// Bool validates a boolean value.
func Bool() Type { return boolType{} }

// Slice validates a list whose elements all conform to elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Map validates a nested bag against its own schema.
func Map(fields Schema) Type { return mapType{fields: fields} }

// Enum validates a string restricted to the given values.
func Enum(name string, values ...string) Type {
	return enumType{name: name, values: values}
}

// Required marks a field that must be present in the bag. All other fields
// are optional and only checked when set.
func Required(inner Type) Type { return requiredType{inner: inner} }

// asBag coerces the map shapes produced by the JSON and YAML decoders.
func asBag(value any) (map[string]any, error) {
	switch m := value.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		bag := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			bag[key] = v
		}
		return bag, nil
	default:
		return nil, fmt.Errorf("expected object, got %T", value)
	}
}
