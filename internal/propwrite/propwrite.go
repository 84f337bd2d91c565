// Package propwrite reads and writes object properties by name using
// reflection. It backs parameter-value extraction for fingerprints and the
// application of deferred association loads.
package propwrite

import (
	"fmt"
	"reflect"
)

// Get returns the named property of obj. Struct targets (or pointers to
// structs) are read via exported field lookup; map[string]... targets via
// key lookup. A nil obj yields nil.
func Get(obj any, name string) (any, error) {
	if obj == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		field := rv.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			return nil, fmt.Errorf("propwrite: %s has no readable property %q", rv.Type(), name)
		}
		return field.Interface(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("propwrite: map target %s must have string keys", rv.Type())
		}
		v := rv.MapIndex(reflect.ValueOf(name))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	default:
		return nil, fmt.Errorf("propwrite: cannot read property %q from %s", name, rv.Kind())
	}
}

// Set writes value into the named property of target. Target must be a
// non-nil pointer to a struct, or a map with string keys.
func Set(target any, name string, value any) error {
	if target == nil {
		return fmt.Errorf("propwrite: nil target for property %q", name)
	}

	rv := reflect.ValueOf(target)

	if rv.Kind() == reflect.Map {
		return setMapKey(rv, name, value)
	}

	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("propwrite: target for property %q must be a non-nil pointer or map, got %T", name, target)
	}
	elem := rv.Elem()
	if elem.Kind() == reflect.Map {
		return setMapKey(elem, name, value)
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("propwrite: target for property %q must point to a struct, got %T", name, target)
	}

	field := elem.FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("propwrite: %s has no property %q", elem.Type(), name)
	}
	if !field.CanSet() {
		return fmt.Errorf("propwrite: property %q of %s is not settable", name, elem.Type())
	}

	return assign(field, value)
}

func setMapKey(rv reflect.Value, name string, value any) error {
	if rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("propwrite: map target %s must have string keys", rv.Type())
	}
	if rv.IsNil() {
		return fmt.Errorf("propwrite: nil map target for property %q", name)
	}
	elemType := rv.Type().Elem()
	if value == nil {
		rv.SetMapIndex(reflect.ValueOf(name), reflect.Zero(elemType))
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(elemType) {
		if !vv.Type().ConvertibleTo(elemType) {
			return fmt.Errorf("propwrite: cannot assign %s to map value type %s for property %q", vv.Type(), elemType, name)
		}
		vv = vv.Convert(elemType)
	}
	rv.SetMapIndex(reflect.ValueOf(name), vv)
	return nil
}

func assign(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(field.Type()) {
		if !vv.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("propwrite: cannot assign %s to property of type %s", vv.Type(), field.Type())
		}
		vv = vv.Convert(field.Type())
	}
	field.Set(vv)
	return nil
}

// Writer is the default property writer for deferred loads.
type Writer struct{}

// WriteRows applies a resolved row list to the named property, coercing by
// the property's shape: slice properties receive every row, scalar
// properties receive the single row. Zero rows leave the property untouched;
// more than one row for a scalar property is an error.
func (Writer) WriteRows(target any, property string, rows []any) error {
	kind, elemType, err := propertyShape(target, property)
	if err != nil {
		return err
	}

	if kind == reflect.Slice {
		out := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(rows))
		for _, row := range rows {
			if row == nil {
				out = reflect.Append(out, reflect.Zero(elemType))
				continue
			}
			rv := reflect.ValueOf(row)
			if !rv.Type().AssignableTo(elemType) {
				if !rv.Type().ConvertibleTo(elemType) {
					return fmt.Errorf("propwrite: row type %s does not fit slice property %q of %s", rv.Type(), property, elemType)
				}
				rv = rv.Convert(elemType)
			}
			out = reflect.Append(out, rv)
		}
		return Set(target, property, out.Interface())
	}

	switch len(rows) {
	case 0:
		return nil
	case 1:
		return Set(target, property, rows[0])
	default:
		return fmt.Errorf("propwrite: statement returned %d rows for scalar property %q", len(rows), property)
	}
}

// propertyShape inspects the target's property to decide between slice and
// scalar assignment. Map targets have no declared shape and default to
// scalar unless a single row is a slice itself.
func propertyShape(target any, property string) (reflect.Kind, reflect.Type, error) {
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return 0, nil, fmt.Errorf("propwrite: nil target for property %q", property)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		field, ok := rv.Type().FieldByName(property)
		if !ok {
			return 0, nil, fmt.Errorf("propwrite: %s has no property %q", rv.Type(), property)
		}
		if field.Type.Kind() == reflect.Slice {
			return reflect.Slice, field.Type.Elem(), nil
		}
		return field.Type.Kind(), field.Type, nil
	case reflect.Map:
		return reflect.Interface, rv.Type().Elem(), nil
	default:
		return 0, nil, fmt.Errorf("propwrite: unsupported target %s for property %q", rv.Kind(), property)
	}
}
