package fingerprint

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// serializeValue renders a single component deterministically based on type.
// Stability across runs matters more than readability: equal logical values
// must serialize identically, and distinct values must not collide.
func serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := reflect.TypeOf(v)

	switch rt.Kind() {
	case reflect.Func:
		// Function identity is the only stable property a func value has.
		return fmt.Sprintf("func:%p", v)
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return serializeSequence("slice", rv)
	case reflect.Array:
		return serializeSequence("array", rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return serializeMap(rv)
	case reflect.Struct:
		return serializeStruct(rv, rt)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return serializeValue(rv.Elem().Interface())
	}

	if isBasicKind(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}

	return jsonFallback(v)
}

// serializeSequence handles slices and arrays element by element.
func serializeSequence(label string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", label, length, strings.Join(parts, ","))
}

// serializeMap renders entries sorted by serialized key so iteration order
// never leaks into the fingerprint.
func serializeMap(rv reflect.Value) string {
	keys := rv.MapKeys()
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = serializeValue(k.Interface()) + "=" + serializeValue(rv.MapIndex(k).Interface())
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// serializeStruct walks exported fields in declaration order.
func serializeStruct(rv reflect.Value, rt reflect.Type) string {
	numFields := rv.NumField()
	parts := make([]string, 0, numFields)

	for i := 0; i < numFields; i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldValue := rv.Field(i)
		if !fieldValue.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+":"+serializeValue(fieldValue.Interface()))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// jsonFallback covers types the switch above cannot express.
func jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		rt := reflect.TypeOf(v)
		return "fallback:" + rt.String()
	}
	return "json:" + string(data)
}
