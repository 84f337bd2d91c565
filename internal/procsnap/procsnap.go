// Package procsnap snapshots and restores stored-procedure parameter
// objects. A snapshot is a msgpack round trip of the live parameter object
// taken right after a physical execution; restoring replays only the named
// output properties into a caller's parameter object when a memoized
// procedure result is reused.
package procsnap

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-session-cache/internal/propwrite"
)

// Codec implements snapshot/restore over msgpack.
type Codec struct{}

// Snapshot deep-copies the parameter object into an opaque byte snapshot.
func (Codec) Snapshot(params any) ([]byte, error) {
	if params == nil {
		return nil, nil
	}
	return msgpack.Marshal(params)
}

// Restore decodes the snapshot into a fresh instance of the parameter
// object's type and copies the named output properties into the live
// object. Properties not listed in outNames are left untouched.
func (Codec) Restore(snapshot []byte, params any, outNames []string) error {
	if len(snapshot) == 0 || params == nil || len(outNames) == 0 {
		return nil
	}

	rv := reflect.ValueOf(params)

	switch {
	case rv.Kind() == reflect.Map:
		var decoded map[string]any
		if err := msgpack.Unmarshal(snapshot, &decoded); err != nil {
			return fmt.Errorf("procsnap: decode snapshot: %w", err)
		}
		for _, name := range outNames {
			if err := propwrite.Set(params, name, decoded[name]); err != nil {
				return err
			}
		}
		return nil

	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		fresh := reflect.New(rv.Type().Elem())
		if err := msgpack.Unmarshal(snapshot, fresh.Interface()); err != nil {
			return fmt.Errorf("procsnap: decode snapshot: %w", err)
		}
		for _, name := range outNames {
			value, err := propwrite.Get(fresh.Interface(), name)
			if err != nil {
				return err
			}
			if err := propwrite.Set(params, name, value); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("procsnap: parameter object must be a map or struct pointer, got %T", params)
	}
}
