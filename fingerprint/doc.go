// Package fingerprint derives stable, order-sensitive composite keys for
// logical query invocations.
//
// A fingerprint identifies one query execution: the statement identity, the
// pagination bounds, the literal SQL text, every bound parameter value in
// order, and the environment identity. Sessions use fingerprints as memo
// keys, so equal logical queries must always produce equal fingerprints and
// differently-shaped calls must never collide.
//
// # Folding
//
// Components are folded one at a time:
//
//	fp := fingerprint.NewBuilder().
//		Fold("UserMapper.selectById").
//		Fold(0).
//		Fold(10).
//		Fold("SELECT * FROM users WHERE id = ?").
//		Fold(7).
//		Build()
//
// Each component is serialized deterministically and tagged with its ordinal
// before hashing, which makes folding order-dependent: swapping two
// components always changes the result. Nil parameter values fold as a
// distinguished null marker so "one nil argument" differs from "no
// arguments".
//
// The common case is covered by New, which folds the components of a query
// invocation in the canonical order.
//
// # Serialization strategy
//
// Values are rendered by reflection: basic types via their string form,
// pointers dereferenced, slices and arrays element by element, maps with
// entries sorted so iteration order never leaks into the key, structs by
// walking exported fields in declaration order, and functions and channels
// by identity. Anything else falls back to JSON.
//
// Building a fingerprint performs no I/O and cannot fail.
package fingerprint
