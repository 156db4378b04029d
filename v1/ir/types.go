// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import "strings"

// TypeAttrs describe the properties of a type that the optimizer cares
// about. Everything else about a type is opaque to OIR.
type TypeAttrs uint8

const (
	// Trivial types have no ownership semantics: copies are bitwise and
	// destruction is a no-op.
	Trivial TypeAttrs = 1 << iota

	// MoveOnly types must never be copied; every value has exactly one
	// consumer.
	MoveOnly

	// Union marks a tagged-union type.
	Union

	// ContainsUnion marks an aggregate with at least one union field.
	ContainsUnion

	// OptionalLayout marks a union whose layout is a single optional
	// payload. Payload extraction from such a union does not invalidate
	// the underlying storage.
	OptionalLayout
)

// Type is a named type with the attributes relevant to ownership
// optimization.
type Type struct {
	Name  string
	Attrs TypeAttrs
}

// TokenType is the builtin type of coroutine tokens produced by begin_apply.
var TokenType = &Type{Name: "Token", Attrs: Trivial}

func (t *Type) IsTrivial() bool  { return t.Attrs&Trivial != 0 }
func (t *Type) IsMoveOnly() bool { return t.Attrs&MoveOnly != 0 }
func (t *Type) IsUnion() bool    { return t.Attrs&Union != 0 }

// IsOrHasUnion reports whether the type is a tagged union or contains one.
func (t *Type) IsOrHasUnion() bool { return t.Attrs&(Union|ContainsUnion) != 0 }

// HasOptionalLayout reports whether the type is a union with a single
// optional payload.
func (t *Type) HasOptionalLayout() bool { return t.Attrs&OptionalLayout != 0 }

// String returns the attribute list in the textual-IR form, e.g.
// "union, optional". An empty string means no attributes.
func (a TypeAttrs) String() string {
	var parts []string
	if a&Trivial != 0 {
		parts = append(parts, "trivial")
	}
	if a&MoveOnly != 0 {
		parts = append(parts, "moveonly")
	}
	if a&Union != 0 {
		parts = append(parts, "union")
	}
	if a&ContainsUnion != 0 {
		parts = append(parts, "contains_union")
	}
	if a&OptionalLayout != 0 {
		parts = append(parts, "optional")
	}
	return strings.Join(parts, ", ")
}

// Convention is an ownership-passing convention for function arguments and
// call/yield operands.
type Convention int

const (
	// Owned transfers ownership to the callee; the callee consumes the
	// value (for address operands: deinitializes the memory).
	Owned Convention = iota

	// Guaranteed promises the callee will neither consume the value nor
	// extend its lifetime.
	Guaranteed

	// Inout grants the callee read/write access for the duration of the
	// call.
	Inout
)

func (c Convention) String() string {
	switch c {
	case Owned:
		return "owned"
	case Guaranteed:
		return "guaranteed"
	case Inout:
		return "inout"
	default:
		return "unknown"
	}
}
