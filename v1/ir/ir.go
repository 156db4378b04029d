// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ir defines an ownership-aware SSA intermediate representation.
//
// A Function is an ordered list of Blocks; a Block is an ordered list of
// Instructions ending in a terminator. Every instruction defines at most
// one Value. Data flow is tracked with explicit use lists: each Operand of
// an instruction is registered on the use list of the Value it reads, and
// Operand.Set keeps both sides consistent under in-place mutation.
//
// The instruction set is closed and dispatch is by Op, not by type: passes
// are written as flat decision tables over instruction kinds.
package ir

import "fmt"

// Op identifies an instruction kind.
type Op int

const (
	Invalid Op = iota

	// Memory.
	AllocStack   // %t = alloc_stack $T
	CopyAddr     // copy_addr [take] %src to [init] %dest
	Store        // store %v to [init] %addr
	Load         // %v = load [take] %addr
	LoadBorrow   // %b = load_borrow %addr
	EndBorrow    // end_borrow %b
	BeginAccess  // %a = begin_access [read] %addr
	EndAccess    // end_access %a
	DestroyAddr  // destroy_addr %addr
	DeallocStack // dealloc_stack %addr

	// Address projections.
	FieldAddr     // %f = field_addr %addr, 0 : $*F
	IndexAddr     // %e = index_addr %addr, 1 : $*E
	AddrCast      // %c = addr_cast %addr : $*U
	OpenUnionAddr // %o = open_union_addr [immutable] %addr : $*P
	UnionDataAddr // %p = union_data_addr %addr : $*P

	// Calls.
	Apply        // %r = apply @f(%x [guaranteed]) : $R
	BeginApply   // %tok = begin_apply @f(%x [guaranteed])
	EndApply     // end_apply %tok
	AbortApply   // abort_apply %tok
	PartialApply // %c = partial_apply [on_stack] @f(%x) : $C

	// Values.
	MarkDependence // %d = mark_dependence %v on %base
	FixLifetime    // fix_lifetime %v
	CopyValue      // %c = copy_value %v
	DestroyValue   // destroy_value %v

	// Terminators.
	Return      // return [%v]
	Branch      // br bb1(%x)
	CondBranch  // cond_br %c, bb1, bb2
	Yield       // yield %x [guaranteed], resume bb1
	Unreachable // unreachable

	numOps
)

var opNames = [numOps]string{
	Invalid:        "invalid",
	AllocStack:     "alloc_stack",
	CopyAddr:       "copy_addr",
	Store:          "store",
	Load:           "load",
	LoadBorrow:     "load_borrow",
	EndBorrow:      "end_borrow",
	BeginAccess:    "begin_access",
	EndAccess:      "end_access",
	DestroyAddr:    "destroy_addr",
	DeallocStack:   "dealloc_stack",
	FieldAddr:      "field_addr",
	IndexAddr:      "index_addr",
	AddrCast:       "addr_cast",
	OpenUnionAddr:  "open_union_addr",
	UnionDataAddr:  "union_data_addr",
	Apply:          "apply",
	BeginApply:     "begin_apply",
	EndApply:       "end_apply",
	AbortApply:     "abort_apply",
	PartialApply:   "partial_apply",
	MarkDependence: "mark_dependence",
	FixLifetime:    "fix_lifetime",
	CopyValue:      "copy_value",
	DestroyValue:   "destroy_value",
	Return:         "return",
	Branch:         "br",
	CondBranch:     "cond_br",
	Yield:          "yield",
	Unreachable:    "unreachable",
}

func (op Op) String() string {
	if op < 0 || op >= numOps {
		return fmt.Sprintf("op(%d)", int(op))
	}
	return opNames[op]
}

// IsTerminator reports whether instructions of this kind end a block.
func (op Op) IsTerminator() bool {
	switch op {
	case Return, Branch, CondBranch, Yield, Unreachable:
		return true
	}
	return false
}

// LoadKind is the ownership qualifier of a load.
type LoadKind int

const (
	LoadTake    LoadKind = iota // consumes the loaded memory
	LoadCopy                    // copies the value, memory stays initialized
	LoadTrivial                 // trivial types only
)

func (k LoadKind) String() string {
	switch k {
	case LoadTake:
		return "take"
	case LoadCopy:
		return "copy"
	default:
		return "trivial"
	}
}

// StoreKind is the ownership qualifier of a store.
type StoreKind int

const (
	StoreInit    StoreKind = iota // initializes uninitialized memory
	StoreAssign                   // overwrites initialized memory
	StoreTrivial                  // trivial types only
)

func (k StoreKind) String() string {
	switch k {
	case StoreInit:
		return "init"
	case StoreAssign:
		return "assign"
	default:
		return "trivial"
	}
}

// AccessKind is the declared exclusivity of an access scope.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessModify
)

func (k AccessKind) String() string {
	if k == AccessRead {
		return "read"
	}
	return "modify"
}

// Value is an SSA value: the result of an instruction, a function
// argument, or a block parameter.
type Value struct {
	name    string
	typ     *Type
	address bool
	def     *Instruction // nil for arguments and block parameters
	arg     *argInfo     // nil for instruction results
	uses    []*Operand
}

type argInfo struct {
	fn    *Function // non-nil for function arguments
	block *Block    // non-nil for block parameters
	conv  Convention
}

// Name returns the value's textual name, without the leading '%'. It may
// be empty for values created during optimization; the printer assigns
// fresh names to those.
func (v *Value) Name() string { return v.name }

// SetName sets the value's textual name.
func (v *Value) SetName(name string) { v.name = name }

// Type returns the type of the value (for addresses, the pointee type).
func (v *Value) Type() *Type { return v.typ }

// IsAddress reports whether the value is a memory address.
func (v *Value) IsAddress() bool { return v.address }

// Def returns the defining instruction, or nil for arguments and block
// parameters.
func (v *Value) Def() *Instruction { return v.def }

// IsFunctionArgument reports whether the value is a function argument.
func (v *Value) IsFunctionArgument() bool { return v.arg != nil && v.arg.fn != nil }

// Ownership returns the ownership convention of a function argument.
func (v *Value) Ownership() Convention {
	if v.arg == nil {
		return Owned
	}
	return v.arg.conv
}

// Uses returns a snapshot of the value's use list. The returned slice is
// owned by the caller and stays valid while uses are added or removed.
func (v *Value) Uses() []*Operand {
	out := make([]*Operand, len(v.uses))
	copy(out, v.uses)
	return out
}

// HasUses reports whether the value has any remaining uses.
func (v *Value) HasUses() bool { return len(v.uses) > 0 }

// NumUses returns the number of remaining uses.
func (v *Value) NumUses() int { return len(v.uses) }

// FirstUse returns an arbitrary remaining use, or nil.
func (v *Value) FirstUse() *Operand {
	if len(v.uses) == 0 {
		return nil
	}
	return v.uses[0]
}

// ReplaceAllUsesWith retargets every use of v to w.
func (v *Value) ReplaceAllUsesWith(w *Value) {
	if v == w {
		return
	}
	for len(v.uses) > 0 {
		v.uses[0].Set(w)
	}
}

func (v *Value) addUse(o *Operand) { v.uses = append(v.uses, o) }

func (v *Value) removeUse(o *Operand) {
	for i, u := range v.uses {
		if u == o {
			last := len(v.uses) - 1
			v.uses[i] = v.uses[last]
			v.uses[last] = nil
			v.uses = v.uses[:last]
			return
		}
	}
	panic("ir: use not found on value " + v.name)
}

// Operand is a single value reference held by an instruction. Setting an
// operand keeps the def-use web consistent.
type Operand struct {
	user *Instruction
	idx  int
	val  *Value
	conv Convention // argument convention for call and yield operands
}

// Get returns the referenced value.
func (o *Operand) Get() *Value { return o.val }

// User returns the instruction holding the operand.
func (o *Operand) User() *Instruction { return o.user }

// Index returns the operand's position within its instruction.
func (o *Operand) Index() int { return o.idx }

// Convention returns the argument-passing convention for call and yield
// operands. Other operands report Owned.
func (o *Operand) Convention() Convention { return o.conv }

// Set retargets the operand to v, updating both use lists.
func (o *Operand) Set(v *Value) {
	if o.val == v {
		return
	}
	if o.val != nil {
		o.val.removeUse(o)
	}
	o.val = v
	if v != nil {
		v.addUse(o)
	}
}

// Instruction is a single IR instruction. Instructions are linked into
// their block and may be inserted, moved, and erased in place.
type Instruction struct {
	op         Op
	block      *Block
	prev, next *Instruction
	operands   []*Operand
	result     *Value
	succs      []*Block // successors, terminators only

	callee          string     // apply family
	field           int        // field_addr, index_addr
	access          AccessKind // begin_access
	load            LoadKind   // load
	store           StoreKind  // store
	take            bool       // copy_addr [take]
	initialize      bool       // copy_addr [init]
	lexical         bool       // alloc_stack [lexical]
	dynamicLifetime bool       // alloc_stack [dynamic_lifetime]
	immutable       bool       // open_union_addr [immutable]
	onStack         bool       // partial_apply [on_stack]
}

func newInstruction(op Op, args ...*Value) *Instruction {
	in := &Instruction{op: op}
	for _, a := range args {
		in.appendOperand(a, Owned)
	}
	return in
}

func (in *Instruction) appendOperand(v *Value, conv Convention) *Operand {
	o := &Operand{user: in, idx: len(in.operands), conv: conv}
	in.operands = append(in.operands, o)
	o.Set(v)
	return o
}

// Op returns the instruction kind.
func (in *Instruction) Op() Op { return in.op }

// Block returns the containing block, or nil if unlinked.
func (in *Instruction) Block() *Block { return in.block }

// Func returns the containing function, or nil if unlinked.
func (in *Instruction) Func() *Function {
	if in.block == nil {
		return nil
	}
	return in.block.fn
}

// Next returns the following instruction in the block, or nil.
func (in *Instruction) Next() *Instruction { return in.next }

// Prev returns the preceding instruction in the block, or nil.
func (in *Instruction) Prev() *Instruction { return in.prev }

// Result returns the value defined by the instruction, or nil.
func (in *Instruction) Result() *Value { return in.result }

// NumOperands returns the operand count.
func (in *Instruction) NumOperands() int { return len(in.operands) }

// Operand returns the i-th operand.
func (in *Instruction) Operand(i int) *Operand { return in.operands[i] }

// Operands returns the live operand list. Callers that mutate the
// instruction while iterating must copy it first.
func (in *Instruction) Operands() []*Operand { return in.operands }

// Succs returns the successor blocks of a terminator.
func (in *Instruction) Succs() []*Block { return in.succs }

// IsTerminator reports whether the instruction ends its block.
func (in *Instruction) IsTerminator() bool { return in.op.IsTerminator() }

// Src returns the source operand value of a copy_addr or store.
func (in *Instruction) Src() *Value { return in.operands[0].Get() }

// Dest returns the destination operand value of a copy_addr or store.
func (in *Instruction) Dest() *Value { return in.operands[1].Get() }

// IsTakeOfSrc reports whether a copy_addr consumes its source.
func (in *Instruction) IsTakeOfSrc() bool { return in.take }

// SetIsTakeOfSrc changes the take flag of a copy_addr.
func (in *Instruction) SetIsTakeOfSrc(take bool) { in.take = take }

// IsInitOfDest reports whether a copy_addr initializes its destination.
func (in *Instruction) IsInitOfDest() bool { return in.initialize }

// LoadKind returns the ownership qualifier of a load.
func (in *Instruction) LoadKind() LoadKind { return in.load }

// SetLoadKind changes the ownership qualifier of a load.
func (in *Instruction) SetLoadKind(k LoadKind) { in.load = k }

// StoreKind returns the ownership qualifier of a store.
func (in *Instruction) StoreKind() StoreKind { return in.store }

// AccessKind returns the exclusivity kind of a begin_access.
func (in *Instruction) AccessKind() AccessKind { return in.access }

// IsLexical reports whether an alloc_stack is tied to a source-level
// binding.
func (in *Instruction) IsLexical() bool { return in.lexical }

// HasDynamicLifetime reports whether an alloc_stack is conditionally
// initialized.
func (in *Instruction) HasDynamicLifetime() bool { return in.dynamicLifetime }

// IsImmutableOpen reports whether an open_union_addr is read-only.
func (in *Instruction) IsImmutableOpen() bool { return in.immutable }

// IsOnStack reports whether a partial_apply allocates its context on the
// stack.
func (in *Instruction) IsOnStack() bool { return in.onStack }

// Callee returns the callee name of an apply-family instruction.
func (in *Instruction) Callee() string { return in.callee }

// FieldIndex returns the projected field or element index.
func (in *Instruction) FieldIndex() int { return in.field }

// DependenceValue returns the dependent value of a mark_dependence.
func (in *Instruction) DependenceValue() *Value { return in.operands[0].Get() }

// DependenceBase returns the base value of a mark_dependence.
func (in *Instruction) DependenceBase() *Value { return in.operands[1].Get() }

// BeginAccessInst returns the begin_access that an end_access closes.
func (in *Instruction) BeginAccessInst() *Instruction {
	return in.operands[0].Get().Def()
}

// AccessedAddress returns the address governed by an access-scope marker:
// the operand of a begin_access, or the begin's operand for an end_access.
func (in *Instruction) AccessedAddress() *Value {
	switch in.op {
	case BeginAccess:
		return in.operands[0].Get()
	case EndAccess:
		return in.BeginAccessInst().operands[0].Get()
	}
	panic("ir: AccessedAddress on " + in.op.String())
}

// EndAccesses returns the end_access instructions closing a begin_access.
func (in *Instruction) EndAccesses() []*Instruction {
	var ends []*Instruction
	for _, u := range in.result.uses {
		if u.user.op == EndAccess {
			ends = append(ends, u.user)
		}
	}
	return ends
}

// Erase unlinks the instruction and releases its operands. The
// instruction's result must have no remaining uses.
func (in *Instruction) Erase() {
	if in.result != nil && in.result.HasUses() {
		panic(fmt.Sprintf("ir: erasing %s with live uses of its result", in.op))
	}
	in.unlink()
	in.dropOperands()
}

// Remove unlinks the instruction from its block without releasing
// operands, so it can be re-inserted elsewhere.
func (in *Instruction) unlink() {
	b := in.block
	if b == nil {
		return
	}
	if in.prev != nil {
		in.prev.next = in.next
	} else {
		b.first = in.next
	}
	if in.next != nil {
		in.next.prev = in.prev
	} else {
		b.last = in.prev
	}
	in.prev, in.next, in.block = nil, nil, nil
}

func (in *Instruction) dropOperands() {
	for _, o := range in.operands {
		if o.val != nil {
			o.val.removeUse(o)
			o.val = nil
		}
	}
}

// MoveAfter unlinks the instruction and re-inserts it immediately after
// pos.
func (in *Instruction) MoveAfter(pos *Instruction) {
	if in == pos {
		return
	}
	in.unlink()
	pos.block.insertAfter(in, pos)
}

// MoveBefore unlinks the instruction and re-inserts it immediately before
// pos.
func (in *Instruction) MoveBefore(pos *Instruction) {
	if in == pos {
		return
	}
	in.unlink()
	pos.block.insertBefore(in, pos)
}
