// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

// Builder creates instructions at a fixed insertion point. Instructions
// are inserted in creation order.
type Builder struct {
	block *Block
	pos   *Instruction // insert before pos; nil appends at block end
}

// NewBuilder returns a builder inserting before pos.
func NewBuilder(pos *Instruction) *Builder {
	return &Builder{block: pos.block, pos: pos}
}

// NewBuilderAfter returns a builder inserting after pos.
func NewBuilderAfter(pos *Instruction) *Builder {
	return &Builder{block: pos.block, pos: pos.next}
}

// NewBuilderAtEnd returns a builder appending to b.
func NewBuilderAtEnd(b *Block) *Builder {
	return &Builder{block: b}
}

func (bld *Builder) insert(in *Instruction) *Instruction {
	if bld.pos != nil {
		bld.block.insertBefore(in, bld.pos)
	} else {
		bld.block.append(in)
	}
	return in
}

func (bld *Builder) define(in *Instruction, t *Type, address bool) *Instruction {
	in.result = &Value{typ: t, address: address, def: in}
	return in
}

// AllocStack creates stack storage for a value of type t.
func (bld *Builder) AllocStack(t *Type, lexical, dynamicLifetime bool) *Instruction {
	in := newInstruction(AllocStack)
	in.lexical = lexical
	in.dynamicLifetime = dynamicLifetime
	bld.define(in, t, true)
	return bld.insert(in)
}

// CopyAddr copies the value at src to dest.
func (bld *Builder) CopyAddr(src, dest *Value, take, initialize bool) *Instruction {
	in := newInstruction(CopyAddr, src, dest)
	in.take = take
	in.initialize = initialize
	return bld.insert(in)
}

// Store stores the value v to addr.
func (bld *Builder) Store(v, addr *Value, kind StoreKind) *Instruction {
	in := newInstruction(Store, v, addr)
	in.store = kind
	return bld.insert(in)
}

// Load loads the value at addr.
func (bld *Builder) Load(addr *Value, kind LoadKind) *Instruction {
	in := newInstruction(Load, addr)
	in.load = kind
	bld.define(in, addr.typ, false)
	return bld.insert(in)
}

// LoadBorrow borrows the value at addr without copying it.
func (bld *Builder) LoadBorrow(addr *Value) *Instruction {
	in := newInstruction(LoadBorrow, addr)
	bld.define(in, addr.typ, false)
	return bld.insert(in)
}

// EndBorrow ends a borrow scope.
func (bld *Builder) EndBorrow(borrow *Value) *Instruction {
	return bld.insert(newInstruction(EndBorrow, borrow))
}

// BeginAccess opens an access scope on addr.
func (bld *Builder) BeginAccess(addr *Value, kind AccessKind) *Instruction {
	in := newInstruction(BeginAccess, addr)
	in.access = kind
	bld.define(in, addr.typ, true)
	return bld.insert(in)
}

// EndAccess closes the access scope opened by the begin_access defining
// scope.
func (bld *Builder) EndAccess(scope *Value) *Instruction {
	return bld.insert(newInstruction(EndAccess, scope))
}

// DestroyAddr deinitializes the memory at addr.
func (bld *Builder) DestroyAddr(addr *Value) *Instruction {
	return bld.insert(newInstruction(DestroyAddr, addr))
}

// DeallocStack releases stack storage.
func (bld *Builder) DeallocStack(addr *Value) *Instruction {
	return bld.insert(newInstruction(DeallocStack, addr))
}

// FieldAddr projects the address of field idx.
func (bld *Builder) FieldAddr(addr *Value, idx int, t *Type) *Instruction {
	in := newInstruction(FieldAddr, addr)
	in.field = idx
	bld.define(in, t, true)
	return bld.insert(in)
}

// IndexAddr projects the address of element idx.
func (bld *Builder) IndexAddr(addr *Value, idx int, t *Type) *Instruction {
	in := newInstruction(IndexAddr, addr)
	in.field = idx
	bld.define(in, t, true)
	return bld.insert(in)
}

// AddrCast reinterprets addr as an address of type t.
func (bld *Builder) AddrCast(addr *Value, t *Type) *Instruction {
	in := newInstruction(AddrCast, addr)
	bld.define(in, t, true)
	return bld.insert(in)
}

// OpenUnionAddr unwraps the dynamic type behind addr.
func (bld *Builder) OpenUnionAddr(addr *Value, immutable bool, t *Type) *Instruction {
	in := newInstruction(OpenUnionAddr, addr)
	in.immutable = immutable
	bld.define(in, t, true)
	return bld.insert(in)
}

// UnionDataAddr projects the payload address of a tagged union.
func (bld *Builder) UnionDataAddr(addr *Value, t *Type) *Instruction {
	in := newInstruction(UnionDataAddr, addr)
	bld.define(in, t, true)
	return bld.insert(in)
}

// Apply calls callee. result is the result type, or nil for no result.
// convs holds per-argument conventions and must match args in length.
func (bld *Builder) Apply(callee string, result *Type, args []*Value, convs []Convention) *Instruction {
	in := bld.call(Apply, callee, args, convs)
	if result != nil {
		bld.define(in, result, false)
	}
	return bld.insert(in)
}

// BeginApply starts a coroutine call. The result is the coroutine token.
func (bld *Builder) BeginApply(callee string, args []*Value, convs []Convention) *Instruction {
	in := bld.call(BeginApply, callee, args, convs)
	bld.define(in, TokenType, false)
	return bld.insert(in)
}

// EndApply completes a coroutine call.
func (bld *Builder) EndApply(token *Value) *Instruction {
	return bld.insert(newInstruction(EndApply, token))
}

// AbortApply aborts a coroutine call.
func (bld *Builder) AbortApply(token *Value) *Instruction {
	return bld.insert(newInstruction(AbortApply, token))
}

// PartialApply captures args into a closure of type result.
func (bld *Builder) PartialApply(callee string, onStack bool, result *Type, args []*Value, convs []Convention) *Instruction {
	in := bld.call(PartialApply, callee, args, convs)
	in.onStack = onStack
	bld.define(in, result, false)
	return bld.insert(in)
}

func (bld *Builder) call(op Op, callee string, args []*Value, convs []Convention) *Instruction {
	if len(args) != len(convs) {
		panic("ir: call argument/convention count mismatch")
	}
	in := &Instruction{op: op, callee: callee}
	for i, a := range args {
		in.appendOperand(a, convs[i])
	}
	return in
}

// MarkDependence marks value as depending on the lifetime of base.
func (bld *Builder) MarkDependence(value, base *Value) *Instruction {
	in := newInstruction(MarkDependence, value, base)
	bld.define(in, value.typ, value.address)
	return bld.insert(in)
}

// FixLifetime pins the lifetime of v at this point.
func (bld *Builder) FixLifetime(v *Value) *Instruction {
	return bld.insert(newInstruction(FixLifetime, v))
}

// CopyValue copies v.
func (bld *Builder) CopyValue(v *Value) *Instruction {
	in := newInstruction(CopyValue, v)
	bld.define(in, v.typ, false)
	return bld.insert(in)
}

// DestroyValue releases v.
func (bld *Builder) DestroyValue(v *Value) *Instruction {
	return bld.insert(newInstruction(DestroyValue, v))
}

// EmitCopyValue copies v unless its type is trivial, in which case v is
// returned unchanged.
func (bld *Builder) EmitCopyValue(v *Value) *Value {
	if v.typ.IsTrivial() {
		return v
	}
	return bld.CopyValue(v).Result()
}

// EmitDestroyValue releases v unless its type is trivial.
func (bld *Builder) EmitDestroyValue(v *Value) *Instruction {
	if v.typ.IsTrivial() {
		return nil
	}
	return bld.DestroyValue(v)
}

// Return returns from the function; v may be nil.
func (bld *Builder) Return(v *Value) *Instruction {
	var in *Instruction
	if v != nil {
		in = newInstruction(Return, v)
	} else {
		in = newInstruction(Return)
	}
	return bld.insert(in)
}

// Branch jumps to target, passing args as block parameters.
func (bld *Builder) Branch(target *Block, args ...*Value) *Instruction {
	in := newInstruction(Branch, args...)
	in.succs = []*Block{target}
	bld.block.addSuccessor(target)
	return bld.insert(in)
}

// CondBranch jumps to onTrue or onFalse depending on cond.
func (bld *Builder) CondBranch(cond *Value, onTrue, onFalse *Block) *Instruction {
	in := newInstruction(CondBranch, cond)
	in.succs = []*Block{onTrue, onFalse}
	bld.block.addSuccessor(onTrue)
	bld.block.addSuccessor(onFalse)
	return bld.insert(in)
}

// Yield yields values to the caller of a coroutine and resumes at resume.
func (bld *Builder) Yield(args []*Value, convs []Convention, resume *Block) *Instruction {
	in := bld.call(Yield, "", args, convs)
	in.succs = []*Block{resume}
	bld.block.addSuccessor(resume)
	return bld.insert(in)
}

// Unreachable marks an unreachable program point.
func (bld *Builder) Unreachable() *Instruction {
	return bld.insert(newInstruction(Unreachable))
}
