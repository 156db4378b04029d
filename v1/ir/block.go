// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

// Module is a set of functions together with the types they reference.
type Module struct {
	Types map[string]*Type
	Funcs []*Function
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{Types: map[string]*Type{}}
}

// Type returns the named type, creating a plain (attribute-free) type on
// first use.
func (m *Module) Type(name string) *Type {
	t, ok := m.Types[name]
	if !ok {
		t = &Type{Name: name}
		m.Types[name] = t
	}
	return t
}

// Func returns the named function, or nil.
func (m *Module) Func(name string) *Function {
	for _, f := range m.Funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Function is an ordered collection of basic blocks. Functions are the
// unit of analysis: passes process one function at a time and keep no
// cross-function state.
type Function struct {
	name              string
	params            []*Value
	blocks            []*Block
	ownershipVerified bool
}

// NewFunction returns a function with no blocks. ownershipVerified selects
// the representation mode: when true, value lifetimes are statically
// checked for linearity; legacy mode lacks this guarantee.
func NewFunction(name string, ownershipVerified bool) *Function {
	return &Function{name: name, ownershipVerified: ownershipVerified}
}

// Name returns the function name, without the leading '@'.
func (f *Function) Name() string { return f.name }

// OwnershipVerified reports whether the function is in ownership-verified
// mode.
func (f *Function) OwnershipVerified() bool { return f.ownershipVerified }

// AddParam appends a function argument.
func (f *Function) AddParam(name string, t *Type, address bool, conv Convention) *Value {
	v := &Value{name: name, typ: t, address: address, arg: &argInfo{fn: f, conv: conv}}
	f.params = append(f.params, v)
	return v
}

// Params returns the function arguments.
func (f *Function) Params() []*Value { return f.params }

// NewBlock appends a new, empty block.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{fn: f, name: name}
	f.blocks = append(f.blocks, b)
	return b
}

// Blocks returns the function's blocks in order. The entry block is first.
func (f *Function) Blocks() []*Block { return f.blocks }

// Entry returns the entry block.
func (f *Function) Entry() *Block {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// Block is an ordered sequence of instructions ending in a terminator.
// Instruction order is significant: the optimizer's linear scans walk
// blocks front to back.
type Block struct {
	fn          *Function
	name        string
	params      []*Value
	first, last *Instruction
	preds       []*Block
}

// Name returns the block label.
func (b *Block) Name() string { return b.name }

// Func returns the containing function.
func (b *Block) Func() *Function { return b.fn }

// AddParam appends a block parameter.
func (b *Block) AddParam(name string, t *Type, address bool) *Value {
	v := &Value{name: name, typ: t, address: address, arg: &argInfo{block: b}}
	b.params = append(b.params, v)
	return v
}

// Params returns the block parameters.
func (b *Block) Params() []*Value { return b.params }

// First returns the first instruction, or nil for an empty block.
func (b *Block) First() *Instruction { return b.first }

// Last returns the last instruction, or nil for an empty block.
func (b *Block) Last() *Instruction { return b.last }

// Terminator returns the block's terminator, or nil if the block is
// unterminated.
func (b *Block) Terminator() *Instruction {
	if b.last != nil && b.last.IsTerminator() {
		return b.last
	}
	return nil
}

// Preds returns the predecessor blocks.
func (b *Block) Preds() []*Block { return b.preds }

// Succs returns the successor blocks.
func (b *Block) Succs() []*Block {
	if t := b.Terminator(); t != nil {
		return t.succs
	}
	return nil
}

func (b *Block) append(in *Instruction) {
	in.block = b
	in.prev = b.last
	in.next = nil
	if b.last != nil {
		b.last.next = in
	} else {
		b.first = in
	}
	b.last = in
}

func (b *Block) insertAfter(in, pos *Instruction) {
	if pos.block != b {
		panic("ir: insertion point not in block")
	}
	in.block = b
	in.prev = pos
	in.next = pos.next
	if pos.next != nil {
		pos.next.prev = in
	} else {
		b.last = in
	}
	pos.next = in
}

func (b *Block) insertBefore(in, pos *Instruction) {
	if pos.block != b {
		panic("ir: insertion point not in block")
	}
	in.block = b
	in.next = pos
	in.prev = pos.prev
	if pos.prev != nil {
		pos.prev.next = in
	} else {
		b.first = in
	}
	pos.prev = in
}

func (b *Block) addSuccessor(s *Block) {
	s.preds = append(s.preds, b)
}
