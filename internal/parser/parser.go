// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package parser parses the textual form of OIR modules, as produced by
// the ir package's printers.
package parser

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/oir-project/oir/v1/ir"
)

// Parse parses a textual-IR module.
func Parse(src string) (*ir.Module, error) {
	p := &parser{mod: ir.NewModule()}
	if err := p.run(src); err != nil {
		return nil, err
	}
	return p.mod, nil
}

type parser struct {
	mod  *ir.Module
	line int
}

func (p *parser) errorf(format string, a ...any) error {
	return errors.Errorf("line %d: "+format, append([]any{p.line}, a...)...)
}

type line struct {
	num  int
	text string
}

func splitLines(src string) []line {
	var out []line
	for i, raw := range strings.Split(src, "\n") {
		text := raw
		if idx := strings.Index(text, "//"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, line{num: i + 1, text: text})
	}
	return out
}

func (p *parser) run(src string) error {
	lines := splitLines(src)
	for i := 0; i < len(lines); {
		p.line = lines[i].num
		sc := newScanner(lines[i].text)
		switch {
		case sc.eat("type"):
			if err := p.typeDecl(sc); err != nil {
				return err
			}
			i++
		case sc.eat("func"):
			end, err := p.funcDecl(sc, lines, i)
			if err != nil {
				return err
			}
			i = end
		default:
			return p.errorf("expected 'type' or 'func', got %q", lines[i].text)
		}
	}
	return nil
}

// typeDecl parses: type $T [attr, attr]
func (p *parser) typeDecl(sc *scanner) error {
	name, _, err := p.typeRef(sc)
	if err != nil {
		return err
	}
	t := p.mod.Type(name.Name)
	if sc.eat("[") {
		for {
			attr, err := sc.ident()
			if err != nil {
				return p.errorf("expected type attribute: %v", err)
			}
			switch attr {
			case "trivial":
				t.Attrs |= ir.Trivial
			case "moveonly":
				t.Attrs |= ir.MoveOnly
			case "union":
				t.Attrs |= ir.Union
			case "contains_union":
				t.Attrs |= ir.ContainsUnion
			case "optional":
				t.Attrs |= ir.OptionalLayout
			default:
				return p.errorf("unknown type attribute %q", attr)
			}
			if !sc.eat(",") {
				break
			}
		}
		if !sc.eat("]") {
			return p.errorf("expected ']' after type attributes")
		}
	}
	if !sc.done() {
		return p.errorf("trailing input after type declaration")
	}
	return nil
}

// typeRef parses: $T or $*T
func (p *parser) typeRef(sc *scanner) (*ir.Type, bool, error) {
	if !sc.eat("$") {
		return nil, false, p.errorf("expected type reference")
	}
	address := sc.eat("*")
	name, err := sc.ident()
	if err != nil {
		return nil, false, p.errorf("expected type name: %v", err)
	}
	return p.mod.Type(name), address, nil
}

// funcDecl parses a function from lines[start] (the header, with 'func'
// already consumed) through the closing '}'. Returns the index of the line
// after the function.
func (p *parser) funcDecl(sc *scanner, lines []line, start int) (int, error) {
	if !sc.eat("@") {
		return 0, p.errorf("expected '@' before function name")
	}
	name, err := sc.ident()
	if err != nil {
		return 0, p.errorf("expected function name: %v", err)
	}
	if !sc.eat("(") {
		return 0, p.errorf("expected '(' after function name")
	}

	type paramDecl struct {
		name    string
		typ     *ir.Type
		address bool
		conv    ir.Convention
	}
	var params []paramDecl
	if !sc.eat(")") {
		for {
			pname, err := p.valueName(sc)
			if err != nil {
				return 0, err
			}
			if !sc.eat(":") {
				return 0, p.errorf("expected ':' after parameter %%%s", pname)
			}
			typ, address, err := p.typeRef(sc)
			if err != nil {
				return 0, err
			}
			conv := ir.Owned
			if sc.eat("[") {
				conv, err = p.convention(sc)
				if err != nil {
					return 0, err
				}
				if !sc.eat("]") {
					return 0, p.errorf("expected ']' after convention")
				}
			}
			params = append(params, paramDecl{pname, typ, address, conv})
			if sc.eat(")") {
				break
			}
			if !sc.eat(",") {
				return 0, p.errorf("expected ',' or ')' in parameter list")
			}
		}
	}
	ossa := false
	if sc.eat("[") {
		tag, err := sc.ident()
		if err != nil || tag != "ossa" || !sc.eat("]") {
			return 0, p.errorf("expected '[ossa]' function tag")
		}
		ossa = true
	}
	if !sc.eat("{") || !sc.done() {
		return 0, p.errorf("expected '{' at end of function header")
	}

	fn := ir.NewFunction(name, ossa)
	p.mod.Funcs = append(p.mod.Funcs, fn)
	values := map[string]*ir.Value{}
	for _, pd := range params {
		if _, dup := values[pd.name]; dup {
			return 0, p.errorf("duplicate value name %%%s", pd.name)
		}
		values[pd.name] = fn.AddParam(pd.name, pd.typ, pd.address, pd.conv)
	}

	// Find the function body and pre-create the blocks so branches can
	// refer to labels defined later.
	end := start + 1
	for ; end < len(lines); end++ {
		if lines[end].text == "}" {
			break
		}
	}
	if end == len(lines) {
		return 0, p.errorf("missing '}' at end of function @%s", name)
	}
	body := lines[start+1 : end]

	blocks := map[string]*ir.Block{}
	for _, l := range body {
		p.line = l.num
		if !isLabelLine(l.text) {
			continue
		}
		sc := newScanner(l.text)
		label, _ := sc.ident()
		if _, dup := blocks[label]; dup {
			return 0, p.errorf("duplicate block label %s", label)
		}
		b := fn.NewBlock(label)
		blocks[label] = b
		if sc.eat("(") {
			for {
				pname, err := p.valueName(sc)
				if err != nil {
					return 0, err
				}
				if !sc.eat(":") {
					return 0, p.errorf("expected ':' after block parameter %%%s", pname)
				}
				typ, address, err := p.typeRef(sc)
				if err != nil {
					return 0, err
				}
				if _, dup := values[pname]; dup {
					return 0, p.errorf("duplicate value name %%%s", pname)
				}
				values[pname] = b.AddParam(pname, typ, address)
				if sc.eat(")") {
					break
				}
				if !sc.eat(",") {
					return 0, p.errorf("expected ',' or ')' in block parameter list")
				}
			}
		}
		if !sc.eat(":") || !sc.done() {
			return 0, p.errorf("malformed block label")
		}
	}
	if len(fn.Blocks()) == 0 {
		return 0, p.errorf("function @%s has no blocks", name)
	}

	st := &funcState{p: p, fn: fn, blocks: blocks, values: values}
	var bld *ir.Builder
	for _, l := range body {
		p.line = l.num
		if isLabelLine(l.text) {
			label := strings.TrimSpace(l.text[:strings.IndexAny(l.text, "(:")])
			bld = ir.NewBuilderAtEnd(blocks[label])
			continue
		}
		if bld == nil {
			return 0, p.errorf("instruction before first block label")
		}
		if err := st.instruction(bld, newScanner(l.text)); err != nil {
			return 0, err
		}
	}
	return end + 1, nil
}

// isLabelLine reports whether a body line is a block label, i.e. an
// identifier optionally followed by a parameter list and a colon.
func isLabelLine(text string) bool {
	sc := newScanner(text)
	if _, err := sc.ident(); err != nil {
		return false
	}
	if sc.eat("(") {
		depth := 1
		for depth > 0 {
			switch {
			case sc.eat("("):
				depth++
			case sc.eat(")"):
				depth--
			default:
				if sc.done() {
					return false
				}
				sc.skip()
			}
		}
	}
	return sc.eat(":") && sc.done()
}

func (p *parser) valueName(sc *scanner) (string, error) {
	if !sc.eat("%") {
		return "", p.errorf("expected '%%' before value name")
	}
	name, err := sc.ident()
	if err != nil {
		return "", p.errorf("expected value name: %v", err)
	}
	return name, nil
}

func (p *parser) convention(sc *scanner) (ir.Convention, error) {
	word, err := sc.ident()
	if err != nil {
		return ir.Owned, p.errorf("expected convention: %v", err)
	}
	switch word {
	case "owned":
		return ir.Owned, nil
	case "guaranteed":
		return ir.Guaranteed, nil
	case "inout":
		return ir.Inout, nil
	}
	return ir.Owned, p.errorf("unknown convention %q", word)
}

type funcState struct {
	p      *parser
	fn     *ir.Function
	blocks map[string]*ir.Block
	values map[string]*ir.Value
}

func (st *funcState) value(sc *scanner) (*ir.Value, error) {
	name, err := st.p.valueName(sc)
	if err != nil {
		return nil, err
	}
	v, ok := st.values[name]
	if !ok {
		return nil, st.p.errorf("undefined value %%%s", name)
	}
	return v, nil
}

func (st *funcState) block(sc *scanner) (*ir.Block, error) {
	label, err := sc.ident()
	if err != nil {
		return nil, st.p.errorf("expected block label: %v", err)
	}
	b, ok := st.blocks[label]
	if !ok {
		return nil, st.p.errorf("undefined block %s", label)
	}
	return b, nil
}

func (st *funcState) define(name string, in *ir.Instruction) error {
	if in.Result() == nil {
		return st.p.errorf("instruction %s has no result", in.Op())
	}
	if _, dup := st.values[name]; dup {
		return st.p.errorf("duplicate value name %%%s", name)
	}
	in.Result().SetName(name)
	st.values[name] = in.Result()
	return nil
}

// callArgs parses: (%x [conv], %y)
func (st *funcState) callArgs(sc *scanner) ([]*ir.Value, []ir.Convention, error) {
	if !sc.eat("(") {
		return nil, nil, st.p.errorf("expected '(' before call arguments")
	}
	var args []*ir.Value
	var convs []ir.Convention
	if sc.eat(")") {
		return args, convs, nil
	}
	for {
		v, err := st.value(sc)
		if err != nil {
			return nil, nil, err
		}
		conv := ir.Owned
		if sc.eat("[") {
			conv, err = st.p.convention(sc)
			if err != nil {
				return nil, nil, err
			}
			if !sc.eat("]") {
				return nil, nil, st.p.errorf("expected ']' after convention")
			}
		}
		args = append(args, v)
		convs = append(convs, conv)
		if sc.eat(")") {
			return args, convs, nil
		}
		if !sc.eat(",") {
			return nil, nil, st.p.errorf("expected ',' or ')' in call arguments")
		}
	}
}

func (st *funcState) calleeName(sc *scanner) (string, error) {
	if !sc.eat("@") {
		return "", st.p.errorf("expected '@' before callee name")
	}
	name, err := sc.ident()
	if err != nil {
		return "", st.p.errorf("expected callee name: %v", err)
	}
	return name, nil
}

func (st *funcState) instruction(bld *ir.Builder, sc *scanner) error {
	p := st.p

	var resultName string
	hasResult := false
	if sc.peekIs("%") {
		name, err := p.valueName(sc)
		if err != nil {
			return err
		}
		if !sc.eat("=") {
			return p.errorf("expected '=' after result name")
		}
		resultName, hasResult = name, true
	}

	op, err := sc.ident()
	if err != nil {
		return p.errorf("expected instruction: %v", err)
	}

	var in *ir.Instruction
	switch op {
	case "alloc_stack":
		t, address, err := p.typeRef(sc)
		if err != nil {
			return err
		}
		if address {
			return p.errorf("alloc_stack takes an object type")
		}
		lexical, dynamic := false, false
		for sc.eat("[") {
			word, err := sc.ident()
			if err != nil {
				return p.errorf("expected alloc_stack attribute: %v", err)
			}
			switch word {
			case "lexical":
				lexical = true
			case "dynamic_lifetime":
				dynamic = true
			default:
				return p.errorf("unknown alloc_stack attribute %q", word)
			}
			if !sc.eat("]") {
				return p.errorf("expected ']' after alloc_stack attribute")
			}
		}
		in = bld.AllocStack(t, lexical, dynamic)

	case "copy_addr":
		take := sc.eatBracketed("take")
		src, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat("to") {
			return p.errorf("expected 'to' in copy_addr")
		}
		initialize := sc.eatBracketed("init")
		dest, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.CopyAddr(src, dest, take, initialize)

	case "store":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat("to") {
			return p.errorf("expected 'to' in store")
		}
		if !sc.eat("[") {
			return p.errorf("expected store qualifier")
		}
		word, err := sc.ident()
		if err != nil {
			return p.errorf("expected store qualifier: %v", err)
		}
		var kind ir.StoreKind
		switch word {
		case "init":
			kind = ir.StoreInit
		case "assign":
			kind = ir.StoreAssign
		case "trivial":
			kind = ir.StoreTrivial
		default:
			return p.errorf("unknown store qualifier %q", word)
		}
		if !sc.eat("]") {
			return p.errorf("expected ']' after store qualifier")
		}
		dest, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.Store(v, dest, kind)

	case "load":
		if !sc.eat("[") {
			return p.errorf("expected load qualifier")
		}
		word, err := sc.ident()
		if err != nil {
			return p.errorf("expected load qualifier: %v", err)
		}
		var kind ir.LoadKind
		switch word {
		case "take":
			kind = ir.LoadTake
		case "copy":
			kind = ir.LoadCopy
		case "trivial":
			kind = ir.LoadTrivial
		default:
			return p.errorf("unknown load qualifier %q", word)
		}
		if !sc.eat("]") {
			return p.errorf("expected ']' after load qualifier")
		}
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.Load(addr, kind)

	case "load_borrow":
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.LoadBorrow(addr)

	case "end_borrow":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.EndBorrow(v)

	case "begin_access":
		if !sc.eat("[") {
			return p.errorf("expected access kind")
		}
		word, err := sc.ident()
		if err != nil {
			return p.errorf("expected access kind: %v", err)
		}
		var kind ir.AccessKind
		switch word {
		case "read":
			kind = ir.AccessRead
		case "modify":
			kind = ir.AccessModify
		default:
			return p.errorf("unknown access kind %q", word)
		}
		if !sc.eat("]") {
			return p.errorf("expected ']' after access kind")
		}
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.BeginAccess(addr, kind)

	case "end_access":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		if v.Def() == nil || v.Def().Op() != ir.BeginAccess {
			return p.errorf("end_access operand must be a begin_access result")
		}
		in = bld.EndAccess(v)

	case "destroy_addr":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.DestroyAddr(v)

	case "dealloc_stack":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.DeallocStack(v)

	case "field_addr", "index_addr":
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat(",") {
			return p.errorf("expected ',' before %s index", op)
		}
		idx, err := sc.integer()
		if err != nil {
			return p.errorf("expected %s index: %v", op, err)
		}
		if !sc.eat(":") {
			return p.errorf("expected ':' before %s result type", op)
		}
		t, address, err := p.typeRef(sc)
		if err != nil {
			return err
		}
		if !address {
			return p.errorf("%s result must be an address type", op)
		}
		if op == "field_addr" {
			in = bld.FieldAddr(addr, idx, t)
		} else {
			in = bld.IndexAddr(addr, idx, t)
		}

	case "addr_cast":
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat(":") {
			return p.errorf("expected ':' before addr_cast result type")
		}
		t, address, err := p.typeRef(sc)
		if err != nil {
			return err
		}
		if !address {
			return p.errorf("addr_cast result must be an address type")
		}
		in = bld.AddrCast(addr, t)

	case "open_union_addr":
		if !sc.eat("[") {
			return p.errorf("expected open_union_addr access mode")
		}
		word, err := sc.ident()
		if err != nil {
			return p.errorf("expected access mode: %v", err)
		}
		var immutable bool
		switch word {
		case "immutable":
			immutable = true
		case "mutable":
		default:
			return p.errorf("unknown access mode %q", word)
		}
		if !sc.eat("]") {
			return p.errorf("expected ']' after access mode")
		}
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat(":") {
			return p.errorf("expected ':' before result type")
		}
		t, address, err := p.typeRef(sc)
		if err != nil {
			return err
		}
		if !address {
			return p.errorf("open_union_addr result must be an address type")
		}
		in = bld.OpenUnionAddr(addr, immutable, t)

	case "union_data_addr":
		addr, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat(":") {
			return p.errorf("expected ':' before result type")
		}
		t, address, err := p.typeRef(sc)
		if err != nil {
			return err
		}
		if !address {
			return p.errorf("union_data_addr result must be an address type")
		}
		in = bld.UnionDataAddr(addr, t)

	case "apply":
		callee, err := st.calleeName(sc)
		if err != nil {
			return err
		}
		args, convs, err := st.callArgs(sc)
		if err != nil {
			return err
		}
		var rt *ir.Type
		if hasResult {
			if !sc.eat(":") {
				return p.errorf("expected ':' before apply result type")
			}
			t, address, err := p.typeRef(sc)
			if err != nil {
				return err
			}
			if address {
				return p.errorf("apply result must be an object type")
			}
			rt = t
		}
		in = bld.Apply(callee, rt, args, convs)

	case "begin_apply":
		callee, err := st.calleeName(sc)
		if err != nil {
			return err
		}
		args, convs, err := st.callArgs(sc)
		if err != nil {
			return err
		}
		in = bld.BeginApply(callee, args, convs)

	case "end_apply", "abort_apply":
		tok, err := st.value(sc)
		if err != nil {
			return err
		}
		if tok.Def() == nil || tok.Def().Op() != ir.BeginApply {
			return p.errorf("%s operand must be a begin_apply token", op)
		}
		if op == "end_apply" {
			in = bld.EndApply(tok)
		} else {
			in = bld.AbortApply(tok)
		}

	case "partial_apply":
		onStack := sc.eatBracketed("on_stack")
		callee, err := st.calleeName(sc)
		if err != nil {
			return err
		}
		args, convs, err := st.callArgs(sc)
		if err != nil {
			return err
		}
		if !sc.eat(":") {
			return p.errorf("expected ':' before partial_apply result type")
		}
		t, address, err := p.typeRef(sc)
		if err != nil {
			return err
		}
		if address {
			return p.errorf("partial_apply result must be an object type")
		}
		in = bld.PartialApply(callee, onStack, t, args, convs)

	case "mark_dependence":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat("on") {
			return p.errorf("expected 'on' in mark_dependence")
		}
		base, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.MarkDependence(v, base)

	case "fix_lifetime":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.FixLifetime(v)

	case "copy_value":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.CopyValue(v)

	case "destroy_value":
		v, err := st.value(sc)
		if err != nil {
			return err
		}
		in = bld.DestroyValue(v)

	case "return":
		var v *ir.Value
		if !sc.done() {
			v, err = st.value(sc)
			if err != nil {
				return err
			}
		}
		in = bld.Return(v)

	case "br":
		target, err := st.block(sc)
		if err != nil {
			return err
		}
		var args []*ir.Value
		if sc.eat("(") {
			for {
				v, err := st.value(sc)
				if err != nil {
					return err
				}
				args = append(args, v)
				if sc.eat(")") {
					break
				}
				if !sc.eat(",") {
					return p.errorf("expected ',' or ')' in branch arguments")
				}
			}
		}
		in = bld.Branch(target, args...)

	case "cond_br":
		cond, err := st.value(sc)
		if err != nil {
			return err
		}
		if !sc.eat(",") {
			return p.errorf("expected ',' after cond_br condition")
		}
		onTrue, err := st.block(sc)
		if err != nil {
			return err
		}
		if !sc.eat(",") {
			return p.errorf("expected ',' between cond_br targets")
		}
		onFalse, err := st.block(sc)
		if err != nil {
			return err
		}
		in = bld.CondBranch(cond, onTrue, onFalse)

	case "yield":
		var args []*ir.Value
		var convs []ir.Convention
		for {
			v, err := st.value(sc)
			if err != nil {
				return err
			}
			conv := ir.Owned
			if sc.eat("[") {
				conv, err = p.convention(sc)
				if err != nil {
					return err
				}
				if !sc.eat("]") {
					return p.errorf("expected ']' after convention")
				}
			}
			args = append(args, v)
			convs = append(convs, conv)
			if !sc.eat(",") {
				return p.errorf("expected ', resume' after yield operands")
			}
			if sc.eat("resume") {
				break
			}
		}
		resume, err := st.block(sc)
		if err != nil {
			return err
		}
		in = bld.Yield(args, convs, resume)

	case "unreachable":
		in = bld.Unreachable()

	default:
		return p.errorf("unknown instruction %q", op)
	}

	if !sc.done() {
		return p.errorf("trailing input after %s", op)
	}
	if hasResult {
		return st.define(resultName, in)
	}
	if in.Result() != nil {
		return p.errorf("%s result must be named", op)
	}
	return nil
}
