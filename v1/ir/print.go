// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"sort"
	"strings"
)

// String returns the module in textual-IR form.
func (m *Module) String() string {
	var sb strings.Builder
	names := make([]string, 0, len(m.Types))
	for name, t := range m.Types {
		if t.Attrs != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "type $%s [%s]\n", name, m.Types[name].Attrs)
	}
	if len(names) > 0 && len(m.Funcs) > 0 {
		sb.WriteByte('\n')
	}
	for i, f := range m.Funcs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.String())
	}
	return sb.String()
}

// String returns the function in textual-IR form. Values without names are
// assigned fresh numeric names in print order.
func (f *Function) String() string {
	p := newPrinter(f)
	return p.function()
}

type printer struct {
	fn    *Function
	names map[*Value]string
	taken map[string]bool
	next  int
}

func newPrinter(f *Function) *printer {
	return &printer{fn: f, names: map[*Value]string{}, taken: map[string]bool{}}
}

func (p *printer) name(v *Value) string {
	if n, ok := p.names[v]; ok {
		return "%" + n
	}
	n := v.name
	if n == "" || p.taken[n] {
		for {
			n = fmt.Sprintf("%d", p.next)
			p.next++
			if !p.taken[n] {
				break
			}
		}
	}
	p.names[v] = n
	p.taken[n] = true
	return "%" + n
}

func typeRef(t *Type, address bool) string {
	if address {
		return "$*" + t.Name
	}
	return "$" + t.Name
}

func (p *printer) function() string {
	var sb strings.Builder
	sb.WriteString("func @")
	sb.WriteString(p.fn.name)
	sb.WriteByte('(')
	for i, a := range p.fn.params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s : %s", p.name(a), typeRef(a.typ, a.address))
		if a.Ownership() != Owned {
			fmt.Fprintf(&sb, " [%s]", a.Ownership())
		}
	}
	sb.WriteByte(')')
	if p.fn.ownershipVerified {
		sb.WriteString(" [ossa]")
	}
	sb.WriteString(" {\n")
	for _, b := range p.fn.blocks {
		sb.WriteString(b.name)
		if len(b.params) > 0 {
			sb.WriteByte('(')
			for i, a := range b.params {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%s : %s", p.name(a), typeRef(a.typ, a.address))
			}
			sb.WriteByte(')')
		}
		sb.WriteString(":\n")
		for in := b.first; in != nil; in = in.next {
			sb.WriteString("  ")
			sb.WriteString(p.instruction(in))
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (p *printer) operand(in *Instruction, i int) string {
	return p.name(in.operands[i].Get())
}

func (p *printer) callArgs(in *Instruction) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, o := range in.operands {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.name(o.Get()))
		if o.conv != Owned {
			fmt.Fprintf(&sb, " [%s]", o.conv)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func (p *printer) instruction(in *Instruction) string {
	switch in.op {
	case AllocStack:
		s := fmt.Sprintf("%s = alloc_stack %s", p.name(in.result), typeRef(in.result.typ, false))
		if in.lexical {
			s += " [lexical]"
		}
		if in.dynamicLifetime {
			s += " [dynamic_lifetime]"
		}
		return s
	case CopyAddr:
		var sb strings.Builder
		sb.WriteString("copy_addr ")
		if in.take {
			sb.WriteString("[take] ")
		}
		sb.WriteString(p.operand(in, 0))
		sb.WriteString(" to ")
		if in.initialize {
			sb.WriteString("[init] ")
		}
		sb.WriteString(p.operand(in, 1))
		return sb.String()
	case Store:
		return fmt.Sprintf("store %s to [%s] %s", p.operand(in, 0), in.store, p.operand(in, 1))
	case Load:
		return fmt.Sprintf("%s = load [%s] %s", p.name(in.result), in.load, p.operand(in, 0))
	case LoadBorrow:
		return fmt.Sprintf("%s = load_borrow %s", p.name(in.result), p.operand(in, 0))
	case EndBorrow:
		return "end_borrow " + p.operand(in, 0)
	case BeginAccess:
		return fmt.Sprintf("%s = begin_access [%s] %s", p.name(in.result), in.access, p.operand(in, 0))
	case EndAccess:
		return "end_access " + p.operand(in, 0)
	case DestroyAddr:
		return "destroy_addr " + p.operand(in, 0)
	case DeallocStack:
		return "dealloc_stack " + p.operand(in, 0)
	case FieldAddr:
		return fmt.Sprintf("%s = field_addr %s, %d : %s",
			p.name(in.result), p.operand(in, 0), in.field, typeRef(in.result.typ, true))
	case IndexAddr:
		return fmt.Sprintf("%s = index_addr %s, %d : %s",
			p.name(in.result), p.operand(in, 0), in.field, typeRef(in.result.typ, true))
	case AddrCast:
		return fmt.Sprintf("%s = addr_cast %s : %s",
			p.name(in.result), p.operand(in, 0), typeRef(in.result.typ, true))
	case OpenUnionAddr:
		mode := "mutable"
		if in.immutable {
			mode = "immutable"
		}
		return fmt.Sprintf("%s = open_union_addr [%s] %s : %s",
			p.name(in.result), mode, p.operand(in, 0), typeRef(in.result.typ, true))
	case UnionDataAddr:
		return fmt.Sprintf("%s = union_data_addr %s : %s",
			p.name(in.result), p.operand(in, 0), typeRef(in.result.typ, true))
	case Apply:
		s := "apply @" + in.callee + p.callArgs(in)
		if in.result != nil {
			s = fmt.Sprintf("%s = %s : %s", p.name(in.result), s, typeRef(in.result.typ, false))
		}
		return s
	case BeginApply:
		return fmt.Sprintf("%s = begin_apply @%s%s", p.name(in.result), in.callee, p.callArgs(in))
	case EndApply:
		return "end_apply " + p.operand(in, 0)
	case AbortApply:
		return "abort_apply " + p.operand(in, 0)
	case PartialApply:
		s := "partial_apply "
		if in.onStack {
			s += "[on_stack] "
		}
		s += "@" + in.callee + p.callArgs(in)
		return fmt.Sprintf("%s = %s : %s", p.name(in.result), s, typeRef(in.result.typ, false))
	case MarkDependence:
		return fmt.Sprintf("%s = mark_dependence %s on %s",
			p.name(in.result), p.operand(in, 0), p.operand(in, 1))
	case FixLifetime:
		return "fix_lifetime " + p.operand(in, 0)
	case CopyValue:
		return fmt.Sprintf("%s = copy_value %s", p.name(in.result), p.operand(in, 0))
	case DestroyValue:
		return "destroy_value " + p.operand(in, 0)
	case Return:
		if len(in.operands) > 0 {
			return "return " + p.operand(in, 0)
		}
		return "return"
	case Branch:
		s := "br " + in.succs[0].name
		if len(in.operands) > 0 {
			args := make([]string, len(in.operands))
			for i := range in.operands {
				args[i] = p.operand(in, i)
			}
			s += "(" + strings.Join(args, ", ") + ")"
		}
		return s
	case CondBranch:
		return fmt.Sprintf("cond_br %s, %s, %s", p.operand(in, 0), in.succs[0].name, in.succs[1].name)
	case Yield:
		args := make([]string, len(in.operands))
		for i, o := range in.operands {
			args[i] = p.name(o.Get())
			if o.conv != Owned {
				args[i] += fmt.Sprintf(" [%s]", o.conv)
			}
		}
		return fmt.Sprintf("yield %s, resume %s", strings.Join(args, ", "), in.succs[0].name)
	case Unreachable:
		return "unreachable"
	}
	return in.op.String()
}

// String returns a one-line rendering of the instruction for debug output.
// Names are resolved within the containing function when possible.
func (in *Instruction) String() string {
	if f := in.Func(); f != nil {
		return newPrinter(f).instruction(in)
	}
	return in.op.String()
}
