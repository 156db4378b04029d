// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package analysis

import "github.com/oir-project/oir/v1/ir"

// DomTree is the dominator tree of a function. It is built once per
// function and answers dominance queries in O(tree depth).
type DomTree struct {
	idom  map[*ir.Block]*ir.Block
	order map[*ir.Block]int // reverse postorder numbering
}

// NewDomTree builds the dominator tree with the iterative algorithm of
// Cooper, Harvey, and Kennedy.
func NewDomTree(f *ir.Function) *DomTree {
	entry := f.Entry()
	rpo := reversePostorder(entry)
	order := make(map[*ir.Block]int, len(rpo))
	for i, b := range rpo {
		order[b] = i
	}

	idom := map[*ir.Block]*ir.Block{entry: entry}
	intersect := func(a, b *ir.Block) *ir.Block {
		for a != b {
			for order[a] > order[b] {
				a = idom[a]
			}
			for order[b] > order[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var newIDom *ir.Block
			for _, p := range b.Preds() {
				if idom[p] == nil {
					continue
				}
				if newIDom == nil {
					newIDom = p
				} else {
					newIDom = intersect(p, newIDom)
				}
			}
			if newIDom != nil && idom[b] != newIDom {
				idom[b] = newIDom
				changed = true
			}
		}
	}
	return &DomTree{idom: idom, order: order}
}

func reversePostorder(entry *ir.Block) []*ir.Block {
	var post []*ir.Block
	seen := map[*ir.Block]bool{}
	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		if seen[b] {
			return
		}
		seen[b] = true
		for _, s := range b.Succs() {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// IDom returns the immediate dominator of b. The entry block is its own
// immediate dominator.
func (d *DomTree) IDom(b *ir.Block) *ir.Block { return d.idom[b] }

// Dominates reports whether a dominates b. A block dominates itself.
func (d *DomTree) Dominates(a, b *ir.Block) bool {
	if _, reachable := d.idom[b]; !reachable {
		return false
	}
	for {
		if a == b {
			return true
		}
		next := d.idom[b]
		if next == b {
			return false // reached the entry
		}
		b = next
	}
}
