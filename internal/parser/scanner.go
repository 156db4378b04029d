// Copyright 2026 The OIR Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"

	"github.com/pkg/errors"
)

// scanner is a cursor over a single line of textual IR.
type scanner struct {
	s   string
	pos int
}

func newScanner(s string) *scanner {
	return &scanner{s: s}
}

func (sc *scanner) ws() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

// done reports whether only whitespace remains.
func (sc *scanner) done() bool {
	sc.ws()
	return sc.pos == len(sc.s)
}

// skip advances one character. Used only for scanning over opaque input.
func (sc *scanner) skip() {
	if sc.pos < len(sc.s) {
		sc.pos++
	}
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// eat consumes lit if it is next. Word literals only match on a word
// boundary, so eat("to") does not consume the prefix of "token".
func (sc *scanner) eat(lit string) bool {
	sc.ws()
	if sc.pos+len(lit) > len(sc.s) || sc.s[sc.pos:sc.pos+len(lit)] != lit {
		return false
	}
	if isWordByte(lit[len(lit)-1]) {
		if next := sc.pos + len(lit); next < len(sc.s) && isWordByte(sc.s[next]) {
			return false
		}
	}
	sc.pos += len(lit)
	return true
}

// eatBracketed consumes "[word]" if it is next.
func (sc *scanner) eatBracketed(word string) bool {
	save := sc.pos
	if sc.eat("[") && sc.eat(word) && sc.eat("]") {
		return true
	}
	sc.pos = save
	return false
}

// peekIs reports whether lit is next, without consuming it.
func (sc *scanner) peekIs(lit string) bool {
	save := sc.pos
	ok := sc.eat(lit)
	sc.pos = save
	return ok
}

// ident consumes a word: letters, digits, and underscores.
func (sc *scanner) ident() (string, error) {
	sc.ws()
	start := sc.pos
	for sc.pos < len(sc.s) && isWordByte(sc.s[sc.pos]) {
		sc.pos++
	}
	if sc.pos == start {
		return "", errors.Errorf("expected identifier at column %d", start+1)
	}
	return sc.s[start:sc.pos], nil
}

// integer consumes a non-negative decimal integer.
func (sc *scanner) integer() (int, error) {
	word, err := sc.ident()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, errors.Wrapf(err, "expected integer")
	}
	return n, nil
}
