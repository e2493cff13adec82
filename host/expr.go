// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strconv"
)

var errExprParse = errors.New("expression syntax error")

type resolver interface {
	resolveIdentifier(s string) (int64, error)
}

// Binary operators by precedence level, lowest first.
var binaryOps = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

// An exprParser evaluates integer expressions such as "$C000+3" or
// "(pc & $FF00) | $10" by recursive descent.
type exprParser struct {
	hexMode bool
	r       resolver
	t       tstring
}

func newExprParser() *exprParser {
	return &exprParser{}
}

// Parse evaluates the expression, resolving identifiers through r.
func (p *exprParser) Parse(expr string, r resolver) (int64, error) {
	p.r, p.t = r, tstring(expr)
	defer func() { p.r, p.t = nil, "" }()

	v, err := p.parseBinary(0)
	if err != nil {
		return 0, err
	}
	if p.t.consumeWhitespace() != "" {
		return 0, errExprParse
	}
	return v, nil
}

func (p *exprParser) parseBinary(level int) (int64, error) {
	if level == len(binaryOps) {
		return p.parseUnary()
	}

	a, err := p.parseBinary(level + 1)
	if err != nil {
		return 0, err
	}

	for {
		op := p.matchOp(binaryOps[level])
		if op == "" {
			return a, nil
		}
		b, err := p.parseBinary(level + 1)
		if err != nil {
			return 0, err
		}
		if a, err = eval(op, a, b); err != nil {
			return 0, err
		}
	}
}

func (p *exprParser) matchOp(ops []string) string {
	t := p.t.consumeWhitespace()
	for _, op := range ops {
		if len(t) >= len(op) && string(t[:len(op)]) == op {
			p.t = t.consume(len(op))
			return op
		}
	}
	return ""
}

func eval(op string, a, b int64) (int64, error) {
	switch op {
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "<<":
		return a << uint32(b), nil
	case ">>":
		return a >> uint32(b), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	default:
		return 0, errExprParse
	}
}

func (p *exprParser) parseUnary() (int64, error) {
	p.t = p.t.consumeWhitespace()
	if len(p.t) == 0 {
		return 0, errExprParse
	}

	switch p.t[0] {
	case '-', '~', '+':
		op := p.t[0]
		p.t = p.t.consume(1)
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '-':
			return -v, nil
		case '~':
			return ^v, nil
		}
		return v, nil

	case '(':
		p.t = p.t.consume(1)
		v, err := p.parseBinary(0)
		if err != nil {
			return 0, err
		}
		p.t = p.t.consumeWhitespace()
		if len(p.t) == 0 || p.t[0] != ')' {
			return 0, errExprParse
		}
		p.t = p.t.consume(1)
		return v, nil

	case '\'':
		if len(p.t) < 3 || p.t[2] != '\'' {
			return 0, errExprParse
		}
		v := int64(p.t[1])
		p.t = p.t.consume(3)
		return v, nil
	}

	if decimal(p.t[0]) || p.t[0] == '$' {
		return p.parseNumber()
	}
	if identifier(p.t[0]) {
		return p.parseIdentifier()
	}
	return 0, errExprParse
}

func (p *exprParser) parseNumber() (int64, error) {
	base, fn, num := 10, decimal, p.t

	if p.hexMode {
		base, fn = 16, hexadecimal
	}

	switch num[0] {
	case '$':
		base, fn, num = 16, hexadecimal, num.consume(1)

	case '0':
		if len(num) > 1 && (num[1] == 'x' || num[1] == 'b' || num[1] == 'd') {
			switch num[1] {
			case 'x':
				base, fn = 16, hexadecimal
			case 'b':
				base, fn = 2, binary
			case 'd':
				base, fn = 10, decimal
			}
			num = num.consume(2)
		}
	}

	num, remain := num.consumeWhile(fn)
	if num == "" {
		return 0, errExprParse
	}

	v, err := strconv.ParseInt(string(num), base, 64)
	if err != nil {
		return 0, errExprParse
	}

	p.t = remain
	return v, nil
}

func (p *exprParser) parseIdentifier() (int64, error) {
	id, remain := p.t.consumeWhile(identifier)

	// In hex mode, a bare run of hex digits is a number.
	if p.hexMode && id.scanWhile(hexadecimal) == len(id) {
		return p.parseNumber()
	}

	p.t = remain
	return p.r.resolveIdentifier(string(id))
}

//
// tstring
//

type tstring string

func (t tstring) consume(n int) tstring {
	return t[n:]
}

func (t tstring) consumeWhitespace() tstring {
	return t.consume(t.scanWhile(whitespace))
}

func (t tstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for ; i < len(t) && fn(t[i]); i++ {
	}
	return i
}

func (t tstring) consumeWhile(fn func(c byte) bool) (consumed, remain tstring) {
	i := t.scanWhile(fn)
	return t[:i], t[i:]
}

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func decimal(c byte) bool {
	return (c >= '0' && c <= '9')
}

func hexadecimal(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binary(c byte) bool {
	return c == '0' || c == '1'
}

func identifier(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '.'
}
