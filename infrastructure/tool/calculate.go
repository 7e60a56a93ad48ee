// Package tool provides the Tool Registry's built-in handlers and the
// composite registry that resolves an action type to a built-in or a
// database-declared tool.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	dtool "github.com/felixgeelhaar/agent-go/domain/tool"
)

// calculateInput is the input shape for the calculate built-in.
type calculateInput struct {
	Expression string `json:"expression"`
}

// Calculate builds the built-in `calculate` tool: it evaluates a
// mathematical expression through a small recursive-descent parser over
// `+ - * / ( )` and numeric literals, never exposing a host-language
// evaluator (no exec/eval of arbitrary code).
func Calculate() dtool.Tool {
	return dtool.NewBuilder("calculate").
		WithDescription("Evaluate a mathematical expression").
		ReadOnly().
		Idempotent().
		Cacheable().
		WithInputSchema(dtool.ObjectSchema(map[string]json.RawMessage{
			"expression": json.RawMessage(`{"type":"string"}`),
		}, []string{"expression"})).
		WithHandler(func(ctx context.Context, input json.RawMessage) (dtool.Result, error) {
			var in calculateInput
			if err := json.Unmarshal(input, &in); err != nil {
				return dtool.Result{}, fmt.Errorf("calculate: %w", err)
			}
			result, err := evaluate(in.Expression)
			if err != nil {
				out, _ := json.Marshal(map[string]any{"error": err.Error(), "expression": in.Expression})
				return dtool.NewResult(out), nil
			}
			out, marshalErr := json.Marshal(map[string]any{"result": result, "expression": in.Expression})
			if marshalErr != nil {
				return dtool.Result{}, fmt.Errorf("calculate: %w", marshalErr)
			}
			return dtool.NewResult(out), nil
		}).
		MustBuild()
}

// evaluate parses and evaluates expr using a recursive-descent grammar:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := '-' unary | primary
//	primary := number | '(' expr ')'
func evaluate(expr string) (float64, error) {
	p := &exprParser{input: expr}
	p.skipSpace()
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= rhs
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			value *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			value /= rhs
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	if p.peek() == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("expected ')' at position %d", p.pos)
		}
		p.pos++
		return value, nil
	}
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(rune(p.input[p.pos])) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at position %d", p.pos)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(p.input[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", p.input[start:p.pos], err)
	}
	return value, nil
}
