// Package calc implements the keypad calculator engine: a deterministic
// state machine over discrete input tokens.
package calc

import (
	"fmt"

	"github.com/Strob0t/TokenCalc/internal/domain"
)

// Operator is a binary operator pending between two operands.
type Operator string

const (
	OpAdd      Operator = "+"
	OpSubtract Operator = "-"
	OpMultiply Operator = "*"
	OpDivide   Operator = "/"
	OpPower    Operator = "^"
)

// TokenKind discriminates the closed set of input tokens.
type TokenKind int

const (
	KindDigit TokenKind = iota
	KindDecimal
	KindOperator
	KindEquals
	KindClear
	KindNegate
	KindPercent
	KindSquareRoot
	KindPi
)

// Token is one discrete keypad input. Digit carries the digit rune for
// KindDigit; Op carries the operator for KindOperator.
type Token struct {
	Kind  TokenKind
	Digit byte
	Op    Operator
}

// ParseToken converts the wire representation of a keypad press into a
// Token. Unknown input is a validation error, not a silent no-op.
func ParseToken(s string) (Token, error) {
	switch s {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return Token{Kind: KindDigit, Digit: s[0]}, nil
	case ".":
		return Token{Kind: KindDecimal}, nil
	case "+", "-", "*", "/", "^":
		return Token{Kind: KindOperator, Op: Operator(s)}, nil
	case "=":
		return Token{Kind: KindEquals}, nil
	case "C", "c":
		return Token{Kind: KindClear}, nil
	case "+/-":
		return Token{Kind: KindNegate}, nil
	case "%":
		return Token{Kind: KindPercent}, nil
	case "sqrt", "√":
		return Token{Kind: KindSquareRoot}, nil
	case "pi", "π":
		return Token{Kind: KindPi}, nil
	}
	return Token{}, fmt.Errorf("%w: unknown input token %q", domain.ErrValidation, s)
}

// String returns the wire representation of the token.
func (t Token) String() string {
	switch t.Kind {
	case KindDigit:
		return string(t.Digit)
	case KindDecimal:
		return "."
	case KindOperator:
		return string(t.Op)
	case KindEquals:
		return "="
	case KindClear:
		return "C"
	case KindNegate:
		return "+/-"
	case KindPercent:
		return "%"
	case KindSquareRoot:
		return "sqrt"
	case KindPi:
		return "pi"
	}
	return "?"
}
