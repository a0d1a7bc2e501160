package calc

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// State holds the full calculator state for one keypad session. It is
// mutated only through Apply and Complete; Reset returns it to the
// initial state.
type State struct {
	DisplayValue      string
	FirstOperand      *float64
	PendingOp         *Operator
	AwaitingSecond    bool
	ExpressionPreview string
}

// stateJSON is the wire form of State. FirstOperand travels as a string
// because division by zero or √ of a negative makes it ±Inf or NaN, which
// encoding/json refuses to encode as a float.
type stateJSON struct {
	DisplayValue      string    `json:"display_value"`
	FirstOperand      *string   `json:"first_operand,omitempty"`
	PendingOp         *Operator `json:"pending_operator,omitempty"`
	AwaitingSecond    bool      `json:"awaiting_second_operand"`
	ExpressionPreview string    `json:"expression_preview"`
}

func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		DisplayValue:      s.DisplayValue,
		PendingOp:         s.PendingOp,
		AwaitingSecond:    s.AwaitingSecond,
		ExpressionPreview: s.ExpressionPreview,
	}
	if s.FirstOperand != nil {
		text := FormatNumber(*s.FirstOperand)
		out.FirstOperand = &text
	}
	return json.Marshal(out)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.DisplayValue = in.DisplayValue
	s.PendingOp = in.PendingOp
	s.AwaitingSecond = in.AwaitingSecond
	s.ExpressionPreview = in.ExpressionPreview
	s.FirstOperand = nil
	if in.FirstOperand != nil {
		v, err := strconv.ParseFloat(*in.FirstOperand, 64)
		if err != nil {
			return err
		}
		s.FirstOperand = &v
	}
	return nil
}

// NewState returns a calculator in its initial state.
func NewState() *State {
	return &State{DisplayValue: "0"}
}

// Reset returns the state to its initial values.
func (s *State) Reset() {
	*s = State{DisplayValue: "0"}
}

// PriceFunc prices a binary operation from its two operands. The engine
// takes it as a parameter so the pricing table stays in the billing domain.
type PriceFunc func(a, b float64) int64

// Apply processes a single input token. Equals is not handled here: the
// caller must use PendingEquation and Complete so that metering can be
// authorized before any state changes.
func (s *State) Apply(t Token) {
	switch t.Kind {
	case KindDigit:
		s.applyDigit(t.Digit)
	case KindDecimal:
		s.applyDecimal()
	case KindOperator:
		s.applyOperator(t.Op)
	case KindClear:
		s.Reset()
	case KindNegate:
		s.setDisplay(s.Value() * -1)
	case KindPercent:
		// A percent result becomes a fresh operand for chaining.
		s.setDisplay(s.Value() / 100)
		s.AwaitingSecond = true
	case KindSquareRoot:
		// Negative input yields NaN on the display, surfaced as-is.
		s.setDisplay(math.Sqrt(s.Value()))
	case KindPi:
		s.setDisplay(math.Pi)
	case KindEquals:
		// No-op: resolved by the caller via PendingEquation/Complete.
	}
}

func (s *State) applyDigit(d byte) {
	if s.AwaitingSecond {
		s.DisplayValue = string(d)
		s.AwaitingSecond = false
		return
	}
	if s.DisplayValue == "0" {
		s.DisplayValue = string(d)
		return
	}
	s.DisplayValue += string(d)
}

func (s *State) applyDecimal() {
	if s.AwaitingSecond {
		s.DisplayValue = "0."
		s.AwaitingSecond = false
		return
	}
	if !strings.Contains(s.DisplayValue, ".") {
		s.DisplayValue += "."
	}
}

func (s *State) applyOperator(op Operator) {
	current := s.Value()
	if s.PendingOp != nil && !s.AwaitingSecond && s.FirstOperand != nil {
		// Chaining: resolve the prior operation left-to-right before
		// capturing the new operator.
		result := Compute(*s.PendingOp, *s.FirstOperand, current)
		s.setDisplay(result)
		s.FirstOperand = &result
	} else {
		s.FirstOperand = &current
	}
	s.AwaitingSecond = true
	s.PendingOp = &op
	s.ExpressionPreview = s.DisplayValue + " " + string(op)
}

// PendingEquation reports the binary operation that an equals press would
// resolve. ok is false when no operator or first operand is pending.
func (s *State) PendingEquation() (a float64, op Operator, b float64, ok bool) {
	if s.PendingOp == nil || s.FirstOperand == nil {
		return 0, "", 0, false
	}
	return *s.FirstOperand, *s.PendingOp, s.Value(), true
}

// Complete finishes an authorized equals press: the result becomes the
// display value and seeds the next chained expression.
func (s *State) Complete(result float64) {
	a, op, b, ok := s.PendingEquation()
	if !ok {
		return
	}
	s.ExpressionPreview = FormatNumber(a) + " " + string(op) + " " + FormatNumber(b) + " ="
	s.setDisplay(result)
	s.FirstOperand = nil
	s.PendingOp = nil
	s.AwaitingSecond = true
}

// Value returns the numeric value of the display. A display the engine
// itself produced always parses; NaN text parses back to NaN.
func (s *State) Value() float64 {
	v, err := strconv.ParseFloat(s.DisplayValue, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (s *State) setDisplay(v float64) {
	s.DisplayValue = FormatNumber(v)
}

// PreviewCost derives the live potential cost of the pending operation
// with the current display as second operand. Zero when nothing is pending.
func (s *State) PreviewCost(price PriceFunc) int64 {
	a, _, b, ok := s.PendingEquation()
	if !ok {
		return 0
	}
	return price(a, b)
}

// Compute evaluates a single binary operation. Division by zero follows
// IEEE float semantics and is displayed as-is, not trapped.
func Compute(op Operator, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		return a / b
	case OpPower:
		return math.Pow(a, b)
	}
	return b
}

// FormatNumber renders a float with the shortest representation that
// round-trips, matching the display conventions of the keypad.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
