package calc

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func press(t *testing.T, s *State, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		tok, err := ParseToken(in)
		if err != nil {
			t.Fatalf("ParseToken(%q): %v", in, err)
		}
		if tok.Kind == KindEquals {
			a, op, b, ok := s.PendingEquation()
			if !ok {
				continue
			}
			s.Complete(Compute(op, a, b))
			continue
		}
		s.Apply(tok)
	}
}

func TestDigitEntry_Concatenates(t *testing.T) {
	s := NewState()
	press(t, s, "1", "2", "3")
	if s.DisplayValue != "123" {
		t.Fatalf("display = %q, want 123", s.DisplayValue)
	}
}

func TestDigitEntry_LeadingZeroReplaced(t *testing.T) {
	s := NewState()
	press(t, s, "0", "0", "7")
	if s.DisplayValue != "7" {
		t.Fatalf("display = %q, want 7", s.DisplayValue)
	}
}

func TestDecimal_AtMostOne(t *testing.T) {
	s := NewState()
	press(t, s, "1", ".", "5", ".", "2")
	if s.DisplayValue != "1.52" {
		t.Fatalf("display = %q, want 1.52", s.DisplayValue)
	}
	if strings.Count(s.DisplayValue, ".") != 1 {
		t.Fatalf("display %q has more than one decimal point", s.DisplayValue)
	}
}

func TestEquals_BinaryOperations(t *testing.T) {
	cases := []struct {
		inputs []string
		want   string
	}{
		{[]string{"7", "*", "8", "="}, "56"},
		{[]string{"1", "0", "/", "3", "="}, "3.3333333333333335"},
		{[]string{"9", "-", "1", "4", "="}, "-5"},
		{[]string{"2", "^", "1", "0", "="}, "1024"},
		{[]string{"1", ".", "5", "+", "2", ".", "5", "="}, "4"},
	}
	for _, tc := range cases {
		s := NewState()
		press(t, s, tc.inputs...)
		if s.DisplayValue != tc.want {
			t.Errorf("%v: display = %q, want %q", tc.inputs, s.DisplayValue, tc.want)
		}
	}
}

func TestOperatorChaining_LeftToRight(t *testing.T) {
	// 2 + 3 * 4 = evaluates as (2+3)*4, not 2+(3*4).
	s := NewState()
	press(t, s, "2", "+", "3", "*", "4", "=")
	if s.DisplayValue != "20" {
		t.Fatalf("display = %q, want 20", s.DisplayValue)
	}
}

func TestOperator_RepeatedWithoutSecondOperand(t *testing.T) {
	// Pressing another operator while awaiting the second operand just
	// swaps the pending operator.
	s := NewState()
	press(t, s, "5", "+", "*", "2", "=")
	if s.DisplayValue != "10" {
		t.Fatalf("display = %q, want 10", s.DisplayValue)
	}
}

func TestEquals_SeedsChainedExpression(t *testing.T) {
	s := NewState()
	press(t, s, "2", "+", "3", "=")
	if !s.AwaitingSecond {
		t.Fatal("AwaitingSecond should be true after equals")
	}
	// The result seeds the next expression: typing a digit replaces it.
	press(t, s, "9")
	if s.DisplayValue != "9" {
		t.Fatalf("display = %q, want 9", s.DisplayValue)
	}
	// But an operator uses it as first operand.
	s2 := NewState()
	press(t, s2, "2", "+", "3", "=", "*", "4", "=")
	if s2.DisplayValue != "20" {
		t.Fatalf("display = %q, want 20", s2.DisplayValue)
	}
}

func TestNegate(t *testing.T) {
	s := NewState()
	press(t, s, "4", "2", "+/-")
	if s.DisplayValue != "-42" {
		t.Fatalf("display = %q, want -42", s.DisplayValue)
	}
}

func TestPercent_BecomesFreshOperand(t *testing.T) {
	s := NewState()
	press(t, s, "5", "0", "%")
	if s.DisplayValue != "0.5" {
		t.Fatalf("display = %q, want 0.5", s.DisplayValue)
	}
	if !s.AwaitingSecond {
		t.Fatal("AwaitingSecond should be true after percent")
	}
}

func TestSquareRoot(t *testing.T) {
	s := NewState()
	press(t, s, "1", "4", "4", "sqrt")
	if s.DisplayValue != "12" {
		t.Fatalf("display = %q, want 12", s.DisplayValue)
	}
}

func TestSquareRoot_NegativeYieldsNaN(t *testing.T) {
	s := NewState()
	press(t, s, "4", "+/-", "sqrt")
	if s.DisplayValue != "NaN" {
		t.Fatalf("display = %q, want NaN", s.DisplayValue)
	}
}

func TestPi(t *testing.T) {
	s := NewState()
	press(t, s, "pi")
	if s.DisplayValue != "3.141592653589793" {
		t.Fatalf("display = %q", s.DisplayValue)
	}
}

func TestDivisionByZero_DisplaysInf(t *testing.T) {
	s := NewState()
	press(t, s, "1", "/", "0", "=")
	if s.DisplayValue != "+Inf" {
		t.Fatalf("display = %q, want +Inf", s.DisplayValue)
	}
}

func TestState_NonFiniteOperandSurvivesJSON(t *testing.T) {
	s := NewState()
	press(t, s, "1", "/", "0", "=", "+")
	if s.FirstOperand == nil || !math.IsInf(*s.FirstOperand, 1) {
		t.Fatalf("first operand = %v, want +Inf", s.FirstOperand)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal state with +Inf operand: %v", err)
	}
	if !strings.Contains(string(data), `"first_operand":"+Inf"`) {
		t.Fatalf("encoded state = %s, want first_operand as string", data)
	}

	var back State
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if back.FirstOperand == nil || !math.IsInf(*back.FirstOperand, 1) {
		t.Fatalf("round-tripped first operand = %v, want +Inf", back.FirstOperand)
	}

	s = NewState()
	press(t, s, "1", "+/-", "sqrt", "+")
	data, err = json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal state with NaN operand: %v", err)
	}
	if !strings.Contains(string(data), `"first_operand":"NaN"`) {
		t.Fatalf("encoded state = %s, want first_operand NaN as string", data)
	}
}

func TestClear_RestoresInitialState(t *testing.T) {
	s := NewState()
	press(t, s, "1", "2", "+", "3", "sqrt", "C")
	want := NewState()
	if s.DisplayValue != want.DisplayValue ||
		s.FirstOperand != nil || s.PendingOp != nil ||
		s.AwaitingSecond || s.ExpressionPreview != "" {
		t.Fatalf("state after clear = %+v, want initial", s)
	}
}

func TestExpressionPreview(t *testing.T) {
	s := NewState()
	press(t, s, "1", "2", "+")
	if s.ExpressionPreview != "12 +" {
		t.Fatalf("preview = %q, want %q", s.ExpressionPreview, "12 +")
	}
	press(t, s, "3", "=")
	if s.ExpressionPreview != "12 + 3 =" {
		t.Fatalf("preview = %q, want %q", s.ExpressionPreview, "12 + 3 =")
	}
}

func TestPreviewCost_UsesPendingOperands(t *testing.T) {
	price := func(a, b float64) int64 {
		if a > b {
			return int64(a)
		}
		return int64(b)
	}
	s := NewState()
	if got := s.PreviewCost(price); got != 0 {
		t.Fatalf("idle preview cost = %d, want 0", got)
	}
	press(t, s, "7", "+", "9")
	if got := s.PreviewCost(price); got != 9 {
		t.Fatalf("preview cost = %d, want 9", got)
	}
}

func TestParseToken_Unknown(t *testing.T) {
	if _, err := ParseToken("x"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}
