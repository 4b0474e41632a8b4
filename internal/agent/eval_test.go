package agent

import (
	"context"
	"testing"
)

func TestEvalExpression(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"(1500*0.25)+7", 382},
		{"10/4", 2.5},
		{"-3*2", -6},
		{"10%3", 1},
		{"((2+3)*4)-1", 19},
	}
	for _, c := range cases {
		got, err := evalExpression(c.expr)
		if err != nil {
			t.Fatalf("%s: %v", c.expr, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.expr, c.want, got)
		}
	}
}

func TestEvalExpressionRejects(t *testing.T) {
	for _, expr := range []string{"1/0", "10%0", `len("x")`, "x+1", "1<<3", `"abc"`, "not an expr ("} {
		if _, err := evalExpression(expr); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
	}
}

func TestExpressionTool(t *testing.T) {
	td := ExpressionTool()
	got, err := td.Call(context.Background(), map[string]any{"expression": "6*7"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "42" {
		t.Fatalf("expected 42, got %q", got)
	}
	if _, err := td.Call(context.Background(), map[string]any{}); err == nil {
		t.Fatalf("expected error for missing expression arg")
	}
}
