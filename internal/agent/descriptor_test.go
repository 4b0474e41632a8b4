package agent

import (
	"context"
	"testing"
)

func TestToolboxRejectsDuplicates(t *testing.T) {
	td := ToolDescriptor{Name: "x", Call: func(context.Context, map[string]any) (string, error) { return "", nil }}
	if _, err := NewToolbox(td, td); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
}

func TestToolboxRejectsAnonymous(t *testing.T) {
	if _, err := NewToolbox(ToolDescriptor{Name: ""}); err == nil {
		t.Fatalf("expected rejection of nameless tool")
	}
}

func TestToolboxListKeepsRegistrationOrder(t *testing.T) {
	mk := func(name string) ToolDescriptor {
		return ToolDescriptor{Name: name, Call: func(context.Context, map[string]any) (string, error) { return "", nil }}
	}
	tb, err := NewToolbox(mk("zeta"), mk("alpha"), mk("mid"))
	if err != nil {
		t.Fatalf("NewToolbox: %v", err)
	}
	list := tb.List()
	if list[0].Name != "zeta" || list[1].Name != "alpha" || list[2].Name != "mid" {
		t.Fatalf("unexpected order: %v", list)
	}
	names := tb.Names()
	if names[0] != "alpha" || names[2] != "zeta" {
		t.Fatalf("Names not sorted: %v", names)
	}
}
