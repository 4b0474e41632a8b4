package agent

import (
	"context"
	"fmt"
	"sort"
)

// ToolDescriptor declares one named operation the agent loop may invoke.
// Descriptors are immutable after registration.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
	Call        func(ctx context.Context, args map[string]any) (string, error)
}

// Toolbox is the registry the loop resolves tool calls against.
type Toolbox struct {
	byName map[string]ToolDescriptor
	order  []string
}

func NewToolbox(tools ...ToolDescriptor) (*Toolbox, error) {
	tb := &Toolbox{byName: map[string]ToolDescriptor{}}
	for _, t := range tools {
		if err := tb.add(t); err != nil {
			return nil, err
		}
	}
	return tb, nil
}

func (t *Toolbox) add(td ToolDescriptor) error {
	if td.Name == "" || td.Call == nil {
		return fmt.Errorf("tool descriptor needs a name and a call func")
	}
	if _, exists := t.byName[td.Name]; exists {
		return fmt.Errorf("duplicate tool %q", td.Name)
	}
	t.byName[td.Name] = td
	t.order = append(t.order, td.Name)
	return nil
}

func (t *Toolbox) Get(name string) (ToolDescriptor, bool) {
	td, ok := t.byName[name]
	return td, ok
}

// List returns descriptors in registration order.
func (t *Toolbox) List() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.byName[n])
	}
	return out
}

// Names returns the sorted tool names, for log lines and errors.
func (t *Toolbox) Names() []string {
	out := append([]string(nil), t.order...)
	sort.Strings(out)
	return out
}
