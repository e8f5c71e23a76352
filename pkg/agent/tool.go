package agent

import (
	"context"
	"errors"
	"fmt"
)

// FinishTool is the reserved action name that ends a run.
const FinishTool = "finish"

// Arg describes one tool argument.
type Arg struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Spec is the schema of a tool as shown to the model.
type Spec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Args        []Arg  `json:"args"`
	Returns     string `json:"returns,omitempty"`
}

// Tool is something the agent can call during a run.
type Tool interface {
	Spec() Spec
	Call(ctx context.Context, args map[string]any) (string, error)
}

// FuncTool adapts a function to the Tool interface.
type FuncTool struct {
	spec Spec
	fn   func(ctx context.Context, args map[string]any) (string, error)
}

// NewFuncTool creates a Tool from a spec and a function.
func NewFuncTool(spec Spec, fn func(ctx context.Context, args map[string]any) (string, error)) *FuncTool {
	return &FuncTool{spec: spec, fn: fn}
}

func (t *FuncTool) Spec() Spec { return t.spec }

func (t *FuncTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return t.fn(ctx, args)
}

// Registry holds tools in registration order.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// NewRegistry creates a Registry with the given tools. It panics on an
// invalid or duplicate tool, like MustRegister.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]Tool)}
	for _, t := range tools {
		r.MustRegister(t)
	}
	return r
}

// Register adds a tool. Names must be unique and may not be FinishTool.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("nil tool")
	}
	name := t.Spec().Name
	switch {
	case name == "":
		return errors.New("tool name is empty")
	case name == FinishTool:
		return fmt.Errorf("tool name %q is reserved", FinishTool)
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	if r.index == nil {
		r.index = make(map[string]Tool)
	}
	r.index[name] = t
	r.tools = append(r.tools, t)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Specs returns the tool specs in registration order.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, len(r.tools))
	for i, t := range r.tools {
		specs[i] = t.Spec()
	}
	return specs
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Spec().Name
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// missingArgs returns the required args of spec absent or empty in args.
func missingArgs(spec Spec, args map[string]any) []string {
	var missing []string
	for _, a := range spec.Args {
		if !a.Required {
			continue
		}
		v, ok := args[a.Name]
		if !ok || v == nil {
			missing = append(missing, a.Name)
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			missing = append(missing, a.Name)
		}
	}
	return missing
}

// StringArg returns args[name] as a string. Non-string values are
// formatted with %v.
func StringArg(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
