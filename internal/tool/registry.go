package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Result is the normalized output of one tool run. Output is always a JSON
// document; recoverable failures are encoded as {"error": reason} so the
// model can see and route around them.
type Result struct {
	Output string `json:"output"`
}

type Tool interface {
	Name() string
	Description() string
	Schema() []byte
	Run(ctx context.Context, args json.RawMessage) (Result, error)
}

type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool is nil")
	}
	name := strings.ToLower(strings.TrimSpace(t.Name()))
	if name == "" {
		return errors.New("tool name is empty")
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("tool %q is not registered", name)
	}
	return t, nil
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tools returns every registered tool in name order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.List() {
		out = append(out, r.tools[name])
	}
	return out
}

// Run dispatches to the named tool. An unknown tool name is an orchestration
// fault and comes back as a Go error; everything the tool itself reports is
// inside the Result payload.
func (r *Registry) Run(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, err := r.Get(name)
	if err != nil {
		return Result{}, err
	}
	return t.Run(ctx, args)
}

// errorResult encodes a recoverable failure in the shared payload contract.
func errorResult(reason string) Result {
	raw, _ := json.Marshal(map[string]string{"error": reason})
	return Result{Output: string(raw)}
}

func parseJSONArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func toJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode result"}`
	}
	return string(raw)
}
