package tools

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/invopop/jsonschema"
)

// ErrUnknownTool is returned by Registry.Get for names no tool was
// registered under.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is an immutable name→tool mapping, built once at startup.
// Lookup is case-insensitive: models occasionally change the casing of
// tool names they were given.
type Registry struct {
	byName map[string]ITool
	names  []string
	defs   []llms.Tool
}

// NewRegistry validates and indexes the given tools.
// Registration fails on duplicate names and on tools without a
// parameter schema.
func NewRegistry(list ...ITool) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]ITool, len(list)),
	}
	for _, tool := range list {
		name := tool.Name()
		if name == "" {
			return nil, errors.New("tool with empty name")
		}
		key := strings.ToLower(name)
		if _, ok := r.byName[key]; ok {
			return nil, errors.Newf("duplicate tool name: %s", name)
		}
		params, ok := tool.Parameters().(*jsonschema.Schema)
		if !ok || params == nil {
			return nil, errors.Newf("tool %s: missing parameters schema", name)
		}
		r.byName[key] = tool
		r.names = append(r.names, name)
		r.defs = append(r.defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        name,
				Description: tool.Description(),
				Parameters:  params,
			},
		})
	}
	return r, nil
}

// MustRegistry is NewRegistry, panicking on invalid registration.
// Tool sets are wired at process start, so failures are programmer errors.
func MustRegistry(list ...ITool) *Registry {
	r, err := NewRegistry(list...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the tool registered under the name, or ErrUnknownTool.
func (r *Registry) Get(name string) (ITool, error) {
	tool, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownTool, "%s", name)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return r.names
}

// Definitions returns the tool definitions exposed to the LLM.
func (r *Registry) Definitions() []llms.Tool {
	return r.defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.names)
}
