package dispatch

import (
	"sort"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/host-bundles/errors"
)

// FuncDef defines one contributed host operation: its declared WIT
// signature and, when flattened for a wazero-backed runtime, the core
// signature and handler.
type FuncDef struct {
	Name        string
	Handler     api.GoModuleFunc
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
	Params      []wit.Type
	Results     []wit.Type
}

// Target is the registration surface adapters contribute operations to.
// Implementations are supplied by the runtime; the namespace is a WIT
// interface path such as "keyvalue:store/store".
type Target interface {
	Define(namespace, name string, def *FuncDef) error
}

// Registry is an in-memory Target keyed by namespace and operation name.
// Defining the same namespace/name twice is a conflict. Safe for
// concurrent use.
type Registry struct {
	funcs map[string]map[string]*FuncDef
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]map[string]*FuncDef),
	}
}

// Define implements Target.
func (r *Registry) Define(namespace, name string, def *FuncDef) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseLink, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseLink, "operation name cannot be empty")
	}
	if def == nil {
		return errors.InvalidInput(errors.PhaseLink, "function definition cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]*FuncDef)
	}
	if _, exists := r.funcs[namespace][name]; exists {
		return errors.New(errors.PhaseLink, errors.KindConflict).
			Detail("operation %s#%s already defined", namespace, name).
			Build()
	}

	r.funcs[namespace][name] = def
	return nil
}

// Lookup returns the definition for a namespace/operation pair.
func (r *Registry) Lookup(namespace, name string) (*FuncDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.funcs[namespace][name]
	return def, ok
}

// Namespaces returns the defined namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Funcs returns the operation names defined under a namespace, sorted.
func (r *Registry) Funcs(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs[namespace]))
	for name := range r.funcs[namespace] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of defined operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, funcs := range r.funcs {
		n += len(funcs)
	}
	return n
}
