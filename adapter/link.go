package adapter

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/host-bundles/dispatch"
	"github.com/wippyai/host-bundles/errors"
)

// Linker contributes a loaded adapter's operations, each with a declared
// signature derived from its interface description, to a dispatch target.
type Linker interface {
	LinkAdapter(a *Adapter, target dispatch.Target) error
}

// BindFunc is build-time-generated glue for one bundle: it defines the
// bundle's operations on the target, bridging each to the native library
// through the adapter.
type BindFunc func(a *Adapter, target dispatch.Target) error

// GeneratedLinker links adapters through registered per-bundle bindings.
// This is the supported linking strategy: the glue is generated (or
// hand-written) against the bundle's WIT at build time and registered
// under the bundle's declared name.
type GeneratedLinker struct {
	bindings map[string]BindFunc
	mu       sync.RWMutex
}

// NewGeneratedLinker creates a linker with no bindings.
func NewGeneratedLinker() *GeneratedLinker {
	return &GeneratedLinker{
		bindings: make(map[string]BindFunc),
	}
}

// Register installs the binding for a bundle name, replacing any previous
// binding for that name.
func (l *GeneratedLinker) Register(bundleName string, bind BindFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bindings[bundleName] = bind
}

// LinkAdapter implements Linker.
func (l *GeneratedLinker) LinkAdapter(a *Adapter, target dispatch.Target) error {
	l.mu.RLock()
	bind, ok := l.bindings[a.Name()]
	l.mu.RUnlock()

	if !ok {
		return errors.New(errors.PhaseLink, errors.KindUnsupported).
			Bundle(a.Name()).
			Detail("no generated binding registered for bundle").
			Build()
	}

	if err := bind(a, target); err != nil {
		return errors.New(errors.PhaseLink, errors.KindLink).
			Bundle(a.Name()).
			Cause(err).
			Detail("generated binding failed").
			Build()
	}

	Logger().Debug("linked adapter", zap.String("bundle", a.Name()))
	return nil
}

// DynamicLinker is the fully dynamic strategy: parse the WIT to discover
// the interface, resolve each operation's native symbol by name, and
// bridge arguments through the runtime's canonical calling convention.
// The symbol and signature halves exist (Adapter.Operations, Adapter.Probe,
// Adapter.Sym); the canonical-ABI bridge between them does not, so linking
// through this strategy reports a distinct unsupported failure rather than
// silently succeeding with nothing contributed.
type DynamicLinker struct{}

// LinkAdapter implements Linker.
func (DynamicLinker) LinkAdapter(a *Adapter, target dispatch.Target) error {
	return errors.New(errors.PhaseLink, errors.KindUnsupported).
		Bundle(a.Name()).
		Detail("dynamic WIT-to-native linking is not supported; register a generated binding instead").
		Build()
}
