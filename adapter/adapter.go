package adapter

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/host-bundles/bundle"
	"github.com/wippyai/host-bundles/errors"
	"github.com/wippyai/host-bundles/internal/dylib"
)

// libHandle is the slice of dylib.Handle the adapter needs.
// Indirected through openLibrary so load behavior is testable without a
// real shared object.
type libHandle interface {
	Sym(name string) (uintptr, error)
	Close() error
}

var openLibrary = func(path string) (libHandle, error) {
	return dylib.Open(path)
}

// Adapter is the loaded, in-process representation of a host bundle:
// the bundle descriptor plus a live handle to its native library.
type Adapter struct {
	bundle bundle.Bundle
	handle libHandle

	ops     []Operation
	opsErr  error
	opsOnce sync.Once
}

// Load validates a resolved bundle's paths and loads its native library.
// Path existence is re-checked here: a bundle may have been resolved long
// before loading, and the filesystem may have changed in between.
func Load(b bundle.Bundle) (*Adapter, error) {
	libPath := b.LibPath()
	witPath := b.WitPath()

	if _, err := os.Stat(libPath); err != nil {
		return nil, errors.Validation(errors.PhaseLoad, b.Name(), libPath,
			"native library not found")
	}
	if _, err := os.Stat(witPath); err != nil {
		return nil, errors.Validation(errors.PhaseLoad, b.Name(), witPath,
			"WIT definitions not found")
	}

	handle, err := openLibrary(libPath)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Bundle == "" {
			e.Bundle = b.Name()
		}
		return nil, err
	}

	Logger().Info("loaded host library",
		zap.String("bundle", b.Name()),
		zap.String("lib", libPath),
		zap.String("wit", witPath))

	return &Adapter{bundle: b, handle: handle}, nil
}

// Bundle returns the descriptor this adapter was loaded from.
func (a *Adapter) Bundle() bundle.Bundle {
	return a.bundle
}

// Name returns the host name.
func (a *Adapter) Name() string {
	return a.bundle.Name()
}

// WitPath returns the path to the adapter's WIT definitions.
func (a *Adapter) WitPath() string {
	return a.bundle.WitPath()
}

// Sym resolves a symbol address in the adapter's native library.
func (a *Adapter) Sym(name string) (uintptr, error) {
	return a.handle.Sym(name)
}

// Operations returns the operations declared by the adapter's interface
// description. The WIT text is parsed lazily on first call.
func (a *Adapter) Operations() ([]Operation, error) {
	a.opsOnce.Do(func() {
		a.ops, a.opsErr = parseWitOperations(a.bundle.WitPath())
		if a.opsErr != nil {
			if e, ok := a.opsErr.(*errors.Error); ok && e.Bundle == "" {
				e.Bundle = a.Name()
			}
		}
	})
	return a.ops, a.opsErr
}

// Describe parses the operations a bundle declares without loading its
// native library. Inspection tools use this to show what a bundle would
// contribute before trusting it enough to load.
func Describe(b bundle.Bundle) ([]Operation, error) {
	ops, err := parseWitOperations(b.WitPath())
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Bundle == "" {
			e.Bundle = b.Name()
		}
		return nil, err
	}
	return ops, nil
}

// ProbeResult reports whether one declared operation has a matching
// native symbol in the loaded library.
type ProbeResult struct {
	Op     Operation
	Symbol string
	Found  bool
}

// Probe checks each declared operation against the library's exported
// symbols, using the flat C naming convention (see Operation.Symbol).
func (a *Adapter) Probe() ([]ProbeResult, error) {
	ops, err := a.Operations()
	if err != nil {
		return nil, err
	}

	results := make([]ProbeResult, 0, len(ops))
	for _, op := range ops {
		sym := op.Symbol()
		_, err := a.handle.Sym(sym)
		results = append(results, ProbeResult{
			Op:     op,
			Symbol: sym,
			Found:  err == nil,
		})
	}
	return results, nil
}

// Close releases the adapter's library handle. The library is unloaded
// when no other adapter shares it. Idempotent.
func (a *Adapter) Close() error {
	return a.handle.Close()
}
