// Package dylib wraps OS dynamic library loading behind a refcounted,
// process-wide handle table.
//
// Handles are keyed by resolved absolute path: opening the same library
// twice shares one OS handle, and the library is unloaded only when the
// last Handle is closed. All open/close traffic is serialized through one
// package mutex. The underlying runtime's native-code registry is keyed
// by memory address, and a library unloaded and reloaded at the same
// address must not race a concurrent lookup, so loading is never treated
// as re-entrant.
package dylib

import (
	"path/filepath"
	"sync"

	"github.com/wippyai/host-bundles/errors"
)

// Indirection over the platform loader so refcount behavior is testable
// without a real shared object.
var (
	dlopenFn  = dlopen
	dlsymFn   = dlsym
	dlcloseFn = dlclose
)

type entry struct {
	raw  uintptr
	refs int
}

var (
	tableMu sync.Mutex
	table   = make(map[string]*entry)
)

// Handle is one reference to a loaded native library.
// Close is idempotent per Handle; the OS handle is released when the last
// reference is closed.
type Handle struct {
	path   string
	entry  *entry
	mu     sync.Mutex
	closed bool
}

// Open loads the native library at path, or shares the existing process
// handle if it is already loaded.
func Open(path string) (*Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "resolve library path")
	}

	tableMu.Lock()
	defer tableMu.Unlock()

	e, ok := table[abs]
	if !ok {
		raw, err := dlopenFn(abs)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindLoad).
				Path(abs).
				Cause(err).
				Detail("dlopen").
				Build()
		}
		e = &entry{raw: raw}
		table[abs] = e
	}
	e.refs++

	return &Handle{path: abs, entry: e}, nil
}

// Path returns the resolved absolute path the handle was opened from.
func (h *Handle) Path() string {
	return h.path
}

// Sym resolves a symbol address by name.
func (h *Handle) Sym(name string) (uintptr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path(h.path).
			Detail("symbol lookup on closed handle").
			Build()
	}

	addr, err := dlsymFn(h.entry.raw, name)
	if err != nil {
		return 0, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Path(h.path).
			Cause(err).
			Detail("symbol %q not found", name).
			Build()
	}
	return addr, nil
}

// Close releases this reference. The library is unloaded when the last
// reference is released; platform unload semantics apply.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	tableMu.Lock()
	defer tableMu.Unlock()

	h.entry.refs--
	if h.entry.refs > 0 {
		return nil
	}
	delete(table, h.path)

	if err := dlcloseFn(h.entry.raw); err != nil {
		return errors.New(errors.PhaseLoad, errors.KindLoad).
			Path(h.path).
			Cause(err).
			Detail("dlclose").
			Build()
	}
	return nil
}

// refs reports the current reference count for a path. Test hook.
func refs(path string) int {
	tableMu.Lock()
	defer tableMu.Unlock()
	if e, ok := table[path]; ok {
		return e.refs
	}
	return 0
}
