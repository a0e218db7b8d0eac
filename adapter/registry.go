package adapter

import (
	"go.uber.org/zap"

	"github.com/wippyai/host-bundles/bundle"
	"github.com/wippyai/host-bundles/dispatch"
	"github.com/wippyai/host-bundles/errors"
)

// Registry owns a list of loaded adapters and links them into a dispatch
// target as one batch. Adapters are linked in registration order.
// Not safe for concurrent use.
type Registry struct {
	adapters []*Adapter
	linker   Linker
}

// NewRegistry creates a registry using the given link strategy.
// A nil linker falls back to DynamicLinker, which refuses to link until
// the dynamic ABI bridge exists.
func NewRegistry(linker Linker) *Registry {
	if linker == nil {
		linker = DynamicLinker{}
	}
	return &Registry{linker: linker}
}

// Register loads a bundle's native library and appends the resulting
// adapter. Load failures propagate and nothing is appended; each Register
// call is independent, so a caller may skip a failed bundle and continue
// with the rest.
func (r *Registry) Register(b bundle.Bundle) error {
	a, err := Load(b)
	if err != nil {
		return err
	}
	r.adapters = append(r.adapters, a)
	return nil
}

// Adapters returns the registered adapters in registration order.
// The returned slice is shared; callers must not modify it.
func (r *Registry) Adapters() []*Adapter {
	return r.adapters
}

// LinkAll links every registered adapter into the target, stopping at the
// first failure. Operations contributed by earlier adapters stay in place;
// there is no rollback, since a caller seeing the error is expected to
// abort startup entirely.
func (r *Registry) LinkAll(target dispatch.Target) error {
	for _, a := range r.adapters {
		if err := r.linker.LinkAdapter(a, target); err != nil {
			return errors.New(errors.PhaseLink, errors.KindLink).
				Bundle(a.Name()).
				Cause(err).
				Detail("link adapter").
				Build()
		}
		Logger().Info("linked host adapter", zap.String("bundle", a.Name()))
	}
	return nil
}

// Close releases every adapter's library handle in reverse registration
// order. The first error is returned but all adapters are closed.
func (r *Registry) Close() error {
	var firstErr error
	for i := len(r.adapters) - 1; i >= 0; i-- {
		if err := r.adapters[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.adapters = nil
	return firstErr
}
