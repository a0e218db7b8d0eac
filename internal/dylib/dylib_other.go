//go:build !(darwin || linux || freebsd)

package dylib

import "github.com/wippyai/host-bundles/errors"

func dlopen(path string) (uintptr, error) {
	return 0, errors.Unsupported(errors.PhaseLoad, "dynamic library loading is not supported on this platform")
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return 0, errors.Unsupported(errors.PhaseLoad, "dynamic library loading is not supported on this platform")
}

func dlclose(handle uintptr) error {
	return errors.Unsupported(errors.PhaseLoad, "dynamic library loading is not supported on this platform")
}
