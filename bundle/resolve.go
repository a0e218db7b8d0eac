package bundle

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/host-bundles/errors"
)

// findBundle resolves a bundle name to a directory. The manifest directory
// is tried first, then each search path in declared order; relative search
// paths are resolved against the manifest directory. First match wins.
func (m Manifest) findBundle(bundleName, manifestDir string) (string, error) {
	candidate := filepath.Join(manifestDir, bundleName)
	if isBundleDir(candidate) {
		return candidate, nil
	}

	for _, searchPath := range m.Global.SearchPaths {
		if !filepath.IsAbs(searchPath) {
			searchPath = filepath.Join(manifestDir, searchPath)
		}
		candidate := filepath.Join(searchPath, bundleName)
		if isBundleDir(candidate) {
			return candidate, nil
		}
	}

	return "", errors.Resolution(bundleName,
		"not found in search paths or relative to manifest")
}

func isBundleDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, ConfigFileName))
	return err == nil
}

// ResolveBundles resolves every host entry to a validated Bundle, in
// manifest order. manifestPath is the location the manifest was loaded
// from; relative entry and search paths resolve against its directory.
// The first entry that fails aborts the whole resolution.
func (m Manifest) ResolveBundles(manifestPath string) ([]Bundle, error) {
	manifestDir := filepath.Dir(manifestPath)

	bundles := make([]Bundle, 0, len(m.Hosts))

	for _, entry := range m.Hosts {
		switch entry.Kind() {
		case EntryBundleRef:
			bundleDir, err := m.findBundle(entry.Bundle, manifestDir)
			if err != nil {
				return nil, err
			}
			b, err := LoadFromDir(bundleDir)
			if err != nil {
				return nil, err
			}
			if b.Name() != entry.Bundle {
				Logger().Debug("bundle name differs from manifest lookup key",
					zap.String("entry", entry.Name),
					zap.String("lookup", entry.Bundle),
					zap.String("declared", b.Name()))
			}
			bundles = append(bundles, b)

		case EntryExplicit:
			b, err := synthesizeBundle(entry, manifestDir)
			if err != nil {
				return nil, err
			}
			bundles = append(bundles, b)
		}
	}

	return bundles, nil
}

// synthesizeBundle builds a Bundle for an explicit entry. The config paths
// are made absolute against the manifest directory so the bundle root does
// not matter; the root is set to the working directory only to keep it an
// absolute path.
func synthesizeBundle(entry HostEntry, manifestDir string) (Bundle, error) {
	witPath := entry.Wit
	if !filepath.IsAbs(witPath) {
		witPath = filepath.Join(manifestDir, witPath)
	}
	libPath := entry.Lib
	if !filepath.IsAbs(libPath) {
		libPath = filepath.Join(manifestDir, libPath)
	}

	if _, err := os.Stat(witPath); err != nil {
		return Bundle{}, errors.Validation(errors.PhaseResolve, entry.Name, witPath,
			"WIT path not found")
	}
	if _, err := os.Stat(libPath); err != nil {
		return Bundle{}, errors.Validation(errors.PhaseResolve, entry.Name, libPath,
			"library path not found")
	}

	root, err := os.Getwd()
	if err != nil {
		return Bundle{}, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err,
			"determine working directory")
	}

	witPath, err = filepath.Abs(witPath)
	if err != nil {
		return Bundle{}, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err,
			"resolve WIT path")
	}
	libPath, err = filepath.Abs(libPath)
	if err != nil {
		return Bundle{}, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err,
			"resolve library path")
	}

	return Bundle{
		Config: Config{
			Name: entry.Name,
			Wit:  witPath,
			Lib:  libPath,
		},
		Root: root,
	}, nil
}
