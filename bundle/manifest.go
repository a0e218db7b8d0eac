package bundle

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/wippyai/host-bundles/errors"
)

// Global holds manifest-wide configuration shared by all host entries.
type Global struct {
	// SearchPaths are directories searched for referenced bundles,
	// in declaration order. Earlier entries win.
	SearchPaths []string `toml:"search_paths,omitempty"`
}

// EntryKind discriminates the two host entry forms.
type EntryKind int

const (
	// EntryBundleRef references a bundle directory by name.
	EntryBundleRef EntryKind = iota

	// EntryExplicit supplies WIT and library paths directly.
	EntryExplicit
)

// HostEntry is one host declared in a manifest, either a bundle reference
// (name + bundle) or an explicit pair of paths (name + wit + lib).
// Supplying both forms on one entry is rejected at manifest load time.
type HostEntry struct {
	Name   string `toml:"name"`
	Bundle string `toml:"bundle,omitempty"`
	Wit    string `toml:"wit,omitempty"`
	Lib    string `toml:"lib,omitempty"`
}

// Kind reports which entry form this is. Only meaningful after validation.
func (e HostEntry) Kind() EntryKind {
	if e.Bundle != "" {
		return EntryBundleRef
	}
	return EntryExplicit
}

// validate rejects entries that are missing a form or mix both.
func (e HostEntry) validate() error {
	if e.Name == "" {
		return errors.InvalidInput(errors.PhaseParse, "host entry name is empty")
	}
	hasBundle := e.Bundle != ""
	hasExplicit := e.Wit != "" || e.Lib != ""
	switch {
	case hasBundle && hasExplicit:
		return errors.Conflict(errors.PhaseParse, e.Name,
			"host entry declares both a bundle reference and explicit paths")
	case hasBundle:
		return nil
	case e.Wit != "" && e.Lib != "":
		return nil
	default:
		return errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Bundle(e.Name).
			Detail("host entry must declare either bundle, or both wit and lib").
			Build()
	}
}

// Manifest is a parsed hosts.toml: shared configuration plus an ordered
// list of host entries. Entry order defines load and link order.
type Manifest struct {
	Global Global      `toml:"global,omitempty"`
	Hosts  []HostEntry `toml:"host,omitempty"`
}

// DecodeManifest parses and validates manifest content.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "decode manifest")
	}

	seen := make(map[string]bool, len(m.Hosts))
	for _, entry := range m.Hosts {
		if err := entry.validate(); err != nil {
			return Manifest{}, err
		}
		if seen[entry.Name] {
			return Manifest{}, errors.Conflict(errors.PhaseParse, entry.Name,
				"duplicate host entry name in manifest")
		}
		seen[entry.Name] = true
	}

	return m, nil
}

// LoadManifest loads a manifest from a file. It does not resolve bundle
// references; call ResolveBundles for that, so a manifest can be inspected
// without touching the filesystem beyond the manifest itself.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, errors.NotFound(errors.PhaseDiscover, "host manifest", path)
		}
		return Manifest{}, errors.New(errors.PhaseDiscover, errors.KindParse).
			Path(path).
			Cause(err).
			Detail("read manifest").
			Build()
	}

	m, err := DecodeManifest(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Path == "" {
			e.Path = path
		}
		return Manifest{}, err
	}

	return m, nil
}
