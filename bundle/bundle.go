package bundle

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/wippyai/host-bundles/errors"
)

// ConfigFileName is the per-bundle config file expected at the bundle root.
const ConfigFileName = "host.toml"

// Config describes one host bundle as declared in host.toml.
// Lib and Wit are relative to the bundle root, except for bundles
// synthesized from explicit manifest entries, where they are absolute.
type Config struct {
	// Name of the host
	Name string `toml:"name"`

	// Lib is the path to the native library
	Lib string `toml:"lib"`

	// Wit is the path to the WIT directory or file
	Wit string `toml:"wit"`
}

// configFile is the on-disk shape of host.toml, with the host
// configuration nested under a [host] table.
type configFile struct {
	Host Config `toml:"host"`
}

// DecodeConfig parses host.toml content into a Config.
func DecodeConfig(data []byte) (Config, error) {
	var f configFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return Config{}, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "decode "+ConfigFileName)
	}
	return f.Host, nil
}

// EncodeConfig serializes a Config to host.toml content.
func EncodeConfig(c Config) ([]byte, error) {
	data, err := toml.Marshal(configFile{Host: c})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "encode "+ConfigFileName)
	}
	return data, nil
}

// Bundle is a validated host bundle rooted at a directory on disk.
// Immutable after creation.
type Bundle struct {
	// Config is the parsed bundle configuration
	Config Config

	// Root is the absolute path to the bundle root directory
	Root string
}

// LoadFromDir loads and validates a host bundle from a directory.
// The directory must contain host.toml, and the library and WIT paths it
// declares must exist relative to the directory. No side effects beyond
// filesystem reads.
func LoadFromDir(path string) (Bundle, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return Bundle{}, errors.Wrap(errors.PhaseDiscover, errors.KindInvalidInput, err, "resolve bundle path")
	}

	info, err := os.Stat(root)
	if err != nil {
		return Bundle{}, errors.NotFound(errors.PhaseDiscover, "bundle directory", root)
	}
	if !info.IsDir() {
		return Bundle{}, errors.New(errors.PhaseDiscover, errors.KindInvalidInput).
			Path(root).
			Detail("bundle path is not a directory").
			Build()
	}

	configPath := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Bundle{}, errors.NotFound(errors.PhaseDiscover, ConfigFileName, root)
		}
		return Bundle{}, errors.New(errors.PhaseDiscover, errors.KindParse).
			Path(configPath).
			Cause(err).
			Detail("read " + ConfigFileName).
			Build()
	}

	config, err := DecodeConfig(data)
	if err != nil {
		return Bundle{}, errors.New(errors.PhaseParse, errors.KindParse).
			Path(configPath).
			Cause(err).
			Detail("parse " + ConfigFileName).
			Build()
	}

	if config.Name == "" {
		return Bundle{}, errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Path(configPath).
			Detail("bundle name is empty").
			Build()
	}
	if config.Lib == "" || config.Wit == "" {
		return Bundle{}, errors.New(errors.PhaseParse, errors.KindInvalidInput).
			Bundle(config.Name).
			Path(configPath).
			Detail("lib and wit are required").
			Build()
	}

	b := Bundle{Config: config, Root: root}

	if _, err := os.Stat(b.LibPath()); err != nil {
		return Bundle{}, errors.Validation(errors.PhaseDiscover, config.Name, b.LibPath(),
			"library not found (referenced in "+configPath+")")
	}
	if _, err := os.Stat(b.WitPath()); err != nil {
		return Bundle{}, errors.Validation(errors.PhaseDiscover, config.Name, b.WitPath(),
			"WIT not found (referenced in "+configPath+")")
	}

	Logger().Debug("loaded bundle",
		zap.String("name", config.Name),
		zap.String("root", root))

	return b, nil
}

// Name returns the host name declared by the bundle config.
func (b Bundle) Name() string {
	return b.Config.Name
}

// LibPath returns the absolute path to the native library.
func (b Bundle) LibPath() string {
	return b.abs(b.Config.Lib)
}

// WitPath returns the absolute path to the WIT directory or file.
func (b Bundle) WitPath() string {
	return b.abs(b.Config.Wit)
}

// Config paths from explicit manifest entries are already absolute, so
// joining against Root must be a no-op for them.
func (b Bundle) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.Root, p)
}
