package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/creachadair/atomicfile"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

const configHeader = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/myawesomeapp/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.marketd" by default, but could be changed via $MARKET_HOME env variable
# or --home cmd flag.

`

// EnsureRoot creates the root, config, and data directories if they don't exist.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{rootDir, filepath.Join(rootDir, defaultConfigDir), filepath.Join(rootDir, defaultDataDir)} {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return fmt.Errorf("could not create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteConfigFile encodes config as TOML and atomically replaces the
// config.toml of rootDir with it.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToFile(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToFile writes the config to the exact file specified by path. The
// file is replaced only once it is completely written.
func (cfg *Config) WriteToFile(path string) error {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err := atomicfile.WriteAll(path, &buf, 0644)
	return err
}

// ReadConfigFile decodes the TOML file at path over a default configuration.
func ReadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}
