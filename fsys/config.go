package fsys

import (
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the small amount of project-level configuration the resource
// layer needs: the module file suffix, the name of the metadata folder used
// for cached databases (see sidecar.DB), and glob-style ignore patterns
// applied while walking the tree. A project with no config file gets
// sensible defaults (see withDefaults).
type Config struct {
	ModuleSuffix   string   `yaml:"module_suffix"`
	MetadataFolder string   `yaml:"metadata_folder"`
	Ignore         []string `yaml:"ignore"`
}

// DefaultConfig returns the configuration used when a project carries no
// config file.
func DefaultConfig() Config {
	return Config{
		ModuleSuffix:   ".py",
		MetadataFolder: ".pyrefdb",
		Ignore:         []string{".git", "__pycache__", "*.pyc"},
	}
}

// LoadConfig decodes a Config from YAML read from r; nothing in this module
// opens a config file for it. An io.EOF-producing (empty) reader yields a
// zero Config; Open fills empty fields with defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ModuleSuffix == "" {
		c.ModuleSuffix = d.ModuleSuffix
	}
	if c.MetadataFolder == "" {
		c.MetadataFolder = d.MetadataFolder
	}
	if c.Ignore == nil {
		c.Ignore = d.Ignore
	}
	return c
}

// isIgnored reports whether childPath (or its bare name) matches one of the
// configured ignore globs, is the metadata folder itself, or is any other
// name starting with ".".
func (c Config) isIgnored(childPath, name string) bool {
	if name == c.MetadataFolder {
		return true
	}
	for _, pattern := range c.Ignore {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
		if ok, _ := path.Match(pattern, childPath); ok {
			return true
		}
	}
	return strings.HasPrefix(name, ".") && name != "."
}
