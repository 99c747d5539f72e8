// Package config loads weave.yaml, the project configuration read by the CLI.
//
//	prefix: t
//	component_namespace: x
//	suggest_distance: 2
//	format: json
//	digest: true
//	include: ["*.weave.html", "emails/*.weave.html"]
//	requires: "0.1"
//
// The file is validated against an embedded JSON Schema before it is decoded.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/weave/core/compiler"
	"github.com/aledsdavies/weave/core/invariant"
)

// EnvVar names a config file, overriding the upward search.
const EnvVar = "WEAVE_CONFIG"

// FileNames are searched for, in order, in each directory.
var FileNames = []string{"weave.yaml", "weave.yml"}

// DefaultInclude selects templates when the config names none.
var DefaultInclude = []string{"*.weave.html"}

//go:embed schema.json
var schemaJSON []byte

// Config is a decoded weave.yaml.
type Config struct {
	// Path is the file the config came from; empty for defaults.
	Path string `yaml:"-"`

	Prefix             string   `yaml:"prefix"`
	ComponentNamespace string   `yaml:"component_namespace"`
	SuggestDistance    *int     `yaml:"suggest_distance"`
	Format             string   `yaml:"format"`
	Digest             bool     `yaml:"digest"`
	Include            []string `yaml:"include"`
	Requires           string   `yaml:"requires"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{Format: "text", Include: append([]string(nil), DefaultInclude...)}
}

// Parse validates and decodes YAML config data.
func Parse(data []byte) (*Config, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	doc, err := toJSON(raw)
	if err != nil {
		return nil, err
	}

	if err := compiledSchema().Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if len(cfg.Include) == 0 {
		cfg.Include = append([]string(nil), DefaultInclude...)
	}
	return cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Find searches dir and its parents for a config file. It returns "" when
// none exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve loads the config named by explicit, then by $WEAVE_CONFIG, then
// the first one found from dir upward. Without any it returns Default.
func Resolve(explicit, dir string) (*Config, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		found, err := Find(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// CheckVersion fails when the config requires a newer compiler than
// version.
func (c *Config) CheckVersion(version string) error {
	if c.Requires == "" {
		return nil
	}
	want, have := canonical(c.Requires), canonical(version)
	if !semver.IsValid(have) {
		return fmt.Errorf("invalid compiler version %q", version)
	}
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("%s requires weave %s or newer, running %s", c.source(), c.Requires, version)
	}
	return nil
}

// CompilerOptions translates the config into compiler options.
func (c *Config) CompilerOptions() []compiler.Option {
	var opts []compiler.Option
	if c.Prefix != "" {
		opts = append(opts, compiler.WithPrefix(c.Prefix))
	}
	if c.ComponentNamespace != "" {
		opts = append(opts, compiler.WithComponentNamespace(c.ComponentNamespace))
	}
	if c.SuggestDistance != nil {
		opts = append(opts, compiler.WithSuggestDistance(*c.SuggestDistance))
	}
	return opts
}

// Dir is the directory include patterns are relative to.
func (c *Config) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// Templates lists the files under root matching the include patterns.
// Patterns with a slash match the path relative to root; others match the
// base name at any depth.
func (c *Config) Templates(root string) ([]string, error) {
	include := c.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := Matches(include, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Matches reports whether the slash-separated relative path matches any
// pattern.
func Matches(patterns []string, rel string) (bool, error) {
	base := rel[strings.LastIndex(rel, "/")+1:]
	for _, p := range patterns {
		target := base
		if strings.Contains(p, "/") {
			target = rel
		}
		ok, err := filepath.Match(p, target)
		if err != nil {
			return false, fmt.Errorf("bad include pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Config) source() string {
	if c.Path == "" {
		return "config"
	}
	return c.Path
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

var (
	schemaOnce   sync.Once
	configSchema *jsonschema.Schema
)

func compiledSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		c.AssertFormat = true
		if c.Formats == nil {
			c.Formats = make(map[string]func(interface{}) bool)
		}
		c.Formats["semver"] = func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true
			}
			return semver.IsValid(canonical(s))
		}

		const url = "weave://config.schema.json"
		invariant.ExpectNoError(c.AddResource(url, bytes.NewReader(schemaJSON)), "adding the embedded config schema")
		s, err := c.Compile(url)
		invariant.ExpectNoError(err, "compiling the embedded config schema")
		configSchema = s
	})
	return configSchema
}

// toJSON converts decoded YAML into the value shapes the schema validator
// expects.
func toJSON(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("config is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
