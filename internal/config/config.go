// Package config loads the optional xbuild.yaml project file.
//
// The file is decoded with yaml.v3 and checked against an embedded CUE
// schema before it is applied over the defaults, so a typo in a key is
// reported instead of silently ignored.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// DefaultFile is the project file looked up in the working directory when
// no explicit path is given.
const DefaultFile = "xbuild.yaml"

// Toolchain names the compiler program and the arguments that precede the
// per-target flags.
type Toolchain struct {
	Program string   `yaml:"program" json:"program"`
	Args    []string `yaml:"args" json:"args"`
}

// Entry holds the entry modules for each build type.
type Entry struct {
	Dev     string `yaml:"dev" json:"dev"`
	Release string `yaml:"release" json:"release"`
}

// Config is the resolved project configuration.
type Config struct {
	Binary    string    `yaml:"binary" json:"binary"`
	Dist      string    `yaml:"dist" json:"dist"`
	Toolchain Toolchain `yaml:"toolchain" json:"toolchain"`
	Entry     Entry     `yaml:"entry" json:"entry"`
	Jobs      int       `yaml:"jobs" json:"jobs"`
	History   string    `yaml:"history" json:"history"`

	// Source is the file the values were read from, empty for defaults.
	Source string `yaml:"-" json:"source,omitempty"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Binary: "denocraft",
		Dist:   "dist",
		Toolchain: Toolchain{
			Program: "deno",
			Args:    []string{"compile"},
		},
		Entry: Entry{
			Dev:     "src/dev.ts",
			Release: "src/main.ts",
		},
		Jobs:    0,
		History: ".xbuild/history.db",
	}
}

// Error reports an unreadable or invalid project file.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the project file at path. When required is false a missing
// file yields the defaults.
func Load(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return Default(), nil
		}
		return nil, &Error{Path: path, Message: "cannot read file", Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// Parse validates data against the schema and applies it over the
// defaults.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Message: "invalid YAML", Err: err}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := validate(raw); err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Message: "invalid YAML", Err: err}
	}
	return cfg, nil
}

func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return errors.New(strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}
