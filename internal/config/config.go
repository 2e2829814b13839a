// Package config loads the optional isolate.cue configuration file.
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
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the config file picked up from the working directory
// when no path is given.
const DefaultFile = "isolate.cue"

// Config is the validated configuration.
type Config struct {
	DB       string `json:"db"`
	Manifest string `json:"manifest"`
	LockFile string `json:"lock_file"`
	HostID   string `json:"host_id"`
	Kind     string `json:"kind"`
	LogLevel string `json:"log_level"`
	Prompt   string `json:"prompt"`
	History  int    `json:"history"`

	// Source is the file the values came from, empty for defaults.
	Source string `json:"-"`
}

// Error is a config validation error with its source position.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Default returns the schema defaults.
func Default() (Config, error) {
	return decode(nil, "")
}

// Load reads and validates the config file at path. An empty path loads
// DefaultFile if it exists and the defaults otherwise; an explicit path
// that does not exist is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default()
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return decode(data, path)
}

// Parse validates config source held in memory. name labels positions in
// errors.
func Parse(data []byte, name string) (Config, error) {
	return decode(data, name)
}

func decode(data []byte, name string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def
	if data != nil {
		file := ctx.CompileBytes(data, cue.Filename(name))
		if err := file.Err(); err != nil {
			return Config{}, convertError(err)
		}
		value = def.Unify(file)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, convertError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = name
	return cfg, nil
}

// convertError reports the first CUE error with its position.
func convertError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &Error{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
		Pos:     first.Position(),
	}
}
