// Package config provides YAML configuration parsing for sitepulse.
//
// A configuration file is an alternative to passing everything as flags.
// Command-line flags given explicitly override file values.
//
// Example configuration:
//
//	concurrency: 20
//	timeout: 3s
//	method: HEAD
//	headers:
//	  User-Agent: sitepulse/1.0
//
//	urls:
//	  - example.com
//	  - https://go.dev
//	url_file: urls.txt
//
//	grids:
//	  - name: Platform
//	    url_template: "https://{{.env}}.example.com/{{.svc}}/health"
//	    dimensions:
//	      env: [prod, staging]
//	      svc: [api, web]
//
//	output: results.csv
//	log:
//	  level: info
//	  file: sitepulse.log
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConcurrency is the number of probes in flight when none is configured.
	DefaultConcurrency = 10

	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 5 * time.Second

	// DefaultMethod is the HTTP method used when none is configured.
	DefaultMethod = "GET"

	defaultMaxBackups = 3
)

// Config is the root configuration structure for sitepulse.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML, or [Default] for
// a Config with only defaults set.
type Config struct {
	// Concurrency is the maximum number of probes in flight. Defaults to 10.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=1000"`

	// Timeout is the per-request timeout. Accepts duration strings like
	// "5s" or "750ms". Defaults to 5s.
	Timeout Duration `yaml:"timeout" validate:"gt=0"`

	// Method is the HTTP method, GET or HEAD. Defaults to GET.
	Method string `yaml:"method" validate:"oneof=GET HEAD"`

	// Headers are custom HTTP headers sent with every request.
	// Values support environment variable substitution: ${VAR} or ${VAR:-default}
	Headers map[string]string `yaml:"headers"`

	// URLs are raw inputs checked after any positional arguments.
	// Values support environment variable substitution.
	URLs []string `yaml:"urls"`

	// URLFile is a newline-delimited file of raw inputs.
	URLFile string `yaml:"url_file"`

	// Grids define URL sets that expand via cartesian product.
	Grids []GridConfig `yaml:"grids" validate:"dive"`

	// Output is the export file path. The format follows the extension.
	Output string `yaml:"output"`

	// Stream renders rows as they become available instead of after the run.
	Stream bool `yaml:"stream"`

	// NoColor disables coloured terminal output.
	NoColor bool `yaml:"no_color"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`
}

// GridConfig defines a URL grid that expands via cartesian product.
//
// For example, with dimensions {env: [prod, staging], svc: [api, web]},
// the grid expands to 4 URLs: prod/api, prod/web, staging/api, staging/web.
type GridConfig struct {
	// Name identifies the grid in error messages.
	Name string `yaml:"name" validate:"required"`

	// URLTemplate is a Go template for generating URLs.
	// Dimension keys are available as template variables: {{.env}}, {{.svc}}
	// Supports environment variable substitution in the template.
	URLTemplate string `yaml:"url_template" validate:"required"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions" validate:"required,min=1"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Defaults to warn.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is console or json. Defaults to console.
	Format string `yaml:"format" validate:"oneof=console json"`

	// File, if set, receives log output with size-based rotation.
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the log file is rotated. Defaults to 10.
	MaxSizeMB int `yaml:"max_size_mb" validate:"min=1"`

	// MaxBackups is the number of rotated files kept. Defaults to 3.
	// 0 keeps every rotated file.
	MaxBackups *int `yaml:"max_backups" validate:"omitempty,min=0"`
}

// Backups returns the number of rotated log files to keep.
func (l LogConfig) Backups() int {
	if l.MaxBackups == nil {
		return defaultMaxBackups
	}
	return *l.MaxBackups
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with every default applied and nothing to check.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Unknown fields are rejected. Environment variables are expanded in URLs,
// URL templates, header values and the URL file path. Defaults are applied
// for every unset field before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// an empty document decodes to all defaults
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.Method == "" {
		c.Method = DefaultMethod
	}
	c.Method = strings.ToUpper(c.Method)
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == nil {
		backups := defaultMaxBackups
		c.Log.MaxBackups = &backups
	}
}

// expand replaces environment variable references in string fields.
func (c *Config) expand() error {
	for i, u := range c.URLs {
		expanded, err := expandEnvVars(u)
		if err != nil {
			return fmt.Errorf("urls[%d]: %w", i, err)
		}
		c.URLs[i] = expanded
	}

	if c.URLFile != "" {
		expanded, err := expandEnvVars(c.URLFile)
		if err != nil {
			return fmt.Errorf("url_file: %w", err)
		}
		c.URLFile = expanded
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	for i := range c.Grids {
		g := &c.Grids[i]
		expanded, err := expandEnvVars(g.URLTemplate)
		if err != nil {
			return fmt.Errorf("grids[%d] (%s): url_template: %w", i, g.Name, err)
		}
		g.URLTemplate = expanded
	}

	return nil
}

// Validate checks field ranges with struct tags, then the rules tags cannot
// express: template syntax and dimension values.
//
// The first problem found is returned, prefixed with the YAML path of the
// offending field.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return fieldError(errs[0])
		}
		return err
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		// fail fast before expansion tries to use an invalid template
		if _, err := template.New("").Parse(g.URLTemplate); err != nil {
			return fmt.Errorf("grids[%d] (%s): invalid url_template: %w", i, g.Name, err)
		}

		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("grids[%d] (%s): dimension %q has no values", i, g.Name, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("grids[%d] (%s): dimension %q has duplicate value %q", i, g.Name, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}
	}

	return nil
}

// structValidator returns a validator that reports fields by their YAML names.
func structValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// fieldError turns a validator error into a message naming the YAML path.
func fieldError(fe validator.FieldError) error {
	// drop the root struct name from "Config.log.level"
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}

	var rule string
	switch fe.Tag() {
	case "required":
		rule = "is required"
	case "min":
		rule = "must be at least " + fe.Param()
	case "max":
		rule = "must be at most " + fe.Param()
	case "gt":
		rule = "must be greater than " + fe.Param()
	case "oneof":
		rule = "must be one of [" + fe.Param() + "]"
	default:
		rule = "failed rule " + fe.Tag()
	}

	return fmt.Errorf("%s %s, got %v", path, rule, fe.Value())
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
