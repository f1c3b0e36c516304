package checks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/restprobe/pkg/rest"
	"gopkg.in/yaml.v3"
)

// Package checks loads declarative REST checks from YAML/JSON files.

// Check is one request plus the status it is expected to return.
type Check struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Method   string            `json:"method" yaml:"method"`
	URL      string            `json:"url" yaml:"url"`
	Headers  map[string]string `json:"headers" yaml:"headers"`
	Data     Data              `json:"data" yaml:"data"`
	Expect   any               `json:"expect" yaml:"expect"`
	Contains string            `json:"contains" yaml:"contains"`
	Verbose  bool              `json:"verbose" yaml:"verbose"`
	Enabled  *bool             `json:"enabled" yaml:"enabled"`

	Expectation rest.Expect `json:"-" yaml:"-"`
}

type checksFile struct {
	Checks []Check `json:"checks" yaml:"checks"`
}

var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Registry holds the checks loaded from a file.
type Registry struct {
	mu     sync.RWMutex
	checks []Check
	idx    map[string]Check
}

// LoadRegistry loads checks from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("checks file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checks file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read checks file: %w", err)
	}

	parsed, err := parseChecks(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Checks)
}

// NewRegistry sanitizes and validates checks and indexes them by id.
func NewRegistry(list []Check) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("checks file contains no checks entries")
	}

	reg := &Registry{
		checks: make([]Check, len(list)),
		idx:    make(map[string]Check, len(list)),
	}
	for i := range list {
		c, err := sanitizeCheck(list[i])
		if err != nil {
			return nil, fmt.Errorf("checks[%d]: %w", i, err)
		}
		if err := validateCheck(c); err != nil {
			return nil, fmt.Errorf("checks[%d]: %w", i, err)
		}
		if _, exists := reg.idx[c.ID]; exists {
			return nil, fmt.Errorf("duplicate check id %q", c.ID)
		}
		reg.checks[i] = c
		reg.idx[c.ID] = c
	}
	return reg, nil
}

func parseChecks(data []byte, ext string) (checksFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		parsed, err := unmarshalChecks(d.name, data, d.fn)
		if err == nil {
			return parsed, nil
		}
		errs = append(errs, err)
	}

	return checksFile{}, fmt.Errorf("checks file format not recognized (expected YAML or JSON): %w", errors.Join(errs...))
}

type unmarshalFn func([]byte, any) error

func unmarshalChecks(name string, data []byte, fn unmarshalFn) (checksFile, error) {
	var f checksFile
	if err := fn(data, &f); err != nil {
		return checksFile{}, fmt.Errorf("decode %s checks: %w", name, err)
	}
	return f, nil
}

func sanitizeCheck(c Check) (Check, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	c.URL = strings.TrimSpace(c.URL)

	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	if c.Enabled == nil {
		def := true
		c.Enabled = &def
	}
	c.Headers = sanitizeHeaders(c.Headers)

	if c.Expect == nil {
		c.Expectation = rest.Code(http.StatusOK)
		return c, nil
	}
	exp, err := rest.ParseExpect(c.Expect)
	if err != nil {
		return c, fmt.Errorf("check %q expect: %w", c.ID, err)
	}
	c.Expectation = exp
	return c, nil
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateCheck(c Check) error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.URL == "" {
		return fmt.Errorf("url is required for check %q", c.ID)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("url for check %q must be http(s)", c.ID)
	}
	if _, ok := supportedMethods[c.Method]; !ok {
		return fmt.Errorf("unsupported method %q for check %q", c.Method, c.ID)
	}
	return nil
}

// ByID returns the check with the given id.
func (r *Registry) ByID(id string) (Check, bool) {
	if r == nil {
		return Check{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Check{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.idx[id]
	return c, ok
}

// All returns all configured checks in file order.
func (r *Registry) All() []Check {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Enabled returns checks that are enabled.
func (r *Registry) Enabled() []Check {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Check, 0, len(all))
	for _, c := range all {
		if c.EnabledValue() {
			out = append(out, c)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (c Check) EnabledValue() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}
