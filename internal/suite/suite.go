// Package suite loads YAML conformance suites and checks them against the
// interpreter. A case pairs a program with the output lines and diagnostics
// it must produce.
package suite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/runtime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type Suite struct {
	Path  string  `yaml:"-"`
	Name  string  `yaml:"suite"`
	Cases []*Case `yaml:"cases"`
}

type Case struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Stdout       []string `yaml:"stdout"`
	StaticErrors []string `yaml:"static_errors"`
	RuntimeError string   `yaml:"runtime_error"`
}

// Failure explains why one case did not match.
type Failure struct {
	Case   string
	Reason string
}

func (f Failure) String() string {
	return f.Case + ": " + f.Reason
}

func Load(path string) (*Suite, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("suite: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("suite: parse %s: %w", abs, err)
	}
	s.Path = abs
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	return s, nil
}

func Parse(r io.Reader) (*Suite, error) {
	var s Suite
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Suite) validate() error {
	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c == nil || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("case %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate case %q", c.Name)
		}
		seen[c.Name] = true
		if len(c.StaticErrors) > 0 && c.RuntimeError != "" {
			return fmt.Errorf("case %q expects both static and runtime errors", c.Name)
		}
		if len(c.StaticErrors) > 0 && len(c.Stdout) > 0 {
			return fmt.Errorf("case %q expects output from a program that never runs", c.Name)
		}
	}
	return nil
}

// Run executes every case on a fresh evaluator and returns the mismatches.
func (s *Suite) Run(ctx context.Context, rt *runtime.Runtime) []Failure {
	var failures []Failure
	for _, c := range s.Cases {
		res, err := rt.Run(ctx, s.Name+"/"+c.Name, c.Source, io.Discard)
		if err != nil {
			slog.Warn("suite case not journaled", slog.String("case", c.Name), slog.Any("error", err))
		}
		for _, reason := range c.check(res) {
			failures = append(failures, Failure{Case: c.Name, Reason: reason})
		}
	}
	slog.Info("suite finished",
		slog.String("suite", s.Name),
		slog.Int("cases", len(s.Cases)),
		slog.Int("failures", len(failures)))
	return failures
}

func (c *Case) check(res *runtime.Result) []string {
	var reasons []string

	want := strings.Join(c.Stdout, "\n")
	if len(c.Stdout) > 0 {
		want += "\n"
	}
	if res.Output != want {
		reasons = append(reasons, fmt.Sprintf("stdout: expected %q, got %q", want, res.Output))
	}

	var static []string
	for _, e := range res.StaticErrors {
		static = append(static, e.Error())
	}
	if !slices.Equal(static, c.StaticErrors) {
		reasons = append(reasons, fmt.Sprintf("static errors: expected %q, got %q", c.StaticErrors, static))
	}

	gotRuntime := ""
	if res.RuntimeErr != nil {
		gotRuntime = res.RuntimeErr.Error()
	}
	if gotRuntime != c.RuntimeError {
		reasons = append(reasons, fmt.Sprintf("runtime error: expected %q, got %q", c.RuntimeError, gotRuntime))
	}
	return reasons
}
