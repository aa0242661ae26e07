// Package executor runs external programs with output capture, environment
// overrides and context cancellation. The reconcile tool uses it to drive
// the git binary for pushes.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"strings"
)

// Result holds the output of one command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Output returns stderr and stdout joined and trimmed, for error messages.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(r.Stderr) + "\n" + strings.TrimSpace(r.Stdout))
}

// Runner runs a fixed program with varying arguments.
type Runner interface {
	Run(ctx context.Context, args []string, opts ...Option) (*Result, error)
}

// Options configures command execution.
type Options struct {
	WorkingDir string

	// Env is appended to the current environment.
	Env map[string]string
}

// Option modifies Options.
type Option func(*Options)

// CommandExecutor runs program with the arguments given to Run.
type CommandExecutor struct {
	program string
	options Options
}

var _ Runner = (*CommandExecutor)(nil)

// New returns an executor for program. opts become the defaults of every Run.
func New(program string, opts ...Option) *CommandExecutor {
	c := &CommandExecutor{program: program}
	for _, opt := range opts {
		opt(&c.options)
	}
	return c
}

// Program returns the program name.
func (c *CommandExecutor) Program() string { return c.program }

// Run executes the program once. A non-zero exit is an error; the Result
// is returned either way.
func (c *CommandExecutor) Run(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	o := c.options
	o.Env = maps.Clone(o.Env)
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.CommandContext(ctx, c.program, args...)
	if o.WorkingDir != "" {
		cmd.Dir = o.WorkingDir
	}
	if len(o.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range o.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}
	return result, fmt.Errorf("%s %s: %w", c.program, strings.Join(args, " "), err)
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) { o.WorkingDir = dir }
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}
