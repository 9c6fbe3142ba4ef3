// Package command runs external programs (make, the Fortran compilers, the interpolator
// and the Turbospectrum binaries) and captures their output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Request describes one program invocation.
type Request struct {
	// Dir is the working directory; empty means the current directory.
	Dir   string
	Name  string
	Args  []string
	Stdin io.Reader
	// Env is appended to the current environment.
	Env []string
}

// String renders the command line for log messages.
func (r Request) String() string {
	if len(r.Args) == 0 {
		return r.Name
	}
	return r.Name + " " + strings.Join(r.Args, " ")
}

// Result is the outcome of a finished process.
type Result struct {
	// ExitCode is -1 when the process could not be started or was killed.
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs external programs.
type Executor interface {
	// Run executes req and waits for it. A non-zero exit status is reported as an error
	// together with a Result carrying the exit code and captured output.
	Run(ctx context.Context, req Request) (Result, error)
}

// DefaultExecutor runs programs with os/exec.
type DefaultExecutor struct{}

// NewExecutor returns the os/exec based Executor.
func NewExecutor() Executor {
	return &DefaultExecutor{}
}

func (e *DefaultExecutor) Run(ctx context.Context, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, req.Name, req.Args...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	if req.Stdin != nil {
		cmd.Stdin = req.Stdin
	}
	if len(req.Env) > 0 {
		cmd.Env = append(cmd.Environ(), req.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s interrupted: %w", req, ctxErr)
	}
	return res, fmt.Errorf("%s failed: %w", req, err)
}

var _ Executor = (*DefaultExecutor)(nil)
