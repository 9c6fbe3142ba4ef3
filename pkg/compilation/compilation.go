// Package compilation builds the external Fortran tools used by the pipeline:
// Turbospectrum and the MARCS model-atmosphere interpolator.
package compilation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/command"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/metrics"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "compilation"

// InterpolatorSource is the Fortran source of the interpolator.
const InterpolatorSource = "interpol_modeles.f"

// Compiler runs the builds through a command.Executor.
type Compiler struct {
	exec     command.Executor
	recorder metrics.MetricRecorder
	log      *logger.Logger
}

// NewCompiler creates a Compiler.
func NewCompiler(exec command.Executor, recorder metrics.MetricRecorder, log *logger.Logger) *Compiler {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Compiler{exec: exec, recorder: recorder, log: logger.OrDefault(log)}
}

// FortranCompiler returns the compiler executable for the configured toolchain.
func FortranCompiler(compiler string) string {
	if compiler == config.CompilerIntel {
		return "ifort"
	}
	return "gfortran"
}

// CompileTurbospectrum runs make in the exec directory matching the configured compiler
// (exec-gf for gfortran, exec for intel).
func (c *Compiler) CompileTurbospectrum(ctx context.Context, cfg *config.Config) error {
	dir := cfg.TurbospectrumExecDir()
	if err := requireDir(dir); err != nil {
		return exception.NewCompilationError(moduleName, "Turbospectrum build directory '"+dir+"' is not available", 0, "", err)
	}

	c.log.Infof("Compiling Turbospectrum in %s", dir)
	res, err := c.exec.Run(ctx, command.Request{Dir: dir, Name: "make"})
	c.recorder.RecordDuration(ctx, "compile_turbospectrum", res.Duration)
	if err != nil {
		return exception.NewCompilationError(moduleName, "Turbospectrum build failed in '"+dir+"'", res.ExitCode, res.Stderr, err)
	}
	c.log.Debugf("make output:\n%s", res.Stdout)
	return nil
}

// CompileInterpolator compiles interpol_modeles.f into interpol_modeles.
func (c *Compiler) CompileInterpolator(ctx context.Context, cfg *config.Config) error {
	dir := cfg.Paths.Interpolator
	if err := requireDir(dir); err != nil {
		return exception.NewCompilationError(moduleName, "interpolator directory '"+dir+"' is not available", 0, "", err)
	}
	if _, err := os.Stat(filepath.Join(dir, InterpolatorSource)); err != nil {
		return exception.NewCompilationError(moduleName, "interpolator source '"+InterpolatorSource+"' not found in '"+dir+"'", 0, "", err)
	}

	fc := FortranCompiler(cfg.Compiler)
	output := filepath.Base(cfg.InterpolatorExecutable())
	c.log.Infof("Compiling interpolator with %s in %s", fc, dir)
	res, err := c.exec.Run(ctx, command.Request{
		Dir:  dir,
		Name: fc,
		Args: []string{"-o", output, InterpolatorSource},
	})
	c.recorder.RecordDuration(ctx, "compile_interpolator", res.Duration)
	if err != nil {
		return exception.NewCompilationError(moduleName, "interpolator build failed", res.ExitCode, res.Stderr, err)
	}
	return nil
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "stat", Path: dir, Err: os.ErrInvalid}
	}
	return nil
}
