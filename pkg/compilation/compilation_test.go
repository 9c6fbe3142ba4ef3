package compilation_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/command"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/compilation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Run(ctx context.Context, req command.Request) (command.Result, error) {
	args := m.Called(req)
	return args.Get(0).(command.Result), args.Error(1)
}

func setup(t *testing.T, compiler string) (*config.Config, *mockExecutor, *compilation.Compiler) {
	t.Helper()
	root := t.TempDir()
	cfg := config.NewConfig()
	cfg.Compiler = compiler
	cfg.Paths.Turbospectrum = filepath.Join(root, "Turbospectrum_NLTE")
	cfg.Paths.Interpolator = filepath.Join(root, "interpolator")
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Paths.Turbospectrum, "exec-gf"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Paths.Turbospectrum, "exec"), 0o755))
	require.NoError(t, os.MkdirAll(cfg.Paths.Interpolator, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.Interpolator, compilation.InterpolatorSource), []byte("      end\n"), 0o644))

	exec := &mockExecutor{}
	return cfg, exec, compilation.NewCompiler(exec, nil, logger.New(&bytes.Buffer{}, logger.LevelError))
}

func TestCompileTurbospectrum_UsesCompilerExecDir(t *testing.T) {
	for _, tc := range []struct {
		compiler string
		dir      string
	}{
		{config.CompilerGfortran, "exec-gf"},
		{config.CompilerIntel, "exec"},
	} {
		t.Run(tc.compiler, func(t *testing.T) {
			cfg, exec, c := setup(t, tc.compiler)
			want := command.Request{Dir: filepath.Join(cfg.Paths.Turbospectrum, tc.dir), Name: "make"}
			exec.On("Run", want).Return(command.Result{}, nil).Once()

			require.NoError(t, c.CompileTurbospectrum(context.Background(), cfg))
			exec.AssertExpectations(t)
		})
	}
}

func TestCompileTurbospectrum_FailureCarriesExitCodeAndStderr(t *testing.T) {
	cfg, exec, c := setup(t, config.CompilerGfortran)
	exec.On("Run", mock.Anything).
		Return(command.Result{ExitCode: 2, Stderr: "bsyn.f:12: Error: syntax"}, errors.New("make failed")).Once()

	err := c.CompileTurbospectrum(context.Background(), cfg)
	require.Error(t, err)

	pe, ok := exception.As(err)
	require.True(t, ok)
	assert.Equal(t, exception.KindCompilation, pe.Kind)
	assert.Equal(t, 2, pe.ExitCode)
	assert.Equal(t, "bsyn.f:12: Error: syntax", pe.Stderr)
	assert.Contains(t, err.Error(), "(exit code 2)")
}

func TestCompileTurbospectrum_MissingDirectory(t *testing.T) {
	cfg, exec, c := setup(t, config.CompilerGfortran)
	cfg.Paths.Turbospectrum = filepath.Join(t.TempDir(), "missing")

	err := c.CompileTurbospectrum(context.Background(), cfg)
	assert.True(t, exception.IsKind(err, exception.KindCompilation))
	exec.AssertNotCalled(t, "Run", mock.Anything)
}

func TestCompileInterpolator(t *testing.T) {
	cfg, exec, c := setup(t, config.CompilerIntel)
	exec.On("Run", command.Request{
		Dir:  cfg.Paths.Interpolator,
		Name: "ifort",
		Args: []string{"-o", "interpol_modeles", "interpol_modeles.f"},
	}).Return(command.Result{}, nil).Once()

	require.NoError(t, c.CompileInterpolator(context.Background(), cfg))
	exec.AssertExpectations(t)
}

func TestCompileInterpolator_MissingSource(t *testing.T) {
	cfg, exec, c := setup(t, config.CompilerGfortran)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.Interpolator, compilation.InterpolatorSource)))

	err := c.CompileInterpolator(context.Background(), cfg)
	assert.True(t, exception.IsKind(err, exception.KindCompilation))
	assert.Contains(t, err.Error(), compilation.InterpolatorSource)
	exec.AssertNotCalled(t, "Run", mock.Anything)
}

func TestCompileInterpolator_CompilerFailure(t *testing.T) {
	cfg, exec, c := setup(t, config.CompilerGfortran)
	exec.On("Run", mock.Anything).
		Return(command.Result{ExitCode: 1, Stderr: "interpol_modeles.f:1: Error"}, errors.New("gfortran failed")).Once()

	err := c.CompileInterpolator(context.Background(), cfg)
	pe, ok := exception.As(err)
	require.True(t, ok)
	assert.Equal(t, 1, pe.ExitCode)
	assert.Equal(t, "interpol_modeles.f:1: Error", pe.Stderr)
}
