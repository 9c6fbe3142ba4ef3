// Package spectra generates one synthetic spectrum per stellar parameter set: it
// interpolates a model atmosphere, computes continuous opacities with babsyn_lu and
// synthesises the spectrum with bsyn_lu.
package spectra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/atmosphere"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/command"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/interpolation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/metrics"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "spectra"

// SpectrumExtension is the extension of a finished spectrum in the spectra directory.
const SpectrumExtension = ".spec"

// Names of the timed operations of one spectrum.
const (
	OpInterpolation = "interpolation"
	OpBabsyn        = "babsyn"
	OpBsyn          = "bsyn"
)

const maxStderrInError = 512

// Generator implements generate_all_spectra.
type Generator struct {
	exec     command.Executor
	repo     repository.RunRepository
	recorder metrics.MetricRecorder
	log      *logger.Logger
}

// NewGenerator creates a Generator. repo may be nil, in which case spectrum records
// are only sent to the recorder.
func NewGenerator(exec command.Executor, repo repository.RunRepository, recorder metrics.MetricRecorder, log *logger.Logger) *Generator {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Generator{exec: exec, repo: repo, recorder: recorder, log: logger.OrDefault(log)}
}

// job is the state shared by all spectra of one call.
type job struct {
	cfg          *config.Config
	models       []atmosphere.Model
	tmpl         *interpolation.Template
	interpolator string
	linelists    []string
	tempDir      string
	spectraDir   string
	tsRoot       string
	babsyn       string
	bsyn         string
	runID        string
}

type outcome struct {
	id  string
	err error
}

// GenerateAllSpectra produces SpectraDir/<id>.spec for every parameter set using
// run.workers concurrent workers. A failed spectrum does not stop the others; when any
// fail a GenerationError listing all failures is returned. Cancelling ctx stops the
// dispatch of parameter sets that have not started yet.
func (g *Generator) GenerateAllSpectra(ctx context.Context, cfg *config.Config, models []atmosphere.Model, params []parameters.StellarParameters) error {
	j, err := g.prepare(ctx, cfg, models)
	if err != nil {
		return err
	}

	workers := cfg.Run.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(params) {
		workers = len(params)
	}
	g.log.Infof("Generating %d spectra with %d worker(s)", len(params), workers)

	jobs := make(chan parameters.StellarParameters)
	results := make(chan outcome, len(params))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				results <- outcome{id: p.ID, err: g.generate(ctx, j, p)}
			}
		}()
	}

	dispatched := 0
dispatch:
	for _, p := range params {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- p:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var errs *multierror.Error
	failed := 0
	for r := range results {
		if r.err != nil {
			failed++
			errs = multierror.Append(errs, fmt.Errorf("spectrum %s: %w", r.id, r.err))
		}
	}

	if ctx.Err() != nil && dispatched < len(params) {
		errs = multierror.Append(errs, ctx.Err())
		return exception.Newf(exception.KindGeneration, moduleName,
			"interrupted after %d of %d spectra (%d failed)", dispatched, len(params), failed, errs.ErrorOrNil())
	}
	if failed > 0 {
		return exception.Newf(exception.KindGeneration, moduleName, "%d of %d spectra failed", failed, len(params), errs.ErrorOrNil())
	}
	g.log.Infof("All %d spectra written to %s", len(params), j.spectraDir)
	return nil
}

func (g *Generator) prepare(ctx context.Context, cfg *config.Config, models []atmosphere.Model) (*job, error) {
	linelists, err := ListLinelists(cfg.Paths.Linelists)
	if err != nil {
		return nil, err
	}
	tmpl, err := interpolation.LoadTemplate(interpolation.TemplatePath(cfg))
	if err != nil {
		return nil, err
	}

	j := &job{
		cfg:       cfg,
		models:    models,
		tmpl:      tmpl,
		linelists: linelists,
		runID:     model.RunIDFromContext(ctx),
	}
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&j.tempDir, cfg.TempDir()},
		{&j.spectraDir, cfg.SpectraDir()},
		{&j.tsRoot, cfg.Paths.Turbospectrum},
		{&j.babsyn, filepath.Join(cfg.TurbospectrumExecDir(), "babsyn_lu")},
		{&j.bsyn, filepath.Join(cfg.TurbospectrumExecDir(), "bsyn_lu")},
		{&j.interpolator, cfg.InterpolatorExecutable()},
	} {
		abs, err := filepath.Abs(p.src)
		if err != nil {
			return nil, exception.Newf(exception.KindIO, moduleName, "cannot resolve '%s'", p.src, err)
		}
		*p.dst = abs
	}
	return j, nil
}

// ListLinelists returns the absolute paths of the regular files in dir, sorted by name.
func ListLinelists(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "cannot read line list directory '%s'", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, exception.Newf(exception.KindIO, moduleName, "cannot resolve '%s'", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(abs, e.Name()))
	}
	if len(out) == 0 {
		return nil, exception.Newf(exception.KindGeneration, moduleName, "no line lists found in '%s'", dir)
	}
	sort.Strings(out)
	return out, nil
}

// generate produces one spectrum and records its outcome.
func (g *Generator) generate(ctx context.Context, j *job, p parameters.StellarParameters) error {
	start := time.Now()
	out, err := g.synthesise(ctx, j, p)
	elapsed := time.Since(start)

	rec := model.NewSpectrumRecord(j.runID, p.ID, p.Teff, p.Logg, p.FeH, out, elapsed, err)
	g.recorder.RecordSpectrum(ctx, rec)
	if g.repo != nil && j.runID != "" {
		if saveErr := g.repo.SaveSpectrum(ctx, rec); saveErr != nil {
			g.log.Warnf("Failed to record spectrum %s: %v", p.ID, saveErr)
		}
	}

	if err != nil {
		g.log.Warnf("Spectrum %s failed: %v", p, err)
		return err
	}
	g.log.Infof("Spectrum %s written to %s (%.1fs)", p, out, elapsed.Seconds())
	return nil
}

func (g *Generator) synthesise(ctx context.Context, j *job, p parameters.StellarParameters) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(j.tempDir, p.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}

	geometry := atmosphere.ChooseGeometry(p.Logg, j.cfg.Spectra.Spherical)
	cube, err := atmosphere.FindNeighbours(j.models, p.Teff, p.Logg, p.FeH, geometry)
	if err != nil {
		return "", err
	}
	corners, err := absPaths(cube.Paths())
	if err != nil {
		return "", err
	}

	modelPath := filepath.Join(dir, p.ID+".interpol")
	script := filepath.Join(dir, "interpolate.sh")
	err = j.tmpl.WriteScript(script, interpolation.Input{
		ID:          p.ID,
		Executable:  j.interpolator,
		Models:      corners,
		OutputModel: modelPath,
		OutputAlt:   filepath.Join(dir, p.ID+".alt"),
		Teff:        p.Teff,
		Logg:        p.Logg,
		FeH:         p.FeH,
	})
	if err != nil {
		return "", err
	}
	if err := g.run(ctx, OpInterpolation, command.Request{Dir: dir, Name: "sh", Args: []string{script}}); err != nil {
		return "", err
	}
	if err := requireFile(modelPath, OpInterpolation); err != nil {
		return "", err
	}

	in := SynthesisInput{
		ModelPath:      modelPath,
		OpacPath:       filepath.Join(dir, p.ID+".opac"),
		ResultPath:     filepath.Join(dir, p.ID+SpectrumExtension),
		Linelists:      j.linelists,
		FeH:            p.FeH,
		AlphaFe:        AlphaEnhancement(p.FeH),
		Vmic:           p.Vmic,
		Spherical:      geometry == atmosphere.Spherical,
		WavelengthMin:  j.cfg.Spectra.WavelengthMin,
		WavelengthMax:  j.cfg.Spectra.WavelengthMax,
		WavelengthStep: j.cfg.Spectra.WavelengthStep,
	}

	for _, step := range []struct {
		op, exe, par, want, script string
	}{
		{OpBabsyn, j.babsyn, "babsyn.par", in.OpacPath, BabsynScript(in)},
		{OpBsyn, j.bsyn, "bsyn.par", in.ResultPath, BsynScript(in)},
	} {
		if err := os.WriteFile(filepath.Join(dir, step.par), []byte(step.script), 0o644); err != nil {
			return "", fmt.Errorf("cannot write %s input: %w", step.op, err)
		}
		req := command.Request{Dir: j.tsRoot, Name: step.exe, Stdin: strings.NewReader(step.script)}
		if err := g.run(ctx, step.op, req); err != nil {
			return "", err
		}
		if err := requireFile(step.want, step.op); err != nil {
			return "", err
		}
	}

	out := filepath.Join(j.spectraDir, p.ID+SpectrumExtension)
	if err := os.Rename(in.ResultPath, out); err != nil {
		return "", fmt.Errorf("cannot move spectrum to %s: %w", out, err)
	}
	return out, nil
}

func (g *Generator) run(ctx context.Context, op string, req command.Request) error {
	g.log.Debugf("Running %s: %s", op, req)
	res, err := g.exec.Run(ctx, req)
	g.recorder.RecordDuration(ctx, op, res.Duration)
	if err == nil {
		return nil
	}
	stderr := strings.TrimSpace(res.Stderr)
	if len(stderr) > maxStderrInError {
		stderr = "..." + stderr[len(stderr)-maxStderrInError:]
	}
	if stderr != "" {
		return fmt.Errorf("%s: %w: %s", op, err, stderr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireFile(path, op string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s produced no output %s", op, path)
	}
	return nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out[i] = abs
	}
	return out, nil
}
