// Package batch converts a directory of images into content-addressed
// variants under a preset, recording the results in a manifest.
package batch

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/manifest"
	"github.com/AnyUserName/imgpipe/internal/pipeline"
	"github.com/AnyUserName/imgpipe/internal/profile"
	"github.com/AnyUserName/imgpipe/internal/scanner"
)

// Config holds all parameters for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Profile   profile.Profile
	Workers   int
	// NoRegressSize skips variants at least as large as their source.
	NoRegressSize bool
	Processor     *pipeline.Processor
	Logger        *slog.Logger
}

// Runner processes every image under Config.InputDir.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// New creates a configured runner.
func New(cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Processor == nil {
		cfg.Processor = pipeline.New(pipeline.Config{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, log: cfg.Logger}
}

// Run executes the batch and returns its manifest. Individual images may
// fail without failing the run; they are recorded under Failures. Run
// fails only when nothing was found, every image failed, or ctx ends.
func (r *Runner) Run(ctx context.Context) (*manifest.Manifest, error) {
	r.log.Debug(r.cfg.Processor.Capabilities().String())

	sources, err := scanner.Scan(r.cfg.InputDir)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	if len(sources) == 0 {
		return nil, errors.Errorf("no images found in %s", r.cfg.InputDir)
	}
	r.log.Debug("found images", "count", len(sources))

	results := make([]result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.log.Debug("processing", "key", src.Key)
			results[i] = r.process(gctx, src)
			if results[i].err == nil {
				r.log.Debug("done", "key", src.Key, "variants", len(results[i].asset.Variants))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := manifest.New(r.cfg.Profile.Name)
	var skipped, failed int
	for _, res := range results {
		skipped += res.skippedRegress
		if res.err != nil {
			failed++
			if m.Failures == nil {
				m.Failures = map[string]string{}
			}
			m.Failures[res.key] = res.err.Error()
			r.log.Warn("image failed", "key", res.key, "error", res.err)
			continue
		}
		m.Assets[res.key] = res.asset
	}
	if failed == len(sources) {
		return nil, errors.Errorf("all %d images failed to process", failed)
	}

	m.BuildInfo = &manifest.BuildInfo{
		Workers:  r.cfg.Workers,
		Encoders: r.encoders(),
	}
	m.Stats.SkippedRegress = skipped
	m.ComputeStats()
	return m, nil
}

func (r *Runner) encoders() []string {
	var out []string
	for _, f := range r.cfg.Processor.Capabilities().Available(format.Output) {
		out = append(out, string(f))
	}
	return out
}
