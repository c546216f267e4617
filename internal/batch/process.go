package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/manifest"
	"github.com/AnyUserName/imgpipe/internal/pipeline"
	"github.com/AnyUserName/imgpipe/internal/scanner"
)

// result holds the outcome for a single source image.
type result struct {
	key            string
	asset          manifest.Asset
	err            error
	skippedRegress int
}

// process reads one source and writes a variant per effective width.
func (r *Runner) process(ctx context.Context, src scanner.Source) result {
	res := result{key: src.Key}

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		res.err = errors.Wrapf(err, "read %s", src.RelPath)
		return res
	}
	desc, err := r.cfg.Processor.Describe(ctx, data)
	if err != nil {
		res.err = errors.Wrapf(err, "describe %s", src.RelPath)
		return res
	}

	res.asset = manifest.Asset{
		Original: manifest.OriginalInfo{
			Width:  desc.Width,
			Height: desc.Height,
			Format: string(desc.Format),
			Size:   src.Size,
		},
		AspectRatio: float64(desc.Width) / float64(desc.Height),
	}

	keyDir := filepath.Dir(src.Key)
	if err := os.MkdirAll(filepath.Join(r.cfg.OutputDir, keyDir), 0o755); err != nil {
		res.err = errors.Wrap(err, "create output directory")
		return res
	}

	seen := map[string]bool{}
	for _, w := range r.cfg.Profile.EffectiveWidths(desc.Width) {
		p, err := r.cfg.Processor.Load(pipeline.FromBytes(data), r.cfg.Profile.Input)
		if err != nil {
			res.err = err
			return res
		}
		if err := p.Append(r.cfg.Profile.Operations(w)...); err != nil {
			res.err = err
			return res
		}
		out, err := p.ToBuffer(ctx)
		if err != nil {
			res.err = errors.Wrapf(err, "%s@%d", src.RelPath, w)
			return res
		}
		meta := out.Metadata

		if r.cfg.NoRegressSize && int64(meta.Size) >= src.Size {
			r.log.Debug("skip variant larger than source",
				"key", src.Key, "width", meta.Width, "bytes", meta.Size, "original", src.Size)
			res.skippedRegress++
			continue
		}

		// key.w.h.hash8.ext
		fileName := fmt.Sprintf("%s.%d.%d.%s.%s",
			filepath.Base(src.Key), meta.Width, meta.Height, meta.Hash[:8], meta.Format.Extension())
		relPath := filepath.ToSlash(filepath.Join(keyDir, fileName))
		if seen[relPath] {
			continue
		}
		seen[relPath] = true

		if err := os.WriteFile(filepath.Join(r.cfg.OutputDir, relPath), out.Data, 0o644); err != nil {
			res.err = errors.Wrapf(err, "write %s", relPath)
			return res
		}

		res.asset.Variants = append(res.asset.Variants, manifest.Variant{
			Format:   string(meta.Format),
			Width:    meta.Width,
			Height:   meta.Height,
			Channels: meta.Channels,
			Size:     int64(meta.Size),
			Hash:     meta.Hash,
			Path:     relPath,
			Strategy: meta.Strategy,
		})
	}
	return res
}
