// Package manifest reads, writes and checks batch run manifests.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/hasher"
)

// New creates an empty manifest with defaults.
func New(preset string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Preset:      preset,
		BasePath:    "./",
		Assets:      make(map[string]Asset),
	}
}

// ComputeStats recalculates aggregate statistics from assets, keeping the
// skipped counter, which assets alone cannot reproduce.
func (m *Manifest) ComputeStats() {
	s := Stats{SkippedRegress: m.Stats.SkippedRegress}
	s.TotalAssets = len(m.Assets)
	s.TotalFailures = len(m.Failures)
	for _, a := range m.Assets {
		s.TotalInputBytes += a.Original.Size
		s.TotalVariants += len(a.Variants)
		for _, v := range a.Variants {
			s.TotalOutputBytes += v.Size
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to path. Map keys are emitted sorted by
// encoding/json, so output is stable.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Read loads a manifest. A directory is taken to contain FileName.
func Read(path string) (*Manifest, string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrap(err, "read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, path, errors.Wrap(err, "parse manifest")
	}
	return &m, path, nil
}

// Check validates m against the files under baseDir: every variant must
// exist with its recorded size and hash. It returns one line per problem.
func Check(m *Manifest, baseDir string) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if m.Version != SupportedManifestVersion {
		report("unsupported manifest version: %d", m.Version)
	}

	variants := 0
	for _, key := range sortedKeys(m.Assets) {
		a := m.Assets[key]
		variants += len(a.Variants)
		if a.Original.Width <= 0 || a.Original.Height <= 0 {
			report("asset %q: invalid original dimensions %dx%d", key, a.Original.Width, a.Original.Height)
		}
		if len(a.Variants) == 0 {
			report("asset %q: no variants", key)
		}
		paths := make(map[string]bool, len(a.Variants))
		for i, v := range a.Variants {
			if msg := checkVariant(v, baseDir, paths); msg != "" {
				report("asset %q variant[%d]: %s", key, i, msg)
			}
		}
	}

	if n := len(m.Assets); m.Stats.TotalAssets != n {
		report("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, n)
	}
	if m.Stats.TotalVariants != variants {
		report("stats.total_variants mismatch: %d != %d", m.Stats.TotalVariants, variants)
	}
	return problems
}

// checkVariant returns the first problem with v, or "".
func checkVariant(v Variant, baseDir string, paths map[string]bool) string {
	switch {
	case v.Width <= 0 || v.Height <= 0:
		return fmt.Sprintf("invalid dimensions %dx%d", v.Width, v.Height)
	case v.Path == "":
		return "missing path"
	case paths[v.Path]:
		return fmt.Sprintf("duplicate path %q", v.Path)
	}
	paths[v.Path] = true

	full := filepath.Join(baseDir, filepath.FromSlash(v.Path))
	info, err := os.Stat(full)
	if err != nil {
		return "file not found: " + v.Path
	}
	if info.Size() != v.Size {
		return fmt.Sprintf("size mismatch: manifest=%d, disk=%d", v.Size, info.Size())
	}
	if v.Hash == "" {
		return ""
	}
	if sum, err := hasher.FileHash(full, len(v.Hash)); err != nil || sum != v.Hash {
		return "hash mismatch for " + v.Path
	}
	return ""
}
