// Package profile holds named conversion presets used by the CLI.
package profile

import (
	"sort"

	"github.com/AnyUserName/imgpipe/internal/options"
	"github.com/AnyUserName/imgpipe/internal/pipeline"
)

// Profile is a named preset: output format and options, input options,
// and the widths batch runs produce variants at.
type Profile struct {
	Name    string
	Format  string      // output format name; empty keeps the input format
	Options options.Raw // encode options for Format
	Input   options.Raw // load options
	Fit     string      // resize fit for every variant
	Widths  []int       // target widths; empty means original size only
	Retina  bool        // also produce 2x widths when the source is large enough
}

// Built-in profiles.
var profiles = map[string]Profile{
	"web": {
		Name:    "web",
		Format:  "jpeg",
		Options: options.Raw{"quality": 80},
		Fit:     "inside",
		Widths:  []int{320, 640, 1280},
		Retina:  true,
	},
	"thumbnail": {
		Name:    "thumbnail",
		Format:  "jpeg",
		Options: options.Raw{"quality": 70},
		Fit:     "cover",
		Widths:  []int{320},
	},
	"lossless": {
		Name:    "lossless",
		Format:  "png",
		Options: options.Raw{"compressionLevel": 9},
	},
	"jp2-archive": {
		Name:    "jp2-archive",
		Format:  "jp2",
		Options: options.Raw{"lossless": true, "tileWidth": 1024, "tileHeight": 1024},
		Input:   options.Raw{"jp2.oneshot": true},
	},
	"jp2-web": {
		Name:    "jp2-web",
		Format:  "jp2",
		Options: options.Raw{"quality": 70, "chromaSubsampling": options.Chroma420},
		Input:   options.Raw{"jp2.oneshot": true},
		Fit:     "inside",
		Widths:  []int{320, 640},
	},
}

// Default is the preset used when none is named.
const Default = "web"

// Get returns a profile by name.
func Get(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Names lists the built-in profiles, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EffectiveWidths returns the variant widths for a source of the given
// width, including retina doubles. Widths above the original are dropped;
// if nothing survives, the original width is used.
func (p Profile) EffectiveWidths(originalWidth int) []int {
	seen := map[int]bool{}
	var result []int

	for _, w := range p.Widths {
		if w > originalWidth {
			continue
		}
		if !seen[w] {
			seen[w] = true
			result = append(result, w)
		}
		if p.Retina {
			w2 := w * 2
			if w2 <= originalWidth && !seen[w2] {
				seen[w2] = true
				result = append(result, w2)
			}
		}
	}

	if len(result) == 0 && originalWidth > 0 {
		result = append(result, originalWidth)
	}
	sort.Ints(result)
	return result
}

// Operations returns the pipeline steps for one variant. A width of 0
// skips the resize.
func (p Profile) Operations(width int) []pipeline.Operation {
	var ops []pipeline.Operation
	if width > 0 {
		raw := options.Raw{"withoutEnlargement": true}
		if p.Fit != "" {
			raw["fit"] = p.Fit
		}
		ops = append(ops, pipeline.Resize(width, 0, raw))
	}
	if p.Format != "" {
		ops = append(ops, pipeline.Output(p.Format, p.Options))
	}
	return ops
}
