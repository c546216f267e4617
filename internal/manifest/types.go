package manifest

// FileName is the manifest written at the root of a batch output directory.
const FileName = "imgpipe.manifest.json"

// Manifest is the record of one batch run.
type Manifest struct {
	Version     int               `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	Preset      string            `json:"preset"`
	BasePath    string            `json:"base_path"`
	BuildInfo   *BuildInfo        `json:"build_info,omitempty"`
	Assets      map[string]Asset  `json:"assets"`
	Failures    map[string]string `json:"failures,omitempty"` // key -> error text
	Stats       Stats             `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers  int      `json:"workers"`
	Encoders []string `json:"encoders"` // output formats available in this run
}

// Asset describes one source image and its variants.
type Asset struct {
	Original    OriginalInfo `json:"original"`
	AspectRatio float64      `json:"aspect_ratio"` // width / height
	Variants    []Variant    `json:"variants"`
}

// OriginalInfo holds metadata about the source image.
type OriginalInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"` // sniffed from content
	Size   int64  `json:"size"`
}

// Variant is one produced output of an asset.
type Variant struct {
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	Size     int64  `json:"size"`     // bytes on disk
	Hash     string `json:"hash"`     // xxhash64, 16 hex chars
	Path     string `json:"path"`     // relative to base_path
	Strategy string `json:"strategy"` // decode strategy used
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalAssets      int   `json:"total_assets"`
	TotalVariants    int   `json:"total_variants"`
	TotalFailures    int   `json:"total_failures,omitempty"`
	SkippedRegress   int   `json:"skipped_regress,omitempty"` // variants larger than their source
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
