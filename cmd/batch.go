package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpipe/internal/batch"
	"github.com/AnyUserName/imgpipe/internal/manifest"
	"github.com/AnyUserName/imgpipe/internal/options"
	"github.com/AnyUserName/imgpipe/internal/profile"
)

var (
	batchOutDir    string
	batchPreset    string
	batchWorkers   int
	batchWidths    []int
	batchQuality   int
	batchNoRegress bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Convert a directory of images under a preset and write a manifest",
	Long: `Scans the input directory for images, runs one pipeline per source and
target width, and writes the variants plus ` + manifest.FileName + `.

Output filenames are content-addressed: <key>.<w>.<h>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", "./imgpipe_out", "output directory")
	batchCmd.Flags().StringVarP(&batchPreset, "preset", "p", profile.Default, "preset ("+strings.Join(profile.Names(), ", ")+")")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	batchCmd.Flags().IntSliceVar(&batchWidths, "widths", nil, "custom widths (overrides preset)")
	batchCmd.Flags().IntVarP(&batchQuality, "quality", "q", 0, "quality 1-100 (0 = preset default)")
	batchCmd.Flags().BoolVar(&batchNoRegress, "no-regress-size", true, "skip variants larger than the source file")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrap(err, "resolve input path")
	}
	absOutput, err := filepath.Abs(batchOutDir)
	if err != nil {
		return errors.Wrap(err, "resolve output path")
	}

	prof, ok := profile.Get(batchPreset)
	if !ok {
		return errors.Errorf("unknown preset %q (have %v)", batchPreset, profile.Names())
	}
	if batchWidths != nil {
		prof.Widths = batchWidths
	}
	if batchQuality > 0 {
		prof.Options = prof.Options.Merge(options.Raw{"quality": batchQuality})
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("preset:  %s (format=%s, widths=%v, options=%v)", prof.Name, prof.Format, prof.Widths, prof.Options)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	r := batch.New(batch.Config{
		InputDir:      absInput,
		OutputDir:     absOutput,
		Profile:       prof,
		Workers:       batchWorkers,
		NoRegressSize: batchNoRegress,
		Processor:     newProcessor(),
	})
	m, err := r.Run(commandContext(cmd))
	if err != nil {
		return errors.Wrap(err, "batch")
	}

	if err := manifest.WriteJSON(m, filepath.Join(absOutput, manifest.FileName)); err != nil {
		return errors.Wrap(err, "write manifest")
	}

	printBatchReport(cmd.OutOrStdout(), m, time.Since(start))
	return nil
}

func printBatchReport(w io.Writer, m *manifest.Manifest, elapsed time.Duration) {
	st := m.Stats
	rows := [][2]string{
		{"Assets", fmt.Sprint(st.TotalAssets)},
		{"Variants", fmt.Sprint(st.TotalVariants)},
		{"Input size", formatBytes(st.TotalInputBytes)},
		{"Output size", formatBytes(st.TotalOutputBytes)},
	}
	if st.TotalInputBytes > 0 {
		pct := float64(st.TotalOutputBytes) / float64(st.TotalInputBytes) * 100
		rows = append(rows, [2]string{"Ratio", fmt.Sprintf("%.1f%% of original", pct)})
	}
	if st.SkippedRegress > 0 {
		rows = append(rows, [2]string{"Skipped", fmt.Sprintf("%d variants (larger than original)", st.SkippedRegress)})
	}
	if st.TotalFailures > 0 {
		rows = append(rows, [2]string{"Failed", fmt.Sprintf("%d images", st.TotalFailures)})
	}
	rows = append(rows, [2]string{"Time", elapsed.Round(time.Millisecond).String()})
	if m.BuildInfo != nil {
		rows = append(rows, [2]string{"Workers", fmt.Sprint(m.BuildInfo.Workers)})
	}

	fmt.Fprintf(w, "\n  imgpipe batch complete (preset %s)\n\n", m.Preset)
	for _, r := range rows {
		fmt.Fprintf(w, "  %-12s %s\n", r[0]+":", r[1])
	}
	fmt.Fprintln(w)

	if top := heaviest(m, 10); len(top) > 0 {
		fmt.Fprintf(w, "  Top %d heaviest (original -> converted):\n", len(top))
		for _, key := range top {
			a := m.Assets[key]
			fmt.Fprintf(w, "    %-40s %8s -> %8s\n",
				truncKey(key, 40), formatBytes(a.Original.Size), formatBytes(variantBytes(a)))
		}
		fmt.Fprintln(w)
	}

	for _, key := range sortedFailures(m) {
		fmt.Fprintf(w, "  error: %s: %s\n", key, m.Failures[key])
	}

	data, _ := json.Marshal(m)
	fmt.Fprintf(w, "  Manifest:    %s (%s)\n\n", manifest.FileName, formatBytes(int64(len(data))))
}

// heaviest returns up to n asset keys by descending source size.
func heaviest(m *manifest.Manifest, n int) []string {
	keys := m.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return m.Assets[keys[i]].Original.Size > m.Assets[keys[j]].Original.Size
	})
	return keys[:min(n, len(keys))]
}

func variantBytes(a manifest.Asset) int64 {
	var sum int64
	for _, v := range a.Variants {
		sum += v.Size
	}
	return sum
}

func sortedFailures(m *manifest.Manifest) []string {
	keys := make([]string, 0, len(m.Failures))
	for k := range m.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
