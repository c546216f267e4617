package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/manifest"
)

var reportCheck bool

var reportCmd = &cobra.Command{
	Use:   "report <out_dir_or_manifest>",
	Short: "Summarize a batch manifest, optionally checking its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportCheck, "check", false, "verify every variant exists with its recorded size and hash")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	m, path, err := manifest.Read(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	printReport(w, m)

	if !reportCheck {
		return nil
	}
	problems := manifest.Check(m, filepath.Dir(path))
	if len(problems) == 0 {
		fmt.Fprintf(w, "  ok: %d assets, %d variants, all files present\n",
			m.Stats.TotalAssets, m.Stats.TotalVariants)
		return nil
	}
	fmt.Fprintf(w, "  manifest has %d problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(w, "    - %s\n", p)
	}
	return errors.Errorf("check failed with %d problems", len(problems))
}

func printReport(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Manifest version: %d\n", m.Version)
	fmt.Fprintf(w, "  Generated:        %s\n", m.GeneratedAt)
	fmt.Fprintf(w, "  Preset:           %s\n", m.Preset)
	if m.BuildInfo != nil {
		fmt.Fprintf(w, "  Workers:          %d\n", m.BuildInfo.Workers)
		fmt.Fprintf(w, "  Encoders:         %v\n", m.BuildInfo.Encoders)
	}
	fmt.Fprintln(w)

	s := m.Stats
	fmt.Fprintf(w, "  Total assets:     %d\n", s.TotalAssets)
	fmt.Fprintf(w, "  Total variants:   %d\n", s.TotalVariants)
	fmt.Fprintf(w, "  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(w, "  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Fprintf(w, "  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Fprintln(w)

	type tally struct {
		count int
		bytes int64
	}
	byFormat := map[string]tally{}
	byStrategy := map[string]int{}
	byWidth := map[int]int{}
	for _, a := range m.Assets {
		for _, v := range a.Variants {
			t := byFormat[v.Format]
			t.count++
			t.bytes += v.Size
			byFormat[v.Format] = t
			byStrategy[v.Strategy]++
			byWidth[v.Width]++
		}
	}

	fmt.Fprintln(w, "  Format breakdown:")
	for _, f := range format.All {
		if t, ok := byFormat[string(f)]; ok {
			fmt.Fprintf(w, "    %-6s  %4d files  %s\n", f, t.count, formatBytes(t.bytes))
		}
	}
	fmt.Fprintln(w)

	var widths []int
	for wd := range byWidth {
		widths = append(widths, wd)
	}
	sort.Ints(widths)
	fmt.Fprintln(w, "  Width breakdown:")
	for _, wd := range widths {
		fmt.Fprintf(w, "    %5dpx  %4d variants\n", wd, byWidth[wd])
	}
	fmt.Fprintln(w)

	if byStrategy["oneshot"] > 0 {
		fmt.Fprintf(w, "  Oneshot decodes:  %d variants\n\n", byStrategy["oneshot"])
	}

	var warnings []string
	for _, key := range m.Keys() {
		if len(m.Assets[key].Variants) == 0 {
			warnings = append(warnings, fmt.Sprintf("asset %q has no variants", key))
		}
	}
	for _, key := range sortedFailures(m) {
		warnings = append(warnings, fmt.Sprintf("asset %q failed: %s", key, m.Failures[key]))
	}
	if len(warnings) > 0 {
		fmt.Fprintf(w, "  Warnings (%d):\n", len(warnings))
		for _, wn := range warnings {
			fmt.Fprintf(w, "    ! %s\n", wn)
		}
		fmt.Fprintln(w)
	}
}
