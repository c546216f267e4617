package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpipe/internal/capability"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List formats and whether they can be read and written",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		printFormats(cmd.OutOrStdout(), newProcessor().Capabilities())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func printFormats(w io.Writer, caps *capability.Registry) {
	fmt.Fprintf(w, "  %-6s  %-5s  %-6s  %s\n", "FORMAT", "INPUT", "OUTPUT", "NOTES")
	for _, rec := range caps.Records() {
		note := rec.OutputReason
		if note == "" {
			note = rec.InputReason
		}
		fmt.Fprintf(w, "  %-6s  %-5s  %-6s  %s\n", rec.Format, mark(rec.Input), mark(rec.Output), note)
	}
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
