package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpipe/internal/pipeline"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "imgpipe",
	Short: "Image transformation pipelines from the command line",
	Long: `imgpipe decodes an image, applies a chain of operations and encodes
the result, reporting failures as validation, unsupported format,
structural mismatch or engine errors.

Formats backed by external tools (cwebp, avifenc, opj_compress) are
enabled when the tool is found on PATH; see "imgpipe formats".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints any error with its category.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if kind := pipeline.Classify(err); kind != pipeline.KindOther {
			fmt.Fprintf(os.Stderr, "imgpipe: %s: %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "imgpipe: %v\n", err)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgpipe %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[imgpipe] "+format+"\n", args...)
	}
}

// newProcessor builds the shared processor; --verbose routes its debug
// records to stderr.
func newProcessor() *pipeline.Processor {
	var logger *slog.Logger
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return pipeline.New(pipeline.Config{Logger: logger})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
