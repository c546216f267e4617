package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
	"github.com/AnyUserName/imgpipe/internal/pipeline"
	"github.com/AnyUserName/imgpipe/internal/profile"
)

var (
	convFormat      string
	convResize      string
	convFit         string
	convQuality     int
	convOpts        []string
	convInputOpts   []string
	convOptionsFile string
	convPreset      string
	convJSON        bool
	convRotate      float64
	convBlur        float64
	convFlip        bool
	convFlop        bool
	convGrayscale   bool
	convFlatten     string
	convOneshot     bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input|-> <output|->",
	Short: "Run one image through a pipeline",
	Long: `Decodes <input>, applies the requested operations in a fixed order
(resize, rotate, flip, flop, blur, grayscale, flatten) and encodes the
result. Use "-" to read stdin or write stdout.

Without --format the output format follows the output file suffix, falling
back to the input format. Options are validated before anything is decoded.

Examples:
  imgpipe convert scan.jp2 scan.jpg -q 70
  imgpipe convert tiled.jp2 out.png --oneshot
  imgpipe convert in.png out.jp2 --opt chromaSubsampling=4:2:0 --opt tileWidth=256`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convFormat, "format", "f", "", "output format (jpeg, png, webp, avif, gif, tiff, bmp, jp2)")
	f.StringVarP(&convResize, "resize", "r", "", "resize box WxH; either side may be omitted")
	f.StringVar(&convFit, "fit", "", "resize fit (cover, contain, fill, inside, outside)")
	f.IntVarP(&convQuality, "quality", "q", 0, "encode quality 1-100 (0 = format default)")
	f.StringArrayVar(&convOpts, "opt", nil, "output option key=value (repeatable)")
	f.StringArrayVar(&convInputOpts, "input-opt", nil, "input option key=value (repeatable)")
	f.StringVar(&convOptionsFile, "options-file", "", `JSON file {"input":{},"resize":{},"output":{}}`)
	f.StringVarP(&convPreset, "preset", "p", "", "start from a named preset")
	f.BoolVar(&convJSON, "json", false, "print result metadata as JSON")
	f.Float64Var(&convRotate, "rotate", 0, "rotate clockwise by degrees")
	f.Float64Var(&convBlur, "blur", 0, "gaussian blur sigma (0.3-1000)")
	f.BoolVar(&convFlip, "flip", false, "mirror vertically")
	f.BoolVar(&convFlop, "flop", false, "mirror horizontally")
	f.BoolVar(&convGrayscale, "grayscale", false, "convert to grayscale")
	f.StringVar(&convFlatten, "flatten", "", "composite over this background colour, removing alpha")
	f.BoolVar(&convOneshot, "oneshot", false, "shorthand for --input-opt jp2.oneshot=true")
	rootCmd.AddCommand(convertCmd)
}

// convertRequest is everything convert needs, resolved from flags.
type convertRequest struct {
	input   options.Raw
	ops     []pipeline.Operation
	summary string
}

func buildConvertRequest(out string) (convertRequest, error) {
	var req convertRequest

	fo, err := readOptionsFile(convOptionsFile)
	if err != nil {
		return req, err
	}

	var prof profile.Profile
	if convPreset != "" {
		p, ok := profile.Get(convPreset)
		if !ok {
			return req, errors.Errorf("unknown preset %q (have %v)", convPreset, profile.Names())
		}
		prof = p
	}

	inputPairs, err := parsePairs(convInputOpts)
	if err != nil {
		return req, err
	}
	req.input = options.Raw(nil).Merge(prof.Input).Merge(fo.Input).Merge(inputPairs)
	if convOneshot {
		req.input[options.JP2Oneshot] = true
	}

	if convResize != "" {
		w, h, err := parseBox(convResize)
		if err != nil {
			return req, err
		}
		raw := options.Raw{}.Merge(fo.Resize)
		if prof.Fit != "" {
			raw["fit"] = prof.Fit
		}
		if convFit != "" {
			raw["fit"] = convFit
		}
		req.ops = append(req.ops, pipeline.Resize(w, h, raw))
	}
	if convRotate != 0 {
		req.ops = append(req.ops, pipeline.Rotate(convRotate, nil))
	}
	if convFlip {
		req.ops = append(req.ops, pipeline.Flip())
	}
	if convFlop {
		req.ops = append(req.ops, pipeline.Flop())
	}
	if convBlur != 0 {
		req.ops = append(req.ops, pipeline.Blur(convBlur))
	}
	if convGrayscale {
		req.ops = append(req.ops, pipeline.Grayscale())
	}
	if convFlatten != "" {
		req.ops = append(req.ops, pipeline.Flatten(options.Raw{"background": convFlatten}))
	}

	outPairs, err := parsePairs(convOpts)
	if err != nil {
		return req, err
	}
	name := prof.Format
	if convFormat != "" {
		name = convFormat
	}
	if convQuality > 0 {
		outPairs["quality"] = convQuality
	}
	outRaw := options.Raw(nil).Merge(fo.Output).Merge(outPairs)
	if name == prof.Format {
		outRaw = options.Raw(nil).Merge(prof.Options).Merge(outRaw)
	}
	if name == "" && len(outRaw) > 0 {
		// Options alone still need a schema to validate against.
		f := format.FromPath(out)
		if f == format.Unknown {
			return req, errors.New("output options need --format")
		}
		name = string(f)
	}
	if name != "" {
		req.ops = append(req.ops, pipeline.Output(name, outRaw))
	}

	req.summary = fmt.Sprintf("%v", req.ops)
	return req, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	start := time.Now()

	req, err := buildConvertRequest(out)
	if err != nil {
		return err
	}

	src := pipeline.FromFile(in)
	if in == "-" {
		src = pipeline.FromReader(cmd.InOrStdin())
	}

	proc := newProcessor()
	p, err := proc.Load(src, req.input)
	if err != nil {
		return err
	}
	if err := p.Append(req.ops...); err != nil {
		return err
	}
	logVerbose("pipeline: %s -> %s %s", src, out, req.summary)

	ctx := commandContext(cmd)

	var res *pipeline.Result
	if out == "-" {
		res, err = p.ToBuffer(ctx)
		if err == nil {
			_, err = cmd.OutOrStdout().Write(res.Data)
		}
	} else {
		res, err = p.ToFile(ctx, out)
	}
	if err != nil {
		return err
	}
	logVerbose("done in %s", time.Since(start).Round(time.Millisecond))

	report := cmd.OutOrStdout()
	if out == "-" {
		report = cmd.ErrOrStderr()
	}
	return printResult(report, res.Metadata, convJSON)
}

func printResult(w io.Writer, m pipeline.Metadata, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	_, err := fmt.Fprintf(w, "%s %dx%d %d channels, %s (strategy %s, hash %s)\n",
		m.Format, m.Width, m.Height, m.Channels, formatBytes(int64(m.Size)), m.Strategy, m.Hash)
	return err
}
