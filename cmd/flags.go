package cmd

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/options"
)

// parsePairs turns key=value flags into a raw option bag. Values are typed
// the way JSON would type them: true/false are booleans, integers and
// decimals are numbers, anything else is a string.
func parsePairs(pairs []string) (options.Raw, error) {
	raw := options.Raw{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("option %q is not of the form key=value", p)
		}
		raw[key] = parseValue(value)
	}
	return raw, nil
}

func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseBox reads "WxH", "Wx", "xH" or "W". Missing sides are 0.
func parseBox(s string) (int, int, error) {
	ws, hs, _ := strings.Cut(strings.ToLower(s), "x")
	var w, h int
	var err error
	if ws != "" {
		if w, err = strconv.Atoi(ws); err != nil {
			return 0, 0, errors.Errorf("invalid resize width in %q", s)
		}
	}
	if hs != "" {
		if h, err = strconv.Atoi(hs); err != nil {
			return 0, 0, errors.Errorf("invalid resize height in %q", s)
		}
	}
	return w, h, nil
}

// fileOptions is the shape of --options-file.
type fileOptions struct {
	Input  options.Raw `json:"input"`
	Resize options.Raw `json:"resize"`
	Output options.Raw `json:"output"`
}

func readOptionsFile(path string) (fileOptions, error) {
	var fo fileOptions
	if path == "" {
		return fo, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fo, errors.Wrap(err, "read options file")
	}
	if err := json.Unmarshal(data, &fo); err != nil {
		return fo, errors.Wrapf(err, "parse options file %s", path)
	}
	return fo, nil
}
