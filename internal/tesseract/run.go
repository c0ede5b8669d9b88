package tesseract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RunResult holds the output files of a multi-format invocation. Paths maps
// each requested format to the file tesseract produced for it. Cleanup
// removes the temporary directory holding them.
type RunResult struct {
	Paths map[string]string
	dir   string
}

// Cleanup removes the temporary output directory and everything in it.
func (r *RunResult) Cleanup() error {
	if r.dir == "" {
		return nil
	}
	return os.RemoveAll(r.dir)
}

// extensions maps output format configs to the file extensions tesseract
// writes for them.
var extensions = map[string]string{
	"txt":  ".txt",
	"hocr": ".hocr",
	"pdf":  ".pdf",
	"tsv":  ".tsv",
	"alto": ".xml",
}

// Run performs one invocation producing several output formats at once, the
// engine's multi-output mode. Outputs land under a fresh temporary directory;
// callers own the result until Cleanup.
func (c *Client) Run(ctx context.Context, image []byte, outputName string, formats []string, opts ...Option) (*RunResult, error) {
	if image == nil {
		return nil, ErrUnsupportedInput
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("at least one output format is required")
	}
	if outputName == "" {
		outputName = "output"
	}
	o := newOptions(opts)

	dir, err := os.MkdirTemp("", "tesseract-run-")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Join(dir, outputName)

	args := buildArgs("stdin", base, o, formats...)
	if _, _, err := c.run(ctx, image, o.timeout, args...); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	paths := make(map[string]string, len(formats))
	for _, format := range formats {
		ext, ok := extensions[format]
		if !ok {
			ext = "." + format
		}
		paths[format] = base + ext
	}
	return &RunResult{Paths: paths, dir: dir}, nil
}
