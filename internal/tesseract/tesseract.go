/**
 * Tesseract CLI client.
 *
 * Wraps the external `tesseract` binary: each operation builds an argument
 * list, feeds image bytes over stdin, and parses the textual output into the
 * record types in models.go. Recognition itself is delegated entirely to the
 * binary; this layer owns only process lifecycle and output parsing.
 */

package tesseract

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Client invokes the Tesseract binary. It holds no per-call state, so a
// single Client is safe for concurrent use; every operation spawns its own
// process.
type Client struct {
	binary string
}

// NewClient creates a client for the given binary path. An empty path falls
// back to "tesseract" resolved via PATH.
func NewClient(binary string) *Client {
	if binary == "" {
		binary = "tesseract"
	}
	return &Client{binary: binary}
}

// Available probes the installation by resolving the binary and running
// `--version`.
func (c *Client) Available(ctx context.Context) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("tesseract not found: %w", err)
	}
	if _, _, err := c.run(ctx, nil, DefaultTimeout, "--version"); err != nil {
		return fmt.Errorf("tesseract probe failed: %w", err)
	}
	return nil
}

// Version returns the Tesseract version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, _, err := c.run(ctx, nil, DefaultTimeout, "--version")
	if err != nil {
		return "", err
	}
	v := parseVersion(stdout)
	if v == "" {
		return "", fmt.Errorf("unexpected --version output: %q", string(stdout))
	}
	return v, nil
}

// Languages returns the installed traineddata languages.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	stdout, stderr, err := c.run(ctx, nil, DefaultTimeout, "--list-langs")
	if err != nil {
		return nil, err
	}
	langs := parseLanguages(stdout)
	if len(langs) == 0 {
		// Older releases print the language list on stderr.
		langs = parseLanguages(stderr)
	}
	return langs, nil
}

// Parameters lists every engine variable with its default value and short
// description.
func (c *Client) Parameters(ctx context.Context) ([]Parameter, error) {
	stdout, _, err := c.run(ctx, nil, DefaultTimeout, "--print-parameters")
	if err != nil {
		return nil, err
	}
	return parseParameters(stdout), nil
}

// ImageToString extracts plain text from an image.
func (c *Client) ImageToString(ctx context.Context, in Input, opts ...Option) (string, error) {
	o := newOptions(opts)
	stdout, err := c.recognize(ctx, in, o)
	if err != nil {
		return "", err
	}
	return string(stdout), nil
}

// ImageToHOCR extracts HOCR markup from an image.
func (c *Client) ImageToHOCR(ctx context.Context, in Input, opts ...Option) (string, error) {
	o := newOptions(opts)
	stdout, err := c.recognize(ctx, in, o, "hocr")
	if err != nil {
		return "", err
	}
	return string(stdout), nil
}

// ImageToPDF renders a searchable PDF from an image. The PDF bytes pass
// through unchanged.
func (c *Client) ImageToPDF(ctx context.Context, in Input, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	return c.recognize(ctx, in, o, "pdf")
}

// recognize is the shared stdin/stdout invocation used by the plain-text,
// HOCR and PDF operations.
func (c *Client) recognize(ctx context.Context, in Input, o *options, formats ...string) ([]byte, error) {
	payload, err := in.payload()
	if err != nil {
		return nil, err
	}
	args := buildArgs("stdin", "stdout", o, formats...)
	stdout, _, err := c.run(ctx, payload, o.timeout, args...)
	if err != nil {
		return nil, err
	}
	return stdout, nil
}

// ImageToBoxes returns per-character bounding box estimates.
func (c *Client) ImageToBoxes(ctx context.Context, in Input, opts ...Option) ([]Box, error) {
	o := newOptions(opts)
	payload, err := in.payload()
	if err != nil {
		return nil, err
	}
	stdout, _, err := c.run(ctx, payload, o.timeout,
		"stdin", "stdout", "batch.nochop", "makebox")
	if err != nil {
		return nil, err
	}
	return parseBoxes(stdout), nil
}

// ImageToData returns the TSV data table: one record per layout element with
// bounding box, confidence and recognized text.
func (c *Client) ImageToData(ctx context.Context, in Input, opts ...Option) ([]Word, error) {
	o := newOptions(opts)
	payload, err := in.payload()
	if err != nil {
		return nil, err
	}
	stdout, _, err := c.run(ctx, payload, o.timeout,
		"stdin", "stdout", "-c", "tessedit_create_tsv=1",
		"--dpi", strconv.Itoa(o.dpi))
	if err != nil {
		return nil, err
	}
	return ParseTSV(stdout), nil
}

// ImageToOSD reports page orientation and detected script. Runs PSM 0 with
// no explicit language, matching the engine's OSD mode.
func (c *Client) ImageToOSD(ctx context.Context, in Input, opts ...Option) (OSD, error) {
	o := newOptions(opts)
	payload, err := in.payload()
	if err != nil {
		return OSD{}, err
	}
	stdout, _, err := c.run(ctx, payload, o.timeout,
		"stdin", "stdout",
		"--dpi", strconv.Itoa(o.dpi),
		"--psm", "0",
		"--oem", strconv.Itoa(o.oem))
	if err != nil {
		return OSD{}, err
	}
	return parseOSD(stdout), nil
}

// Confidence returns the script confidence from a PSM 0 run; 0.0 when the
// report carries no such line.
func (c *Client) Confidence(ctx context.Context, in Input, opts ...Option) (float64, error) {
	o := newOptions(opts)
	payload, err := in.payload()
	if err != nil {
		return 0, err
	}
	stdout, _, err := c.run(ctx, payload, o.timeout,
		"stdin", "stdout",
		"-l", o.lang,
		"--dpi", strconv.Itoa(o.dpi),
		"--psm", "0",
		"--oem", strconv.Itoa(o.oem))
	if err != nil {
		return 0, err
	}
	return parseScriptConfidence(stdout), nil
}

// Deskew returns the skew angle the engine reports for an image file; 0.0
// when no angle is reported. The angle is printed to stderr during a PSM 2
// run, which requires a file path input.
func (c *Client) Deskew(ctx context.Context, imagePath string, opts ...Option) (float64, error) {
	if imagePath == "" {
		return 0, ErrUnsupportedInput
	}
	o := newOptions(opts)
	_, stderr, err := c.run(ctx, nil, o.timeout,
		imagePath, "stdout",
		"-l", o.lang,
		"--dpi", strconv.Itoa(o.dpi),
		"--psm", "2",
		"--oem", strconv.Itoa(o.oem))
	if err != nil {
		return 0, err
	}
	return parseDeskewAngle(stderr), nil
}
