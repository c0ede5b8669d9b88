/**
 * Subprocess invocation for the Tesseract binary.
 *
 * Every operation builds an argument list, spawns one process with
 * stdin/stdout/stderr pipes, writes the image bytes to stdin and waits for
 * completion bounded by the caller's timeout. There is no pooling, retry or
 * queuing at this layer; one call is one process.
 */

package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// buildArgs assembles the tesseract argument list for a recognition run:
// input source, output destination, language/DPI/PSM/OEM, optional user word
// and pattern files, tessdata directory, config variables and trailing output
// format configs.
func buildArgs(input, output string, o *options, formats ...string) []string {
	args := []string{input, output}
	if o.lang != "" {
		args = append(args, "-l", o.lang)
	}
	if o.dpi > 0 {
		args = append(args, "--dpi", strconv.Itoa(o.dpi))
	}
	args = append(args, "--psm", strconv.Itoa(o.psm))
	args = append(args, "--oem", strconv.Itoa(o.oem))
	if o.userWords != "" {
		args = append(args, "--user-words", o.userWords)
	}
	if o.userPatterns != "" {
		args = append(args, "--user-patterns", o.userPatterns)
	}
	if o.tessdataDir != "" {
		args = append(args, "--tessdata-dir", o.tessdataDir)
	}
	for _, cv := range o.configVars {
		args = append(args, "-c", cv.key+"="+cv.value)
	}
	args = append(args, formats...)
	return args
}

// run spawns the binary and waits for completion. On timeout the process is
// killed and ErrTimeout surfaces; on nonzero exit the captured stderr is
// wrapped in a RuntimeError.
func (c *Client) run(ctx context.Context, stdin []byte, timeout time.Duration, args ...string) (stdout, stderr []byte, err error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, nil, &RuntimeError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   errBuf.String(),
			}
		}
		return nil, nil, fmt.Errorf("spawn %s: %w", c.binary, runErr)
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}
