package tesseract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout is returned when the tesseract process exceeds the configured
// timeout. The process is killed before this error surfaces.
var ErrTimeout = errors.New("tesseract process timeout")

// ErrUnsupportedInput is returned synchronously, before any process is
// spawned, when an operation receives a zero-value Input.
var ErrUnsupportedInput = errors.New("unsupported image input")

// RuntimeError is returned when the tesseract process exits with a nonzero
// status. It carries whatever the binary wrote to stderr.
type RuntimeError struct {
	ExitCode int
	Stderr   string
}

func (e *RuntimeError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no stderr output"
	}
	return fmt.Sprintf("tesseract exited with status %d: %s", e.ExitCode, msg)
}
