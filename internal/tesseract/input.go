package tesseract

import (
	"fmt"
	"os"
)

// Input is the image handed to an operation: either a filesystem path or raw
// encoded bytes. The zero value is not a valid input and every operation
// rejects it with ErrUnsupportedInput before spawning a process.
type Input struct {
	path string
	data []byte
}

// FromPath wraps an image file path.
func FromPath(path string) Input {
	return Input{path: path}
}

// FromBytes wraps raw encoded image bytes.
func FromBytes(data []byte) Input {
	return Input{data: data}
}

// IsPath reports whether the input refers to a file on disk.
func (in Input) IsPath() bool { return in.path != "" }

// Path returns the wrapped file path, empty for byte inputs.
func (in Input) Path() string { return in.path }

// payload resolves the input to the bytes written to the subprocess stdin,
// reading the file for path inputs.
func (in Input) payload() ([]byte, error) {
	switch {
	case in.path != "":
		data, err := os.ReadFile(in.path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", in.path, err)
		}
		return data, nil
	case in.data != nil:
		return in.data, nil
	default:
		return nil, ErrUnsupportedInput
	}
}
