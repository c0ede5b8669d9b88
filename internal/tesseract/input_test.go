package tesseract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInputFromBytes(t *testing.T) {
	in := FromBytes([]byte("image-bytes"))
	if in.IsPath() {
		t.Error("byte input reported as path")
	}
	got, err := in.payload()
	if err != nil {
		t.Fatalf("payload() error: %v", err)
	}
	if !bytes.Equal(got, []byte("image-bytes")) {
		t.Errorf("payload() = %q", got)
	}
}

func TestInputFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, []byte("png-data"), 0o644); err != nil {
		t.Fatal(err)
	}

	in := FromPath(path)
	if !in.IsPath() || in.Path() != path {
		t.Errorf("unexpected path accessor: IsPath=%v Path=%q", in.IsPath(), in.Path())
	}
	got, err := in.payload()
	if err != nil {
		t.Fatalf("payload() error: %v", err)
	}
	if !bytes.Equal(got, []byte("png-data")) {
		t.Errorf("payload() = %q", got)
	}
}

func TestInputMissingFile(t *testing.T) {
	in := FromPath(filepath.Join(t.TempDir(), "does-not-exist.png"))
	if _, err := in.payload(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestInputZeroValue(t *testing.T) {
	var in Input
	_, err := in.payload()
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Errorf("expected ErrUnsupportedInput, got %v", err)
	}
}
