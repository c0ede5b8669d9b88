package tesseract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeBinary writes a shell script standing in for the tesseract binary and
// returns a client pointed at it.
func fakeBinary(t *testing.T, script string) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return NewClient(path)
}

func TestNewClientDefaultBinary(t *testing.T) {
	c := NewClient("")
	if c.binary != "tesseract" {
		t.Errorf("binary = %q, want %q", c.binary, "tesseract")
	}
}

func TestVersion(t *testing.T) {
	c := fakeBinary(t, `echo "tesseract 5.3.4"`)
	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v != "5.3.4" {
		t.Errorf("Version() = %q, want %q", v, "5.3.4")
	}
}

func TestVersionMalformed(t *testing.T) {
	c := fakeBinary(t, `echo "garbage"`)
	if _, err := c.Version(context.Background()); err == nil {
		t.Error("expected error for malformed version output")
	}
}

func TestLanguages(t *testing.T) {
	c := fakeBinary(t, `printf 'List of available languages (3):\neng\ndeu\nosd\n'`)
	langs, err := c.Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages() error: %v", err)
	}
	if len(langs) != 3 || langs[0] != "eng" {
		t.Errorf("Languages() = %v", langs)
	}
}

func TestLanguagesOnStderr(t *testing.T) {
	c := fakeBinary(t, `printf 'List of available languages (1):\neng\n' >&2`)
	langs, err := c.Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages() error: %v", err)
	}
	if len(langs) != 1 || langs[0] != "eng" {
		t.Errorf("Languages() = %v", langs)
	}
}

func TestImageToString(t *testing.T) {
	// Echo stdin back, standing in for recognition output.
	c := fakeBinary(t, `cat`)
	text, err := c.ImageToString(context.Background(), FromBytes([]byte("recognized text")))
	if err != nil {
		t.Fatalf("ImageToString() error: %v", err)
	}
	if text != "recognized text" {
		t.Errorf("ImageToString() = %q", text)
	}
}

func TestImageToStringZeroInput(t *testing.T) {
	c := fakeBinary(t, `cat`)
	_, err := c.ImageToString(context.Background(), Input{})
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Errorf("expected ErrUnsupportedInput, got %v", err)
	}
}

func TestImageToBoxes(t *testing.T) {
	c := fakeBinary(t, `printf 'h 26 32 42 60 0\ni 44 32 50 62 0\n'`)
	boxes, err := c.ImageToBoxes(context.Background(), FromBytes([]byte("img")))
	if err != nil {
		t.Fatalf("ImageToBoxes() error: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(boxes))
	}
	if boxes[0].Char != "h" || boxes[0].Left != 26 || boxes[0].Top != 60 {
		t.Errorf("unexpected first box: %+v", boxes[0])
	}
}

func TestImageToData(t *testing.T) {
	c := fakeBinary(t, `printf 'level\tpage\tblock\tpar\tline\tword\tleft\ttop\twidth\theight\tconf\ttext\n5\t1\t1\t1\t1\t1\t10\t20\t30\t40\t91.5\thi\n'`)
	words, err := c.ImageToData(context.Background(), FromBytes([]byte("img")))
	if err != nil {
		t.Fatalf("ImageToData() error: %v", err)
	}
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0].Text != "hi" || words[0].Confidence != 91.5 {
		t.Errorf("unexpected word: %+v", words[0])
	}
}

func TestImageToOSD(t *testing.T) {
	c := fakeBinary(t, `printf 'Page number: 0\nRotate: 180\nOrientation in degrees: 180\nOrientation confidence: 3.11\nScript: Latin\nScript confidence: 1.90\n'`)
	osd, err := c.ImageToOSD(context.Background(), FromBytes([]byte("img")))
	if err != nil {
		t.Fatalf("ImageToOSD() error: %v", err)
	}
	if osd.Rotate != 180 || osd.Script != "Latin" || osd.ScriptConfidence != 1.90 {
		t.Errorf("unexpected OSD: %+v", osd)
	}
}

func TestConfidence(t *testing.T) {
	c := fakeBinary(t, `printf 'Script: Latin\nScript confidence: 2.44\n'`)
	conf, err := c.Confidence(context.Background(), FromBytes([]byte("img")))
	if err != nil {
		t.Fatalf("Confidence() error: %v", err)
	}
	if conf != 2.44 {
		t.Errorf("Confidence() = %v, want 2.44", conf)
	}
}

func TestConfidenceAbsent(t *testing.T) {
	c := fakeBinary(t, `printf 'nothing relevant\n'`)
	conf, err := c.Confidence(context.Background(), FromBytes([]byte("img")))
	if err != nil {
		t.Fatalf("Confidence() error: %v", err)
	}
	if conf != 0 {
		t.Errorf("Confidence() = %v, want 0", conf)
	}
}

func TestDeskew(t *testing.T) {
	c := fakeBinary(t, `printf 'Deskew angle: 0.1024\n' >&2`)
	angle, err := c.Deskew(context.Background(), "/tmp/any.png")
	if err != nil {
		t.Fatalf("Deskew() error: %v", err)
	}
	if angle != 0.1024 {
		t.Errorf("Deskew() = %v, want 0.1024", angle)
	}
}

func TestDeskewRequiresPath(t *testing.T) {
	c := fakeBinary(t, `true`)
	_, err := c.Deskew(context.Background(), "")
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Errorf("expected ErrUnsupportedInput, got %v", err)
	}
}

func TestParametersListing(t *testing.T) {
	c := fakeBinary(t, `printf 'editor_image_xpos\t590\tEditor image X Pos\n'`)
	params, err := c.Parameters(context.Background())
	if err != nil {
		t.Fatalf("Parameters() error: %v", err)
	}
	if len(params) != 1 || params[0].Name != "editor_image_xpos" {
		t.Errorf("unexpected parameters: %+v", params)
	}
}

func TestRunNonzeroExit(t *testing.T) {
	c := fakeBinary(t, `echo "could not initialize" >&2; exit 1`)
	_, err := c.ImageToString(context.Background(), FromBytes([]byte("img")))
	if err == nil {
		t.Fatal("expected error")
	}
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
	if runtimeErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", runtimeErr.ExitCode)
	}
	if !strings.Contains(runtimeErr.Stderr, "could not initialize") {
		t.Errorf("Stderr = %q", runtimeErr.Stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	c := fakeBinary(t, `sleep 5`)
	_, err := c.ImageToString(context.Background(), FromBytes([]byte("img")),
		WithTimeout(50*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestAvailableMissingBinary(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "no-such-binary"))
	if err := c.Available(context.Background()); err == nil {
		t.Error("expected error for missing binary")
	}
}
