package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docpipe/ocr-worker/internal/tesseract"
)

func TestCLIEngineRecognize(t *testing.T) {
	// Stand-in binary producing the text and data files of a multi-format run.
	script := `#!/bin/sh
printf 'hello world\n' > "$2.txt"
printf 'level\tpage\tblock\tpar\tline\tword\tleft\ttop\twidth\theight\tconf\ttext\n' > "$2.tsv"
printf '1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n' >> "$2.tsv"
printf '5\t1\t1\t1\t1\t1\t10\t20\t30\t12\t90\thello\n' >> "$2.tsv"
printf '5\t1\t1\t1\t1\t2\t50\t20\t40\t12\t80\tworld\n' >> "$2.tsv"
`
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	engine := NewCLIEngine(tesseract.NewClient(path))
	result, err := engine.Recognize(context.Background(), []byte("img"), EngineOptions{})
	if err != nil {
		t.Fatalf("Recognize() error: %v", err)
	}

	if result.Text != "hello world\n" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Engine != "tesseract-cli" {
		t.Errorf("Engine = %q", result.Engine)
	}

	// Structural rows are dropped; only the two level-5 words survive.
	if len(result.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(result.Words))
	}
	if result.Words[0].Text != "hello" || result.Words[1].Text != "world" {
		t.Errorf("unexpected words: %+v", result.Words)
	}
	if result.Words[0].Confidence != 0.90 {
		t.Errorf("word confidence = %v, want 0.90", result.Words[0].Confidence)
	}
	if result.MeanConfidence < 0.849 || result.MeanConfidence > 0.851 {
		t.Errorf("mean confidence = %v, want ~0.85", result.MeanConfidence)
	}
	if got := result.Words[1].BoundingBox; got.X != 50 || got.Y != 20 || got.Width != 40 {
		t.Errorf("unexpected geometry: %+v", got)
	}
}
