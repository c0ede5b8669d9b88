/**
 * OCR engines.
 *
 * Two engines share one interface: the CLI engine spawns the tesseract
 * binary per image, the gosseract engine runs recognition in-process through
 * the C API. The CLI engine is primary because it yields the full data table;
 * the gosseract engine serves as fallback when spawning fails.
 */

package processor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/docpipe/ocr-worker/internal/tesseract"
)

// EngineOptions carries per-job recognition settings.
type EngineOptions struct {
	Language    string
	DPI         int
	Timeout     time.Duration
	TessdataDir string
}

// Engine performs OCR on a single image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, opts EngineOptions) (*OCRResult, error)
}

// CLIEngine recognizes images by invoking the tesseract binary.
type CLIEngine struct {
	client *tesseract.Client
}

// NewCLIEngine creates an engine backed by the given client.
func NewCLIEngine(client *tesseract.Client) *CLIEngine {
	return &CLIEngine{client: client}
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Recognize extracts text plus the word-level data table in a single
// multi-format invocation.
func (e *CLIEngine) Recognize(ctx context.Context, image []byte, opts EngineOptions) (*OCRResult, error) {
	start := time.Now()
	tessOpts := engineOptionsToClientOptions(opts)

	run, err := e.client.Run(ctx, image, "result", []string{"txt", "tsv"}, tessOpts...)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}
	defer run.Cleanup()

	textBytes, err := os.ReadFile(run.Paths["txt"])
	if err != nil {
		return nil, fmt.Errorf("read text output: %w", err)
	}
	text := string(textBytes)

	tsvBytes, err := os.ReadFile(run.Paths["tsv"])
	if err != nil {
		return nil, fmt.Errorf("read data output: %w", err)
	}
	rows := tesseract.ParseTSV(tsvBytes)

	words := make([]OCRWord, 0, len(rows))
	confSum := 0.0
	confCount := 0
	for _, row := range rows {
		// Level 5 rows are words; structural rows carry -1 confidence.
		if row.Level != 5 || row.Confidence < 0 {
			continue
		}
		words = append(words, OCRWord{
			Text:       row.Text,
			Confidence: row.Confidence / 100,
			BoundingBox: BoundingBox{
				X:      row.Left,
				Y:      row.Top,
				Width:  row.Width,
				Height: row.Height,
			},
			Block:     row.Block,
			Paragraph: row.Paragraph,
			Line:      row.Line,
		})
		confSum += row.Confidence
		confCount++
	}

	mean := 0.0
	if confCount > 0 {
		mean = confSum / float64(confCount) / 100
	}

	return &OCRResult{
		Text:           text,
		MeanConfidence: mean,
		Words:          words,
		Engine:         e.Name(),
		Duration:       time.Since(start),
	}, nil
}

func engineOptionsToClientOptions(opts EngineOptions) []tesseract.Option {
	var out []tesseract.Option
	if opts.Language != "" {
		out = append(out, tesseract.WithLanguage(opts.Language))
	}
	if opts.DPI > 0 {
		out = append(out, tesseract.WithDPI(opts.DPI))
	}
	if opts.Timeout > 0 {
		out = append(out, tesseract.WithTimeout(opts.Timeout))
	}
	if opts.TessdataDir != "" {
		out = append(out, tesseract.WithTessdataDir(opts.TessdataDir))
	}
	return out
}

// GosseractEngine recognizes images in-process via the Tesseract C API.
type GosseractEngine struct {
	tessdataDir string
}

// NewGosseractEngine creates the in-process fallback engine.
func NewGosseractEngine(tessdataDir string) *GosseractEngine {
	return &GosseractEngine{tessdataDir: tessdataDir}
}

func (e *GosseractEngine) Name() string { return "gosseract" }

// Recognize extracts text and word boxes in a single in-process pass. The
// gosseract client is not safe for reuse across goroutines, so each call
// creates its own.
func (e *GosseractEngine) Recognize(ctx context.Context, image []byte, opts EngineOptions) (*OCRResult, error) {
	start := time.Now()

	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataDir != "" {
		client.SetTessdataPrefix(e.tessdataDir)
	}
	if opts.Language != "" {
		if err := client.SetLanguage(opts.Language); err != nil {
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get word boxes: %w", err)
	}

	words := make([]OCRWord, 0, len(boxes))
	confSum := 0.0
	for _, box := range boxes {
		words = append(words, OCRWord{
			Text:       box.Word,
			Confidence: box.Confidence / 100,
			BoundingBox: BoundingBox{
				X:      box.Box.Min.X,
				Y:      box.Box.Min.Y,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
		})
		confSum += box.Confidence
	}

	mean := 0.0
	if len(boxes) > 0 {
		mean = confSum / float64(len(boxes)) / 100
	}

	return &OCRResult{
		Text:           text,
		MeanConfidence: mean,
		Words:          words,
		Engine:         e.Name(),
		Duration:       time.Since(start),
	}, nil
}
