/**
 * Shared data structures for OCR results.
 */

package processor

import (
	"time"
)

// OCRResult represents the result of recognizing one image.
type OCRResult struct {
	Text           string
	MeanConfidence float64 // 0.0 to 1.0, averaged over recognized words
	Words          []OCRWord
	Engine         string // which engine produced the result
	Duration       time.Duration
}

// OCRWord represents a single recognized word with its position.
type OCRWord struct {
	Text        string
	Confidence  float64 // 0.0 to 1.0
	BoundingBox BoundingBox
	Block       int
	Paragraph   int
	Line        int
}

// BoundingBox represents coordinates of a region, origin top-left.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// union grows the box to cover other. A zero-area box is replaced outright.
func (b BoundingBox) union(other BoundingBox) BoundingBox {
	if b.Width == 0 && b.Height == 0 {
		return other
	}
	x1 := min(b.X, other.X)
	y1 := min(b.Y, other.Y)
	x2 := max(b.X+b.Width, other.X+other.Width)
	y2 := max(b.Y+b.Height, other.Y+other.Height)
	return BoundingBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
