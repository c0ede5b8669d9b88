/**
 * Layout analysis from word geometry.
 *
 * Rebuilds the document structure the engine reports through word bounding
 * boxes: one region per block, reading order top-to-bottom then
 * left-to-right, and table candidates where consecutive lines share aligned
 * column positions.
 */

package processor

import (
	"sort"
	"strings"
)

// columnAlignTolerance is the horizontal slack, in pixels, within which word
// starts on different lines count as the same column.
const columnAlignTolerance = 12

// LayoutAnalyzer derives document structure from OCR word positions.
type LayoutAnalyzer struct{}

// LayoutResult represents the result of layout analysis
type LayoutResult struct {
	Confidence   float64
	Regions      []LayoutRegion
	Tables       []Table
	ReadingOrder []int
}

// LayoutRegion represents a region in the document
type LayoutRegion struct {
	ID          int
	Type        string // "text" or "table"
	BoundingBox BoundingBox
	Confidence  float64
	Content     string
}

// Table represents a detected tabular block
type Table struct {
	ID          int
	BoundingBox BoundingBox
	Rows        []TableRow
	Confidence  float64
}

// TableRow represents a row in a table
type TableRow struct {
	RowNumber int
	Cells     []TableCell
}

// TableCell represents a cell in a table
type TableCell struct {
	ColumnNumber int
	Content      string
	BoundingBox  BoundingBox
	Confidence   float64
}

// NewLayoutAnalyzer creates a new layout analyzer
func NewLayoutAnalyzer() *LayoutAnalyzer {
	return &LayoutAnalyzer{}
}

// lineWords is one recognized line within a block, words in x order.
type lineWords struct {
	line  int
	words []OCRWord
}

// Analyze builds regions, tables and reading order from an OCR result. A
// result without word geometry yields a single full-text region.
func (l *LayoutAnalyzer) Analyze(result *OCRResult) *LayoutResult {
	if len(result.Words) == 0 {
		return &LayoutResult{
			Confidence: result.MeanConfidence,
			Regions: []LayoutRegion{
				{
					ID:         0,
					Type:       "text",
					Confidence: result.MeanConfidence,
					Content:    result.Text,
				},
			},
			Tables:       []Table{},
			ReadingOrder: []int{0},
		}
	}

	blocks := groupByBlock(result.Words)

	regions := make([]LayoutRegion, 0, len(blocks))
	tables := make([]Table, 0)

	for _, lines := range blocks {
		region := buildRegion(len(regions), lines)

		if table, ok := detectTable(len(tables), lines); ok {
			region.Type = "table"
			tables = append(tables, table)
		}

		regions = append(regions, region)
	}

	readingOrder := determineReadingOrder(regions)

	return &LayoutResult{
		Confidence:   result.MeanConfidence,
		Regions:      regions,
		Tables:       tables,
		ReadingOrder: readingOrder,
	}
}

// groupByBlock splits words into blocks, each a slice of lines ordered
// top-to-bottom with words ordered left-to-right.
func groupByBlock(words []OCRWord) [][]lineWords {
	type lineKey struct {
		block int
		line  int
	}

	byLine := make(map[lineKey][]OCRWord)
	blockOrder := []int{}
	seenBlocks := map[int]bool{}

	for _, w := range words {
		k := lineKey{block: w.Block, line: w.Line}
		byLine[k] = append(byLine[k], w)
		if !seenBlocks[w.Block] {
			seenBlocks[w.Block] = true
			blockOrder = append(blockOrder, w.Block)
		}
	}

	blocks := make([][]lineWords, 0, len(blockOrder))
	for _, blockNum := range blockOrder {
		var lines []lineWords
		for k, ws := range byLine {
			if k.block != blockNum {
				continue
			}
			sort.Slice(ws, func(i, j int) bool {
				return ws[i].BoundingBox.X < ws[j].BoundingBox.X
			})
			lines = append(lines, lineWords{line: k.line, words: ws})
		}
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].line < lines[j].line
		})
		blocks = append(blocks, lines)
	}
	return blocks
}

// buildRegion collapses a block's lines into one region.
func buildRegion(id int, lines []lineWords) LayoutRegion {
	var (
		box       BoundingBox
		content   strings.Builder
		confSum   float64
		confCount int
	)

	for i, ln := range lines {
		if i > 0 {
			content.WriteByte('\n')
		}
		for j, w := range ln.words {
			if j > 0 {
				content.WriteByte(' ')
			}
			content.WriteString(w.Text)
			box = box.union(w.BoundingBox)
			confSum += w.Confidence
			confCount++
		}
	}

	conf := 0.0
	if confCount > 0 {
		conf = confSum / float64(confCount)
	}

	return LayoutRegion{
		ID:          id,
		Type:        "text",
		BoundingBox: box,
		Confidence:  conf,
		Content:     content.String(),
	}
}

// detectTable reports whether a block looks tabular: at least two lines whose
// word starts align into at least two shared columns.
func detectTable(id int, lines []lineWords) (Table, bool) {
	if len(lines) < 2 {
		return Table{}, false
	}

	columns := alignedColumns(lines)
	if len(columns) < 2 {
		return Table{}, false
	}

	var (
		tableBox  BoundingBox
		rows      []TableRow
		confSum   float64
		confCount int
	)

	for rowNum, ln := range lines {
		cells := make([]TableCell, len(columns))
		for col := range columns {
			cells[col] = TableCell{ColumnNumber: col}
		}

		for _, w := range ln.words {
			col := nearestColumn(columns, w.BoundingBox.X)
			cell := &cells[col]
			if cell.Content != "" {
				cell.Content += " "
			}
			cell.Content += w.Text
			cell.BoundingBox = cell.BoundingBox.union(w.BoundingBox)
			cell.Confidence = w.Confidence
			tableBox = tableBox.union(w.BoundingBox)
			confSum += w.Confidence
			confCount++
		}

		rows = append(rows, TableRow{RowNumber: rowNum, Cells: cells})
	}

	conf := 0.0
	if confCount > 0 {
		conf = confSum / float64(confCount)
	}

	return Table{
		ID:          id,
		BoundingBox: tableBox,
		Rows:        rows,
		Confidence:  conf,
	}, true
}

// alignedColumns returns x positions where word starts from a majority of
// lines cluster together.
func alignedColumns(lines []lineWords) []int {
	var starts []int
	for _, ln := range lines {
		for _, w := range ln.words {
			starts = append(starts, w.BoundingBox.X)
		}
	}
	sort.Ints(starts)

	var columns []int
	var clusterStart, clusterCount int
	flush := func() {
		// A column must appear on more than half the lines.
		if clusterCount*2 > len(lines) {
			columns = append(columns, clusterStart)
		}
	}
	for i, x := range starts {
		if i == 0 || x-clusterStart > columnAlignTolerance {
			if i > 0 {
				flush()
			}
			clusterStart = x
			clusterCount = 1
			continue
		}
		clusterCount++
	}
	if len(starts) > 0 {
		flush()
	}
	return columns
}

// nearestColumn maps an x position to the closest detected column index.
func nearestColumn(columns []int, x int) int {
	best := 0
	bestDist := -1
	for i, c := range columns {
		dist := x - c
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// determineReadingOrder sorts region IDs top-to-bottom, then left-to-right.
func determineReadingOrder(regions []LayoutRegion) []int {
	order := make([]int, len(regions))
	for i := range regions {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := regions[order[i]].BoundingBox, regions[order[j]].BoundingBox
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return order
}
