/**
 * Result records parsed from Tesseract's textual output formats.
 *
 * Each record is a flat value type constructed once per invocation and never
 * mutated. Field order mirrors the column order of the corresponding output
 * format.
 */

package tesseract

// Box is one line of `makebox` output: a single recognized character with its
// bounding box in image coordinates (origin bottom-left, as tesseract emits).
type Box struct {
	Char   string
	Left   int
	Bottom int
	Right  int
	Top    int
	Page   int
}

// Word is one row of the TSV data table (`tessedit_create_tsv=1`): a layout
// element with its position in the page hierarchy, bounding box and, for
// level-5 rows, the recognized text and confidence.
type Word struct {
	Level      int
	Page       int
	Block      int
	Paragraph  int
	Line       int
	WordNum    int
	Left       int
	Top        int
	Width      int
	Height     int
	Confidence float64
	Text       string
}

// OSD is the orientation and script detection report produced by a PSM 0 run.
type OSD struct {
	Page                  int
	Rotate                int
	Orientation           float64
	OrientationConfidence float64
	Script                string
	ScriptConfidence      float64
}

// Parameter is one line of `--print-parameters`: a tunable engine variable
// with its default value and short description.
type Parameter struct {
	Name         string
	DefaultValue string
	Description  string
}
