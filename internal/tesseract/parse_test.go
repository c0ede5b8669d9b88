package tesseract

import (
	"reflect"
	"testing"
)

func TestParseBoxes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Box
	}{
		{
			name:  "single box",
			input: "h 26 32 42 60 0\n",
			want: []Box{
				{Char: "h", Left: 26, Bottom: 32, Right: 42, Top: 60, Page: 0},
			},
		},
		{
			name:  "multiple boxes",
			input: "a 1 2 3 4 0\nb 5 6 7 8 0\n",
			want: []Box{
				{Char: "a", Left: 1, Bottom: 2, Right: 3, Top: 4, Page: 0},
				{Char: "b", Left: 5, Bottom: 6, Right: 7, Top: 8, Page: 0},
			},
		},
		{
			name:  "malformed lines skipped",
			input: "a 1 2 3 4 0\nnot a box line\nx 1 2\nb nope 2 3 4 0\n",
			want: []Box{
				{Char: "a", Left: 1, Bottom: 2, Right: 3, Top: 4, Page: 0},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseBoxes([]byte(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseBoxes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTSV(t *testing.T) {
	input := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t36\t92\t60\t24\t96.06\thello\n" +
		"5\t1\t1\t1\t1\t2\t104\t92\t72\t24\t95.50\tworld\n"

	words := ParseTSV([]byte(input))
	if len(words) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(words))
	}

	page := words[0]
	if page.Level != 1 || page.Text != "" || page.Confidence != -1 {
		t.Errorf("unexpected structural row: %+v", page)
	}

	w := words[1]
	if w.Level != 5 || w.Text != "hello" || w.Confidence != 96.06 {
		t.Errorf("unexpected word row: %+v", w)
	}
	if w.Left != 36 || w.Top != 92 || w.Width != 60 || w.Height != 24 {
		t.Errorf("unexpected geometry: %+v", w)
	}
	if words[2].Text != "world" {
		t.Errorf("expected second word %q, got %q", "world", words[2].Text)
	}
}

func TestParseTSVSkipsGarbage(t *testing.T) {
	input := "header\n" +
		"this line is not a data row\n" +
		"5\t1\t1\t1\t1\t1\t36\t92\t60\t24\tNaNish\ttext\n"

	if got := ParseTSV([]byte(input)); got != nil {
		t.Errorf("expected no rows, got %+v", got)
	}
}

func TestParseOSD(t *testing.T) {
	input := `Page number: 0
Orientation in degrees: 270
Rotate: 90
Orientation confidence: 8.21
Script: Latin
Script confidence: 2.55
`
	osd := parseOSD([]byte(input))
	if osd.Page != 0 || osd.Rotate != 90 {
		t.Errorf("unexpected page/rotate: %+v", osd)
	}
	if osd.Orientation != 270 || osd.OrientationConfidence != 8.21 {
		t.Errorf("unexpected orientation: %+v", osd)
	}
	if osd.Script != "Latin" || osd.ScriptConfidence != 2.55 {
		t.Errorf("unexpected script: %+v", osd)
	}
}

func TestParseOSDMissingKeys(t *testing.T) {
	osd := parseOSD([]byte("Script: Cyrillic\nsome diagnostic line\n"))
	if osd.Script != "Cyrillic" {
		t.Errorf("expected script Cyrillic, got %q", osd.Script)
	}
	if osd.Rotate != 0 || osd.ScriptConfidence != 0 {
		t.Errorf("expected zero values for missing keys: %+v", osd)
	}
}

func TestParseParameters(t *testing.T) {
	input := "textord_debug_tabfind\t0\tDebug tab finding\n" +
		"classify_num_cp_levels\t3\tNumber of Class Pruner Levels\n" +
		"invalid line without structure\n"

	params := parseParameters([]byte(input))
	if len(params) < 2 {
		t.Fatalf("expected at least 2 parameters, got %d", len(params))
	}
	if params[0].Name != "textord_debug_tabfind" || params[0].DefaultValue != "0" {
		t.Errorf("unexpected first parameter: %+v", params[0])
	}
	if params[1].Description != "Number of Class Pruner Levels" {
		t.Errorf("unexpected description: %q", params[1].Description)
	}
}

func TestParseScriptConfidence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"present", "Script: Latin\nScript confidence: 2.44\n", 2.44},
		{"absent", "no report here\n", 0},
		{"integer value", "Script confidence: 4\n", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseScriptConfidence([]byte(tt.input)); got != tt.want {
				t.Errorf("parseScriptConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDeskewAngle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"positive", "Deskew angle: 0.1024\n", 0.1024},
		{"negative", "Tesseract Open Source OCR Engine\nDeskew angle: -1.5\n", -1.5},
		{"absent", "Tesseract Open Source OCR Engine\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDeskewAngle([]byte(tt.input)); got != tt.want {
				t.Errorf("parseDeskewAngle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	input := "tesseract 5.3.4\n leptonica-1.83.1\n"
	if got := parseVersion([]byte(input)); got != "5.3.4" {
		t.Errorf("parseVersion() = %q, want %q", got, "5.3.4")
	}
	if got := parseVersion([]byte("")); got != "" {
		t.Errorf("parseVersion(empty) = %q, want empty", got)
	}
}

func TestParseLanguages(t *testing.T) {
	input := "List of available languages in \"/usr/share/tessdata/\" (3):\neng\ndeu\nosd\nnot_a_language\n"
	got := parseLanguages([]byte(input))
	want := []string{"eng", "deu", "osd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseLanguages() = %v, want %v", got, want)
	}
}
