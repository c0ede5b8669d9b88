/**
 * Parsers for Tesseract's textual output formats.
 *
 * Parsing is line-oriented and best-effort: lines that do not match the
 * expected shape are skipped rather than surfaced as errors, mirroring the
 * loose structure of the upstream formats.
 */

package tesseract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	parameterRe        = regexp.MustCompile(`^(\w+)\s+(-?\d+\.?\d*|\S*)\s+(.*)$`)
	scriptConfidenceRe = regexp.MustCompile(`(?m)^Script confidence:\s*([0-9]+\.?[0-9]*)`)
	deskewAngleRe      = regexp.MustCompile(`Deskew angle:\s*(-?[0-9]+\.?[0-9]*)`)
)

// parseBoxes decodes `makebox` output. Each line is
// "char left bottom right top page"; short or malformed lines are skipped.
func parseBoxes(data []byte) []Box {
	var boxes []Box
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 6 {
			continue
		}
		nums := make([]int, 5)
		ok := true
		for i := 0; i < 5; i++ {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				ok = false
				break
			}
			nums[i] = n
		}
		if !ok {
			continue
		}
		boxes = append(boxes, Box{
			Char:   fields[0],
			Left:   nums[0],
			Bottom: nums[1],
			Right:  nums[2],
			Top:    nums[3],
			Page:   nums[4],
		})
	}
	return boxes
}

// ParseTSV decodes the data table produced by tessedit_create_tsv=1, either
// from a stdout capture or from a .tsv file a multi-format Run wrote. The
// header row is skipped. Structural rows (level < 5) carry no text cell;
// their Text stays empty.
func ParseTSV(data []byte) []Word {
	lines := strings.Split(string(data), "\n")
	var words []Word
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) == 1 {
			cols = strings.Fields(line)
		}
		if len(cols) < 11 {
			continue
		}
		nums := make([]int, 10)
		ok := true
		for j := 0; j < 10; j++ {
			n, err := strconv.Atoi(strings.TrimSpace(cols[j]))
			if err != nil {
				ok = false
				break
			}
			nums[j] = n
		}
		if !ok {
			continue
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		if err != nil {
			continue
		}
		w := Word{
			Level:      nums[0],
			Page:       nums[1],
			Block:      nums[2],
			Paragraph:  nums[3],
			Line:       nums[4],
			WordNum:    nums[5],
			Left:       nums[6],
			Top:        nums[7],
			Width:      nums[8],
			Height:     nums[9],
			Confidence: conf,
		}
		if len(cols) > 11 {
			w.Text = strings.Join(cols[11:], " ")
		}
		words = append(words, w)
	}
	return words
}

// parseOSD decodes the key-value orientation and script detection report.
// Unknown keys are ignored; missing keys leave the zero value in place.
func parseOSD(data []byte) OSD {
	var osd OSD
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Page number":
			osd.Page, _ = strconv.Atoi(value)
		case "Rotate":
			osd.Rotate, _ = strconv.Atoi(value)
		case "Orientation in degrees":
			osd.Orientation, _ = strconv.ParseFloat(value, 64)
		case "Orientation confidence":
			osd.OrientationConfidence, _ = strconv.ParseFloat(value, 64)
		case "Script":
			osd.Script = value
		case "Script confidence":
			osd.ScriptConfidence, _ = strconv.ParseFloat(value, 64)
		}
	}
	return osd
}

// parseParameters decodes `--print-parameters` output into Parameter records.
func parseParameters(data []byte) []Parameter {
	var params []Parameter
	for _, line := range strings.Split(string(data), "\n") {
		m := parameterRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		params = append(params, Parameter{
			Name:         m[1],
			DefaultValue: m[2],
			Description:  strings.TrimSpace(m[3]),
		})
	}
	return params
}

// parseScriptConfidence extracts the script confidence value from a PSM 0
// report; 0.0 when the line is absent.
func parseScriptConfidence(data []byte) float64 {
	m := scriptConfidenceRe.FindSubmatch(data)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDeskewAngle extracts the deskew angle a PSM 2 run reports on stderr;
// 0.0 when the line is absent.
func parseDeskewAngle(data []byte) float64 {
	m := deskewAngleRe.FindSubmatch(data)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseVersion extracts the version number from `--version` output, whose
// first line reads "tesseract <version>".
func parseVersion(data []byte) string {
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// parseLanguages filters `--list-langs` output against the known traineddata
// set, dropping the header line and anything unrecognized.
func parseLanguages(data []byte) []string {
	var langs []string
	for _, field := range strings.Fields(string(data)) {
		lang := strings.TrimSpace(field)
		if _, ok := knownLanguages[lang]; ok {
			langs = append(langs, lang)
		}
	}
	return langs
}
