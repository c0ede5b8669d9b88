package tesseract

import (
	"reflect"
	"testing"
	"time"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		formats []string
		want    []string
	}{
		{
			name: "defaults",
			want: []string{"stdin", "stdout", "-l", "eng", "--dpi", "300", "--psm", "3", "--oem", "3"},
		},
		{
			name:    "hocr format",
			formats: []string{"hocr"},
			want:    []string{"stdin", "stdout", "-l", "eng", "--dpi", "300", "--psm", "3", "--oem", "3", "hocr"},
		},
		{
			name: "custom language and modes",
			opts: []Option{WithLanguage("deu+eng"), WithDPI(150), WithPSM(6), WithOEM(1)},
			want: []string{"stdin", "stdout", "-l", "deu+eng", "--dpi", "150", "--psm", "6", "--oem", "1"},
		},
		{
			name: "user files and tessdata dir",
			opts: []Option{
				WithUserWords("/tmp/words.txt"),
				WithUserPatterns("/tmp/patterns.txt"),
				WithTessdataDir("/opt/tessdata"),
			},
			want: []string{
				"stdin", "stdout", "-l", "eng", "--dpi", "300", "--psm", "3", "--oem", "3",
				"--user-words", "/tmp/words.txt",
				"--user-patterns", "/tmp/patterns.txt",
				"--tessdata-dir", "/opt/tessdata",
			},
		},
		{
			name: "config variables keep insertion order",
			opts: []Option{
				WithConfigVariable("tessedit_create_tsv", "1"),
				WithConfigVariable("preserve_interword_spaces", "1"),
			},
			want: []string{
				"stdin", "stdout", "-l", "eng", "--dpi", "300", "--psm", "3", "--oem", "3",
				"-c", "tessedit_create_tsv=1",
				"-c", "preserve_interword_spaces=1",
			},
		},
		{
			name:    "multiple output formats",
			formats: []string{"txt", "pdf", "tsv"},
			want: []string{
				"stdin", "stdout", "-l", "eng", "--dpi", "300", "--psm", "3", "--oem", "3",
				"txt", "pdf", "tsv",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOptions(tt.opts)
			got := buildArgs("stdin", "stdout", o, tt.formats...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewOptionsDefaults(t *testing.T) {
	o := newOptions(nil)
	if o.lang != DefaultLanguage {
		t.Errorf("lang = %q, want %q", o.lang, DefaultLanguage)
	}
	if o.dpi != DefaultDPI || o.psm != DefaultPSM || o.oem != DefaultOEM {
		t.Errorf("unexpected numeric defaults: %+v", o)
	}
	if o.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", o.timeout, DefaultTimeout)
	}
}

func TestWithTimeout(t *testing.T) {
	o := newOptions([]Option{WithTimeout(5 * time.Second)})
	if o.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want %v", o.timeout, 5*time.Second)
	}
}
