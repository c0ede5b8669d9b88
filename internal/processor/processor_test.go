package processor

import "testing"

func TestDetectMimeTypeFromMagicBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"gif87a", []byte("GIF87a...."), "image/gif"},
		{"gif89a", []byte("GIF89a...."), "image/gif"},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBPV"), "image/webp"},
		{"tiff little endian", []byte{0x49, 0x49, 0x2A, 0x00, 0x01}, "image/tiff"},
		{"tiff big endian", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x01}, "image/tiff"},
		{"bmp", []byte("BM\x00\x00\x00\x00"), "image/bmp"},
		{"pdf", []byte("%PDF-1.7"), "application/pdf"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03, 0x04}, ""},
		{"too short", []byte{0x89, 0x50}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMimeTypeFromMagicBytes(tt.data); got != tt.want {
				t.Errorf("detectMimeTypeFromMagicBytes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSupportedImage(t *testing.T) {
	supported := []string{"image/png", "image/jpeg", "image/tiff", "image/bmp", "image/gif", "image/webp"}
	for _, m := range supported {
		if !isSupportedImage(m) {
			t.Errorf("isSupportedImage(%q) = false, want true", m)
		}
	}
	unsupported := []string{"application/pdf", "text/plain", "application/octet-stream", ""}
	for _, m := range unsupported {
		if isSupportedImage(m) {
			t.Errorf("isSupportedImage(%q) = true, want false", m)
		}
	}
}

func TestPdfFilename(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"scan.png", "scan.pdf"},
		{"archive.tar.gz", "archive.tar.pdf"},
		{"noextension", "noextension.pdf"},
		{"", "document.pdf"},
	}
	for _, tt := range tests {
		if got := pdfFilename(tt.source); got != tt.want {
			t.Errorf("pdfFilename(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
