package queue

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJobPayloadUnmarshalBase64(t *testing.T) {
	raw := `{
		"jobId": "job-1",
		"userId": "user-1",
		"filename": "scan.png",
		"mimeType": "image/png",
		"fileSize": 3,
		"fileBuffer": "aGV5"
	}`

	var p JobPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if p.JobID != "job-1" || p.Filename != "scan.png" {
		t.Errorf("unexpected payload: %+v", p)
	}
	if !bytes.Equal(p.FileBuffer, []byte("hey")) {
		t.Errorf("FileBuffer = %q, want %q", p.FileBuffer, "hey")
	}
}

func TestJobPayloadUnmarshalNodeBuffer(t *testing.T) {
	raw := `{
		"jobId": "job-2",
		"fileBuffer": {"type": "Buffer", "data": [104, 105]}
	}`

	var p JobPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !bytes.Equal(p.FileBuffer, []byte("hi")) {
		t.Errorf("FileBuffer = %q, want %q", p.FileBuffer, "hi")
	}
}

func TestJobPayloadUnmarshalNoBuffer(t *testing.T) {
	raw := `{"jobId": "job-3", "fileUrl": "https://files.example.com/scan.png"}`

	var p JobPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if p.FileBuffer != nil {
		t.Errorf("FileBuffer = %v, want nil", p.FileBuffer)
	}
	if p.FileURL != "https://files.example.com/scan.png" {
		t.Errorf("FileURL = %q", p.FileURL)
	}
}

func TestJobPayloadUnmarshalInvalidBuffer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid base64", `{"jobId": "j", "fileBuffer": "not!!base64"}`},
		{"wrong object type", `{"jobId": "j", "fileBuffer": {"type": "Blob", "data": []}}`},
		{"missing data array", `{"jobId": "j", "fileBuffer": {"type": "Buffer"}}`},
		{"unsupported kind", `{"jobId": "j", "fileBuffer": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p JobPayload
			if err := json.Unmarshal([]byte(tt.raw), &p); err == nil {
				t.Error("expected error")
			}
		})
	}
}
