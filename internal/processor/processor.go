/**
 * Document processor for the OCR worker.
 *
 * Orchestrates the recognition pipeline for one job:
 * - load the image from buffer or URL
 * - verify the format against magic bytes
 * - recognize through the engine cascade (CLI first, in-process fallback)
 * - rebuild layout from word geometry
 * - render a searchable PDF and upload it as an artifact
 * - embed the text and store everything in PostgreSQL + Qdrant
 */

package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/docpipe/ocr-worker/internal/clients"
	ocrerrors "github.com/docpipe/ocr-worker/internal/errors"
	"github.com/docpipe/ocr-worker/internal/logging"
	"github.com/docpipe/ocr-worker/internal/storage"
	"github.com/docpipe/ocr-worker/internal/tesseract"
)

// DocumentProcessorInterface defines the interface for document processing
type DocumentProcessorInterface interface {
	ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string, progress int, metadata map[string]interface{}) error
}

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	TesseractPath     string
	Language          string
	DPI               int
	TempDir           string
	MaxFileSize       int64
	ProcessingTimeout time.Duration
	StorageManager    *storage.StorageManager
	EmbeddingAPIURL   string
	EmbeddingAPIKey   string
	ArtifactAPIURL    string
}

// ProcessRequest represents a document processing request
type ProcessRequest struct {
	JobID      string
	UserID     string
	Filename   string
	MimeType   string
	FileSize   int64
	FileURL    string
	FileBuffer []byte
	Metadata   map[string]interface{}
}

// ProcessResult represents the processing result
type ProcessResult struct {
	DocumentID         string
	Confidence         float64
	EngineUsed         string
	WordsRecognized    int
	RegionsExtracted   int
	TablesExtracted    int
	EmbeddingGenerated bool
	PDFArtifactID      string
	ProcessingTimeMs   int64
}

// DocumentProcessor handles document processing
type DocumentProcessor struct {
	config          *ProcessorConfig
	storage         *storage.StorageManager
	tess            *tesseract.Client
	engines         []Engine
	layoutAnalyzer  *LayoutAnalyzer
	embeddingClient *EmbeddingClient
	artifactClient  *clients.ArtifactClient
	logger          *logging.Logger
}

// NewDocumentProcessor creates a new document processor
func NewDocumentProcessor(cfg *ProcessorConfig) (*DocumentProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.StorageManager == nil {
		return nil, fmt.Errorf("storage manager is required")
	}

	logger := logging.NewLogger("Processor")

	tess := tesseract.NewClient(cfg.TesseractPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tess.Available(ctx); err != nil {
		logger.Warn("Tesseract binary probe failed, CLI engine may be unavailable", "error", err)
	}

	// CLI first: it yields the full word data table. The in-process engine
	// covers environments where spawning is restricted.
	engines := []Engine{
		NewCLIEngine(tess),
		NewGosseractEngine(""),
	}

	var embeddingClient *EmbeddingClient
	if cfg.EmbeddingAPIURL != "" && cfg.EmbeddingAPIKey != "" {
		var err error
		embeddingClient, err = NewEmbeddingClient(cfg.EmbeddingAPIURL, cfg.EmbeddingAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding client: %w", err)
		}
	} else {
		logger.Warn("Embedding service not configured, documents will not be indexed for semantic search")
	}

	var artifactClient *clients.ArtifactClient
	if cfg.ArtifactAPIURL != "" {
		artifactClient = clients.NewArtifactClient(cfg.ArtifactAPIURL)
		hctx, hcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer hcancel()
		if err := artifactClient.HealthCheck(hctx); err != nil {
			logger.Warn("Artifact service health check failed, searchable PDFs may not be stored", "error", err)
		}
	} else {
		logger.Warn("Artifact service not configured, searchable PDFs will not be stored")
	}

	return &DocumentProcessor{
		config:          cfg,
		storage:         cfg.StorageManager,
		tess:            tess,
		engines:         engines,
		layoutAnalyzer:  NewLayoutAnalyzer(),
		embeddingClient: embeddingClient,
		artifactClient:  artifactClient,
		logger:          logger,
	}, nil
}

// ProcessDocument processes a document through the complete pipeline
func (p *DocumentProcessor) ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	start := time.Now()
	log := p.logger.WithJob(req.JobID)
	log.Info("Starting processing pipeline", "filename", req.Filename)

	// Step 1: load file
	fileData, err := p.loadFile(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	if p.config.MaxFileSize > 0 && int64(len(fileData)) > p.config.MaxFileSize {
		return nil, fmt.Errorf("file size exceeds maximum: %d > %d bytes",
			len(fileData), p.config.MaxFileSize)
	}

	// Step 2: verify format from magic bytes. Upstream MIME hints are often
	// application/octet-stream.
	detectedMime := detectMimeTypeFromMagicBytes(fileData)
	if detectedMime != "" && (req.MimeType == "" || req.MimeType == "application/octet-stream") {
		log.Info("Corrected MIME type from magic bytes", "was", req.MimeType, "now", detectedMime)
		req.MimeType = detectedMime
	}
	if !isSupportedImage(req.MimeType) {
		return nil, ocrerrors.NewUnsupportedFormatError(req.JobID, req.MimeType)
	}

	// Step 3: orientation and script detection. Advisory only; a failed OSD
	// pass never fails the job.
	osd, osdErr := p.tess.ImageToOSD(ctx, tesseract.FromBytes(fileData),
		tesseract.WithDPI(p.config.DPI),
		tesseract.WithTimeout(p.config.ProcessingTimeout))
	if osdErr != nil {
		log.Warn("OSD pass failed", "error", osdErr)
	} else {
		log.Info("OSD complete", "rotate", osd.Rotate, "script", osd.Script,
			"scriptConfidence", osd.ScriptConfidence)
	}

	// Step 4: recognition through the engine cascade
	engineOpts := EngineOptions{
		Language: p.config.Language,
		DPI:      p.config.DPI,
		Timeout:  p.config.ProcessingTimeout,
	}

	var ocrResult *OCRResult
	var lastErr error
	for _, engine := range p.engines {
		log.Info("Attempting OCR", "engine", engine.Name())
		result, err := engine.Recognize(ctx, fileData, engineOpts)
		if err != nil {
			log.Warn("Engine failed", "engine", engine.Name(), "error", err)
			lastErr = err
			continue
		}
		log.Info("OCR complete", "engine", engine.Name(),
			"confidence", result.MeanConfidence, "words", len(result.Words),
			"duration", result.Duration)
		ocrResult = result
		break
	}
	if ocrResult == nil {
		return nil, ocrerrors.NewOCRFailedError(req.JobID, "all", lastErr)
	}

	// Step 5: layout analysis
	layoutResult := p.layoutAnalyzer.Analyze(ocrResult)
	log.Info("Layout analysis complete",
		"regions", len(layoutResult.Regions), "tables", len(layoutResult.Tables))

	// Step 6: searchable PDF. Non-fatal; the recognized text is already in
	// hand if rendering or upload fails.
	pdfArtifactID := p.renderAndUploadPDF(ctx, req, fileData, ocrResult, log)

	// Step 7: optional embedding
	var embedding []float32
	if p.embeddingClient != nil && len(strings.TrimSpace(ocrResult.Text)) > 0 {
		embedding, err = p.embeddingClient.GenerateEmbedding(ctx, ocrResult.Text)
		if err != nil {
			log.Warn("Embedding generation failed, storing without vector", "error", err)
			embedding = nil
		} else {
			log.Info("Embedding generated", "dimensions", len(embedding))
		}
	}

	// Step 8: store document
	layoutData := buildLayoutData(req, ocrResult, layoutResult, osd, osdErr == nil)
	stored, err := p.storage.StoreDocument(ctx, &storage.DocumentInput{
		JobID:          req.JobID,
		Text:           ocrResult.Text,
		MeanConfidence: ocrResult.MeanConfidence,
		EngineUsed:     ocrResult.Engine,
		Layout:         layoutData,
		Embedding:      embedding,
		PDFArtifactID:  pdfArtifactID,
	})
	if err != nil {
		return nil, ocrerrors.NewStorageFailedError(req.JobID, err)
	}
	log.Info("Document stored", "documentId", stored.ID, "qdrantPointId", stored.QdrantPointID)

	result := &ProcessResult{
		DocumentID:         stored.ID,
		Confidence:         ocrResult.MeanConfidence,
		EngineUsed:         ocrResult.Engine,
		WordsRecognized:    len(ocrResult.Words),
		RegionsExtracted:   len(layoutResult.Regions),
		TablesExtracted:    len(layoutResult.Tables),
		EmbeddingGenerated: embedding != nil,
		PDFArtifactID:      pdfArtifactID,
		ProcessingTimeMs:   time.Since(start).Milliseconds(),
	}

	log.Info("Processing pipeline complete",
		"documentId", stored.ID, "confidence", result.Confidence,
		"durationMs", result.ProcessingTimeMs)

	return result, nil
}

// renderAndUploadPDF renders the searchable PDF and uploads it when an
// artifact service is configured. Returns the artifact ID or empty.
func (p *DocumentProcessor) renderAndUploadPDF(ctx context.Context, req *ProcessRequest, fileData []byte, ocrResult *OCRResult, log *logging.Logger) string {
	if p.artifactClient == nil {
		return ""
	}

	pdfBytes, err := p.tess.ImageToPDF(ctx, tesseract.FromBytes(fileData),
		tesseract.WithLanguage(p.config.Language),
		tesseract.WithDPI(p.config.DPI),
		tesseract.WithTimeout(p.config.ProcessingTimeout))
	if err != nil {
		log.Warn("Searchable PDF rendering failed", "error", err)
		return ""
	}

	resp, err := p.artifactClient.UploadArtifact(ctx, &clients.ArtifactUploadRequest{
		FileBuffer:    pdfBytes,
		Filename:      pdfFilename(req.Filename),
		MimeType:      "application/pdf",
		SourceService: "ocr-worker",
		SourceID:      req.JobID,
		Metadata: map[string]interface{}{
			"engine":     ocrResult.Engine,
			"confidence": ocrResult.MeanConfidence,
		},
	})
	if err != nil {
		log.Warn("Searchable PDF upload failed", "error", err)
		return ""
	}

	log.Info("Searchable PDF stored", "artifactId", resp.Artifact.ID)
	return resp.Artifact.ID
}

// pdfFilename derives the artifact name from the source filename.
func pdfFilename(source string) string {
	if source == "" {
		return "document.pdf"
	}
	if idx := strings.LastIndex(source, "."); idx > 0 {
		source = source[:idx]
	}
	return source + ".pdf"
}

// buildLayoutData flattens the analysis results into the JSONB layout column.
func buildLayoutData(req *ProcessRequest, ocrResult *OCRResult, layoutResult *LayoutResult, osd tesseract.OSD, osdOK bool) map[string]interface{} {
	data := map[string]interface{}{
		"regions":      layoutResult.Regions,
		"tables":       layoutResult.Tables,
		"readingOrder": layoutResult.ReadingOrder,
		"metadata": map[string]interface{}{
			"filename":   req.Filename,
			"mimeType":   req.MimeType,
			"fileSize":   req.FileSize,
			"engine":     ocrResult.Engine,
			"confidence": ocrResult.MeanConfidence,
			"wordCount":  len(ocrResult.Words),
		},
	}
	if osdOK {
		data["orientation"] = map[string]interface{}{
			"rotate":                osd.Rotate,
			"orientation":           osd.Orientation,
			"orientationConfidence": osd.OrientationConfidence,
			"script":                osd.Script,
			"scriptConfidence":      osd.ScriptConfidence,
		}
	}
	return data
}

// UpdateJobStatus updates job status in database
func (p *DocumentProcessor) UpdateJobStatus(ctx context.Context, jobID string, status string, progress int, metadata map[string]interface{}) error {
	update := &storage.JobUpdate{
		JobID:    jobID,
		Status:   status,
		Metadata: metadata,
	}

	if metadata != nil {
		if confidence, ok := metadata["confidence"].(float64); ok {
			update.Confidence = confidence
		}
		if processingTime, ok := metadata["processingTime"].(int64); ok {
			update.ProcessingTimeMs = processingTime
		}
		if documentID, ok := metadata["documentId"].(string); ok {
			update.DocumentID = documentID
		}
		if engineUsed, ok := metadata["engineUsed"].(string); ok {
			update.EngineUsed = engineUsed
		}
		if errorMsg, ok := metadata["error"].(string); ok {
			update.ErrorCode = "PROCESSING_ERROR"
			update.ErrorMessage = errorMsg
		}
	}

	return p.storage.UpdateJobStatus(ctx, update)
}

// loadFile loads file from URL or buffer
func (p *DocumentProcessor) loadFile(ctx context.Context, req *ProcessRequest) ([]byte, error) {
	if len(req.FileBuffer) > 0 {
		return req.FileBuffer, nil
	}

	if req.FileURL != "" {
		return p.downloadFile(ctx, req.JobID, req.FileURL)
	}

	return nil, fmt.Errorf("no file source provided (buffer or URL)")
}

// downloadFile fetches the image with retries and exponential backoff.
func (p *DocumentProcessor) downloadFile(ctx context.Context, jobID string, fileURL string) ([]byte, error) {
	const (
		maxRetries       = 5
		initialBackoffMs = 1000
		maxBackoffMs     = 32000
	)

	log := p.logger.WithJob(jobID)
	client := &http.Client{Timeout: 5 * time.Minute}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, err := p.tryDownload(ctx, client, fileURL)
		if err == nil {
			log.Info("Download successful", "attempt", attempt, "bytes", len(data))
			return data, nil
		}

		lastErr = err
		log.Warn("Download attempt failed", "attempt", attempt, "error", err)

		if attempt == maxRetries {
			break
		}

		backoffMs := initialBackoffMs * int(math.Pow(2, float64(attempt-1)))
		if backoffMs > maxBackoffMs {
			backoffMs = maxBackoffMs
		}
		select {
		case <-time.After(time.Duration(backoffMs) * time.Millisecond):
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("failed to download file after %d attempts: %w", maxRetries, lastErr)
}

func (p *DocumentProcessor) tryDownload(ctx context.Context, client *http.Client, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	maxReadBytes := p.config.MaxFileSize
	if maxReadBytes <= 0 {
		maxReadBytes = 1 << 30
	}
	if resp.ContentLength > maxReadBytes {
		return nil, fmt.Errorf("file size exceeds maximum: %d > %d bytes",
			resp.ContentLength, maxReadBytes)
	}

	// Read one byte past the limit so an oversized body is detectable.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > maxReadBytes {
		return nil, fmt.Errorf("file size exceeds maximum: %d bytes limit", maxReadBytes)
	}

	return data, nil
}

// isSupportedImage reports whether the MIME type is an image format the
// recognition engines accept over stdin.
func isSupportedImage(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg", "image/tiff", "image/bmp", "image/gif", "image/webp":
		return true
	}
	return false
}

// detectMimeTypeFromMagicBytes detects the actual MIME type from file content.
func detectMimeTypeFromMagicBytes(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	// PNG: 0x89 'P' 'N' 'G' 0x0D 0x0A 0x1A 0x0A
	if len(data) >= 8 && bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "image/png"
	}

	// JPEG: 0xFF 0xD8 0xFF
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return "image/jpeg"
	}

	// GIF
	if bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")) {
		return "image/gif"
	}

	// WebP: RIFF container with WEBP tag
	if len(data) > 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}

	// TIFF: little-endian or big-endian byte order mark
	if bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}) || bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}) {
		return "image/tiff"
	}

	// BMP
	if bytes.HasPrefix(data, []byte("BM")) {
		return "image/bmp"
	}

	// PDF: recognized so the rejection names the real format
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "application/pdf"
	}

	return ""
}
