/**
 * Storage manager for the OCR worker.
 *
 * Coordinates storage across PostgreSQL (job metadata, recognized text and
 * layout) and Qdrant (text embeddings). Writes that span both systems roll
 * back the vector on a metadata failure.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// StorageManager coordinates PostgreSQL and Qdrant operations
type StorageManager struct {
	postgres *PostgresClient
	qdrant   *QdrantClient
}

// DocumentInput holds a fully processed document ready for storage. Embedding
// is optional; when nil the document is stored without a vector.
type DocumentInput struct {
	JobID          string
	Text           string
	MeanConfidence float64
	EngineUsed     string
	Layout         map[string]interface{}
	Embedding      []float32
	PDFArtifactID  string
}

// DocumentOutput represents a stored document with assigned IDs.
type DocumentOutput struct {
	ID            string
	JobID         string
	QdrantPointID string
	CreatedAt     time.Time
}

// DocumentSearchResult represents a semantic search hit.
type DocumentSearchResult struct {
	DocumentID      string
	JobID           string
	QdrantPointID   string
	Layout          map[string]interface{}
	SimilarityScore float64
	CreatedAt       time.Time
}

// NewStorageManager creates a new storage manager
func NewStorageManager(postgresURL string, qdrantAddress string, qdrantCollection string) (*StorageManager, error) {
	postgres, err := NewPostgresClient(postgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}

	qdrant, err := NewQdrantClient(qdrantAddress, qdrantCollection)
	if err != nil {
		postgres.Close()
		return nil, fmt.Errorf("failed to initialize Qdrant client: %w", err)
	}

	return &StorageManager{
		postgres: postgres,
		qdrant:   qdrant,
	}, nil
}

// StoreDocument stores a recognized document. When an embedding is present the
// vector is written to Qdrant first and deleted again if the PostgreSQL insert
// fails.
func (sm *StorageManager) StoreDocument(ctx context.Context, input *DocumentInput) (*DocumentOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("input is required")
	}

	if input.JobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	documentID := uuid.New().String()

	var qdrantPointID string
	if input.Embedding != nil {
		if len(input.Embedding) != EmbeddingDimensions {
			return nil, fmt.Errorf("invalid embedding dimensions: expected %d, got %d",
				EmbeddingDimensions, len(input.Embedding))
		}

		qdrantPointID = uuid.New().String()
		point := &VectorPoint{
			ID:     qdrantPointID,
			Vector: input.Embedding,
			Metadata: map[string]interface{}{
				"job_id":      input.JobID,
				"document_id": documentID,
				"engine":      input.EngineUsed,
				"created_at":  time.Now().Unix(),
			},
			Timestamp: time.Now().Unix(),
		}

		if err := sm.qdrant.UpsertVector(ctx, point); err != nil {
			return nil, fmt.Errorf("failed to store vector in Qdrant: %w", err)
		}
	}

	layoutJSON, err := json.Marshal(input.Layout)
	if err != nil {
		sm.rollbackVector(ctx, qdrantPointID)
		return nil, fmt.Errorf("failed to marshal layout: %w", err)
	}
	layoutJSON = sanitizeJSONForPostgres(layoutJSON)

	query := `
		INSERT INTO ocr.documents (
			id,
			job_id,
			qdrant_point_id,
			content,
			layout,
			mean_confidence,
			engine_used,
			pdf_artifact_id,
			created_at
		) VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6::NUMERIC(5,4), $7, NULLIF($8, ''), NOW())
		RETURNING created_at
	`

	var createdAt time.Time
	err = sm.postgres.db.QueryRowContext(
		ctx,
		query,
		documentID,
		input.JobID,
		qdrantPointID,
		input.Text,
		layoutJSON,
		sanitizeConfidence(input.MeanConfidence),
		input.EngineUsed,
		input.PDFArtifactID,
	).Scan(&createdAt)

	if err != nil {
		sm.rollbackVector(ctx, qdrantPointID)
		return nil, fmt.Errorf("failed to store document in PostgreSQL: %w", err)
	}

	return &DocumentOutput{
		ID:            documentID,
		JobID:         input.JobID,
		QdrantPointID: qdrantPointID,
		CreatedAt:     createdAt,
	}, nil
}

func (sm *StorageManager) rollbackVector(ctx context.Context, pointID string) {
	if pointID != "" {
		sm.qdrant.DeleteVector(ctx, pointID)
	}
}

// GetDocument retrieves a stored document and, when one exists, its vector.
func (sm *StorageManager) GetDocument(ctx context.Context, documentID string) (*StoredDocument, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document ID is required")
	}

	query := `
		SELECT
			id,
			job_id,
			COALESCE(qdrant_point_id::text, ''),
			content,
			layout,
			mean_confidence,
			engine_used,
			COALESCE(pdf_artifact_id, ''),
			created_at
		FROM ocr.documents
		WHERE id = $1
	`

	var (
		doc        StoredDocument
		layoutJSON []byte
	)

	err := sm.postgres.db.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID, &doc.JobID, &doc.QdrantPointID, &doc.Text, &layoutJSON,
		&doc.MeanConfidence, &doc.EngineUsed, &doc.PDFArtifactID, &doc.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", documentID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(layoutJSON) > 0 {
		if err := json.Unmarshal(layoutJSON, &doc.Layout); err != nil {
			return nil, fmt.Errorf("failed to unmarshal layout: %w", err)
		}
	}

	if doc.QdrantPointID != "" {
		point, err := sm.qdrant.GetVector(ctx, doc.QdrantPointID)
		if err != nil {
			return nil, fmt.Errorf("failed to get vector from Qdrant: %w", err)
		}
		doc.Embedding = point.Vector
	}

	return &doc, nil
}

// SearchSimilarDocuments performs semantic search across stored documents.
func (sm *StorageManager) SearchSimilarDocuments(ctx context.Context, queryVector []float32, limit int) ([]*DocumentSearchResult, error) {
	points, err := sm.qdrant.SearchVectors(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	results := make([]*DocumentSearchResult, 0, len(points))
	for _, point := range points {
		documentID, ok := point.Metadata["document_id"].(string)
		if !ok {
			continue
		}

		query := `
			SELECT job_id, layout, created_at
			FROM ocr.documents
			WHERE id = $1
		`

		var (
			jobID      string
			layoutJSON []byte
			createdAt  time.Time
		)

		if err := sm.postgres.db.QueryRowContext(ctx, query, documentID).Scan(&jobID, &layoutJSON, &createdAt); err != nil {
			continue
		}

		var layout map[string]interface{}
		json.Unmarshal(layoutJSON, &layout)

		score := 0.0
		switch s := point.Metadata["score"].(type) {
		case float64:
			score = s
		case float32:
			score = float64(s)
		}

		results = append(results, &DocumentSearchResult{
			DocumentID:      documentID,
			JobID:           jobID,
			QdrantPointID:   point.ID,
			Layout:          layout,
			SimilarityScore: score,
			CreatedAt:       createdAt,
		})
	}

	return results, nil
}

// UpdateJobStatus updates job status in PostgreSQL
func (sm *StorageManager) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	return sm.postgres.UpdateJobStatus(ctx, update)
}

// GetJobByID retrieves job by ID
func (sm *StorageManager) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	return sm.postgres.GetJobByID(ctx, jobID)
}

// GetStats returns statistics from both systems
func (sm *StorageManager) GetStats(ctx context.Context) (map[string]interface{}, error) {
	pgStats := sm.postgres.GetStats()

	qdrantStats, err := sm.qdrant.GetCollectionInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Qdrant stats: %w", err)
	}

	return map[string]interface{}{
		"postgres": map[string]interface{}{
			"max_open_connections": pgStats.MaxOpenConnections,
			"open_connections":     pgStats.OpenConnections,
			"in_use":               pgStats.InUse,
			"idle":                 pgStats.Idle,
			"wait_count":           pgStats.WaitCount,
			"wait_duration":        pgStats.WaitDuration.String(),
		},
		"qdrant": qdrantStats,
	}, nil
}

// Close closes all connections
func (sm *StorageManager) Close() error {
	var pgErr, qdErr error

	if sm.postgres != nil {
		pgErr = sm.postgres.Close()
	}

	if sm.qdrant != nil {
		qdErr = sm.qdrant.Close()
	}

	if pgErr != nil {
		return fmt.Errorf("failed to close PostgreSQL: %w", pgErr)
	}

	if qdErr != nil {
		return fmt.Errorf("failed to close Qdrant: %w", qdErr)
	}

	return nil
}

// StoredDocument is a document read back from storage.
type StoredDocument struct {
	ID             string
	JobID          string
	QdrantPointID  string
	Text           string
	Layout         map[string]interface{}
	MeanConfidence float64
	EngineUsed     string
	PDFArtifactID  string
	Embedding      []float32
	CreatedAt      time.Time
}

// sanitizeJSONForPostgres strips Unicode escape sequences that PostgreSQL
// JSONB rejects, the escaped NUL in particular. OCR output on noisy scans can carry
// control characters.
func sanitizeJSONForPostgres(jsonBytes []byte) []byte {
	nullPattern := regexp.MustCompile(`\\u0000`)
	result := nullPattern.ReplaceAll(jsonBytes, []byte{})

	controlPattern := regexp.MustCompile(`\\u00[01][0-9a-fA-F]`)
	result = controlPattern.ReplaceAll(result, []byte(" "))

	return result
}
