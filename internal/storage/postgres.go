/**
 * PostgreSQL client for the OCR worker.
 *
 * Handles job persistence and extracted document storage.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	Status           string
	Confidence       float64
	ProcessingTimeMs int64
	DocumentID       string
	ErrorCode        string
	ErrorMessage     string
	EngineUsed       string
	Metadata         map[string]interface{}
}

// sanitizeConfidence rounds confidence to 4 decimal places and clamps it to
// [0.0, 1.0]. Float64 artifacts like 0.9632000000000001 trip NUMERIC casts.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts a job row. The worker may see a job before the API
// created its record, so the first status update also creates the row.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	sanitizedConfidence := sanitizeConfidence(update.Confidence)

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Confidence is cast to NUMERIC(5,4) so the stored value always carries
	// bounded precision.
	query := `
		INSERT INTO ocr.jobs (
			id, user_id, filename, mime_type, file_size,
			status, confidence, processing_time_ms, document_id,
			error_code, error_message, engine_used, metadata,
			created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE($13, 'anonymous'), COALESCE($10, 'unknown'),
			COALESCE($11, 'application/octet-stream'), COALESCE($12, 0),
			$2, NULLIF($3::NUMERIC(5,4), 0), NULLIF($4, 0),
			CASE WHEN $5 = '' THEN NULL ELSE $5::uuid END,
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
			COALESCE($9::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			confidence = COALESCE(NULLIF(EXCLUDED.confidence::NUMERIC(5,4), 0), ocr.jobs.confidence),
			processing_time_ms = COALESCE(NULLIF(EXCLUDED.processing_time_ms, 0), ocr.jobs.processing_time_ms),
			document_id = CASE
				WHEN EXCLUDED.document_id IS NOT NULL THEN EXCLUDED.document_id
				ELSE ocr.jobs.document_id
			END,
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			engine_used = NULLIF(EXCLUDED.engine_used, ''),
			metadata = COALESCE(EXCLUDED.metadata, ocr.jobs.metadata),
			filename = COALESCE(EXCLUDED.filename, ocr.jobs.filename),
			mime_type = COALESCE(EXCLUDED.mime_type, ocr.jobs.mime_type),
			file_size = COALESCE(NULLIF(EXCLUDED.file_size, 0), ocr.jobs.file_size),
			user_id = COALESCE(EXCLUDED.user_id, ocr.jobs.user_id),
			updated_at = NOW()
		RETURNING id
	`

	var filename, mimeType, userID string
	var fileSize int64
	if update.Metadata != nil {
		if fn, ok := update.Metadata["filename"].(string); ok {
			filename = fn
		}
		if mt, ok := update.Metadata["mimeType"].(string); ok {
			mimeType = mt
		}
		if fs, ok := update.Metadata["fileSize"].(int64); ok {
			fileSize = fs
		} else if fs, ok := update.Metadata["fileSize"].(float64); ok {
			fileSize = int64(fs)
		}
		if uid, ok := update.Metadata["userId"].(string); ok {
			userID = uid
		}
	}

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,            // $1
		update.Status,           // $2
		sanitizedConfidence,     // $3
		update.ProcessingTimeMs, // $4
		update.DocumentID,       // $5
		update.ErrorCode,        // $6
		update.ErrorMessage,     // $7
		update.EngineUsed,       // $8
		metadataJSON,            // $9
		filename,                // $10
		mimeType,                // $11
		fileSize,                // $12
		userID,                  // $13
	).Scan(&returnedID)

	if err == sql.ErrNoRows {
		return fmt.Errorf("job not found: %s", update.JobID)
	}

	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s, confidence=%.4f): %w",
			update.JobID, update.Status, sanitizedConfidence, err)
	}

	return nil
}

// GetJobByID retrieves a job by ID
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT
			id,
			user_id,
			filename,
			mime_type,
			file_size,
			status,
			confidence,
			processing_time_ms,
			document_id,
			error_code,
			error_message,
			engine_used,
			metadata,
			created_at,
			updated_at
		FROM ocr.jobs
		WHERE id = $1::uuid
	`

	var (
		id, userID, filename             string
		mimeType, status                 sql.NullString
		fileSize                         sql.NullInt64
		confidence                       sql.NullFloat64
		processingTimeMs                 sql.NullInt64
		documentID, errorCode, errorMsg  sql.NullString
		engineUsed                       sql.NullString
		metadataJSON                     []byte
		createdAt, updatedAt             time.Time
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&id, &userID, &filename, &mimeType, &fileSize, &status,
		&confidence, &processingTimeMs, &documentID,
		&errorCode, &errorMsg, &engineUsed,
		&metadataJSON, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":        id,
		"userId":    userID,
		"filename":  filename,
		"status":    status.String,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
		"metadata":  metadata,
	}

	if mimeType.Valid {
		result["mimeType"] = mimeType.String
	}
	if fileSize.Valid {
		result["fileSize"] = fileSize.Int64
	}
	if confidence.Valid {
		result["confidence"] = confidence.Float64
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}
	if documentID.Valid {
		result["documentId"] = documentID.String
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMsg.Valid {
		result["errorMessage"] = errorMsg.String
	}
	if engineUsed.Valid {
		result["engineUsed"] = engineUsed.String
	}

	return result, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
