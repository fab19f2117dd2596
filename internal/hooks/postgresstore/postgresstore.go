// Package postgresstore is an example post_processing_hooks
// implementation (spec §4.4 step 8) that persists ExtractionResult
// metadata to Postgres after extraction. It demonstrates the hook
// extensibility point named in SPEC_FULL §11.2; it is not a core
// dependency of the orchestrator.
//
// Adapted from the teacher's internal/storage/postgres.go: the
// connection-pool tuning and confidence-sanitization helper are kept in
// spirit, rewritten against this engine's extraction_results schema
// instead of the teacher's processing_jobs/document_dna tables.
package postgresstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/adverant/kreuzberg-go/internal/types"
)

// Store persists ExtractionResult rows to Postgres.
type Store struct {
	db *sql.DB
}

// New opens a connection pool against databaseURL, tuned the way the
// teacher's NewPostgresClient tunes pgx/database-sql: bounded open/idle
// connections and lifetimes, plus an immediate ping to fail fast on a
// bad DSN rather than on the first hook invocation.
func New(databaseURL string) (*Store, error) {
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

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// sanitizeConfidence rounds confidence to 4 decimal places and clamps to
// [0,1], carried verbatim in spirit from the teacher's PostgresClient:
// PostgreSQL's FLOAT type can hand back values like 0.9632000000000001
// that overflow a NUMERIC(5,4) column on write.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// Name implements hooks.Hook.
func (s *Store) Name() string { return "postgresstore" }

// Run implements hooks.Hook: it upserts one row per (content-addressed)
// extraction, keyed on the SHA-256 of Content so repeated hook
// invocations over the same result are idempotent.
func (s *Store) Run(ctx context.Context, result *types.ExtractionResult) error {
	metadataJSON, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var confidence sql.NullFloat64
	if result.DocumentTypeConfidence != nil {
		confidence = sql.NullFloat64{Float64: sanitizeConfidence(*result.DocumentTypeConfidence), Valid: true}
	}

	const query = `
		INSERT INTO kreuzberg.extraction_results (
			content_hash, mime_type, document_type, document_type_confidence,
			metadata, created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, ''), $4::NUMERIC(5,4),
			$5::jsonb, NOW(), NOW()
		)
		ON CONFLICT (content_hash) DO UPDATE SET
			document_type = EXCLUDED.document_type,
			document_type_confidence = EXCLUDED.document_type_confidence,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		contentHash(result.Content),
		string(result.MimeType),
		result.DocumentType,
		confidence,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to persist extraction result: %w", err)
	}
	return nil
}
