// Package qdrantstore is an example pluggable hooks.Hook (spec §4.4
// step 8, SPEC_FULL §11.2) that embeds each extracted keyword and
// upserts it into Qdrant as a vector point, giving downstream
// semantic-search callers a keyword index. Like hooks/postgresstore,
// this is a demonstration collaborator, not a core dependency of the
// orchestrator.
//
// Adapted from the teacher's internal/storage/qdrant.go: the gRPC
// client wiring, collection-bootstrap-on-construction, and payload
// type-switch marshaling are carried over; UpsertVector's single-point
// shape is generalized into a batch upsert over a result's keyword set.
package qdrantstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/adverant/kreuzberg-go/internal/types"
)

// vectorDimensions matches the teacher's VoyageAI voyage-3
// configuration (SPEC_FULL §11.2).
const vectorDimensions = 1024

// Embedder produces a dense vector for a short piece of text. The
// default implementation (embedder.go in this package) is a
// VoyageAI-backed client adapted from the teacher's
// internal/processor/embedding.go; callers may supply any other
// Embedder.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Store upserts keyword embeddings into a Qdrant collection.
type Store struct {
	client           qdrant.PointsClient
	collectionClient qdrant.CollectionsClient
	conn             *grpc.ClientConn
	collectionName   string
	embedder         Embedder
}

// New connects to a Qdrant instance over gRPC and ensures
// collectionName exists with the vectorDimensions/cosine configuration
// the teacher's ensureCollection used.
func New(ctx context.Context, address, collectionName string, embedder Embedder) (*Store, error) {
	if address == "" {
		return nil, fmt.Errorf("qdrant address is required")
	}
	if collectionName == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	s := &Store{
		client:           qdrant.NewPointsClient(conn),
		collectionClient: qdrant.NewCollectionsClient(conn),
		conn:             conn,
		collectionName:   collectionName,
		embedder:         embedder,
	}

	if err := s.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	listResp, err := s.collectionClient.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, col := range listResp.Collections {
		if col.Name == s.collectionName {
			return nil
		}
	}

	_, err = s.collectionClient.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     vectorDimensions,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Name implements hooks.Hook.
func (s *Store) Name() string { return "qdrantstore" }

// Run implements hooks.Hook: it embeds each keyword in result.Keywords
// and upserts one point per keyword, payload-tagging it with the term,
// score, and detected document type for downstream filtering.
func (s *Store) Run(ctx context.Context, result *types.ExtractionResult) error {
	if len(result.Keywords) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(result.Keywords))
	for _, kw := range result.Keywords {
		vector, err := s.embedder.GenerateEmbedding(ctx, kw.Term)
		if err != nil {
			return fmt.Errorf("failed to embed keyword %q: %w", kw.Term, err)
		}
		if len(vector) != vectorDimensions {
			return fmt.Errorf("unexpected embedding dimensions for keyword %q: got %d, expected %d", kw.Term, len(vector), vectorDimensions)
		}

		payload := map[string]*qdrant.Value{
			"term":  {Kind: &qdrant.Value_StringValue{StringValue: kw.Term}},
			"score": {Kind: &qdrant.Value_DoubleValue{DoubleValue: kw.Score}},
		}
		if result.DocumentType != "" {
			payload["documentType"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: result.DocumentType}}
		}

		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.New().String()}},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vector}},
			},
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert keyword vectors: %w", err)
	}
	return nil
}
