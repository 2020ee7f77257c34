package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
)

// EmbeddingRepository caches reference embeddings in a pgvector column, one
// row per identity and provider.
type EmbeddingRepository struct {
	pool PgxPool
}

var _ gallery.EmbeddingCache = (*EmbeddingRepository)(nil)

func NewEmbeddingRepository(pool PgxPool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// GetEmbedding returns gallery.ErrCacheMiss unless a row exists for the same
// image digest.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, identity domain.Identity, digest, provider string) (domain.Embedding, error) {
	query := `
		SELECT embedding
		FROM reference_embeddings
		WHERE identity = $1 AND provider = $2 AND digest = $3
	`

	var vec *pgvector.Vector
	err := r.pool.QueryRow(ctx, query, string(identity), provider, digest).Scan(&vec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gallery.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}

	emb := fromVector(vec)
	if len(emb) == 0 {
		return nil, gallery.ErrCacheMiss
	}
	return emb, nil
}

func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, rec domain.EmbeddingRecord) error {
	query := `
		INSERT INTO reference_embeddings (identity, provider, digest, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity, provider) DO UPDATE SET
			digest = EXCLUDED.digest,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query,
		string(rec.Identity),
		rec.Provider,
		rec.Digest,
		toVector(rec.Embedding),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put embedding: %w", err)
	}
	return nil
}

// DeleteIdentity drops every cached embedding of identity.
func (r *EmbeddingRepository) DeleteIdentity(ctx context.Context, identity domain.Identity) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reference_embeddings WHERE identity = $1`, string(identity)); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}
