package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/llm"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// VectorStore searches and maintains the kb_passages table using pgvector
// cosine distance.
type VectorStore struct {
	db       pgQuerier
	embedder llm.Embedder
	logger   *zap.Logger
}

// NewVectorStore constructs a VectorStore over a pgx pool or connection.
func NewVectorStore(db pgQuerier, embedder llm.Embedder, logger *zap.Logger) *VectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorStore{db: db, embedder: embedder, logger: logger}
}

// Search embeds query and returns the k nearest passages scored by cosine
// similarity.
func (s *VectorStore) Search(ctx context.Context, query string, k int) ([]domain.RetrievedPassage, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	const q = `
        SELECT id, title, body, 1 - (embedding <=> $1::vector) AS score
        FROM kb_passages
        ORDER BY embedding <=> $1::vector, id
        LIMIT $2`

	rows, err := s.db.Query(ctx, q, vectorLiteral(vec), k)
	if err != nil {
		return nil, fmt.Errorf("%w: search passages: %w", domain.ErrProvider, err)
	}
	defer rows.Close()

	var out []domain.RetrievedPassage
	for rows.Next() {
		var p domain.RetrievedPassage
		if err := rows.Scan(&p.DocumentID, &p.Title, &p.Text, &p.Score); err != nil {
			return nil, fmt.Errorf("%w: scan passage: %w", domain.ErrProvider, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search passages: %w", domain.ErrProvider, err)
	}
	return SortPassages(out, k), nil
}

// Index embeds and upserts docs. It returns the number of rows written.
func (s *VectorStore) Index(ctx context.Context, docs []Document) (int, error) {
	const q = `
        INSERT INTO kb_passages (id, title, category, body, embedding)
        VALUES ($1, $2, $3, $4, $5::vector)
        ON CONFLICT (id) DO UPDATE
        SET title = EXCLUDED.title, category = EXCLUDED.category,
            body = EXCLUDED.body, embedding = EXCLUDED.embedding`

	written := 0
	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Title+"\n\n"+d.Text)
		if err != nil {
			return written, fmt.Errorf("embed %s: %w", d.ID, err)
		}
		if _, err := s.db.Exec(ctx, q, d.ID, d.Title, d.Category, d.Text, vectorLiteral(vec)); err != nil {
			return written, fmt.Errorf("upsert %s: %w", d.ID, err)
		}
		written++
		s.logger.Debug("passage indexed", zap.String("document_id", d.ID))
	}
	return written, nil
}

// vectorLiteral renders a pgvector text literal such as "[0.1,0.2]".
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec) * 8)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
