package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/domain"
)

// DocumentLoader loads quiz document JSONB from Postgres.
type DocumentLoader struct {
	pool *pgxpool.Pool
}

func NewDocumentLoader(pool *pgxpool.Pool) *DocumentLoader {
	return &DocumentLoader{pool: pool}
}

func (l *DocumentLoader) LoadDocument(ctx context.Context, quizID string) (domain.QuizDocument, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quiz_documents WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDocument{}, fmt.Errorf("load quiz document: %w", err)
	}
	var doc domain.QuizDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.QuizDocument{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if doc.ID == "" {
		doc.ID = quizID
	}
	return doc, nil
}
