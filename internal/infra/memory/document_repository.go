package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/domain"
)

// DocumentLoader fetches quiz documents from a backing store (e.g., Postgres).
type DocumentLoader interface {
	LoadDocument(ctx context.Context, quizID string) (domain.QuizDocument, error)
}

// DocumentRepository caches documents with TTL to avoid repeated backing
// store hits while many sessions of the same quiz load.
type DocumentRepository struct {
	loader DocumentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDocument
}

type cachedDocument struct {
	doc       domain.QuizDocument
	expiresAt time.Time
}

func NewDocumentRepository(loader DocumentLoader, ttl time.Duration) *DocumentRepository {
	return &DocumentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDocument),
	}
}

func (r *DocumentRepository) GetDocument(ctx context.Context, quizID string) (domain.QuizDocument, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.doc, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.doc, nil
		}
		r.mu.RUnlock()

		doc, err := r.loader.LoadDocument(ctx, quizID)
		if err != nil {
			return domain.QuizDocument{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedDocument{
			doc:       doc,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return domain.QuizDocument{}, err
	}
	return result.(domain.QuizDocument), nil
}

func (r *DocumentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticDocumentLoader serves documents from a fixed map (tests/demos).
type StaticDocumentLoader struct {
	documents map[string]domain.QuizDocument
}

func NewStaticDocumentLoader(documents map[string]domain.QuizDocument) *StaticDocumentLoader {
	return &StaticDocumentLoader{documents: documents}
}

func (l *StaticDocumentLoader) LoadDocument(_ context.Context, quizID string) (domain.QuizDocument, error) {
	if doc, ok := l.documents[quizID]; ok {
		return doc, nil
	}
	return domain.QuizDocument{}, domain.ErrQuizNotFound
}
