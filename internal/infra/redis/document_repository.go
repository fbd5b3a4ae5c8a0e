package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/domain"
)

// DocumentLoader fetches quiz documents from a backing store (e.g., Postgres).
type DocumentLoader interface {
	LoadDocument(ctx context.Context, quizID string) (domain.QuizDocument, error)
}

// DocumentRepository caches the serialized document under quiz:doc:{quizID}
// and falls back to the loader on cache miss. Concurrent misses for the same
// quiz collapse into one loader call.
type DocumentRepository struct {
	client *goredis.Client
	loader DocumentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDocumentRepository(client *goredis.Client, loader DocumentLoader, ttl time.Duration) *DocumentRepository {
	return &DocumentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DocumentRepository) GetDocument(ctx context.Context, quizID string) (domain.QuizDocument, error) {
	key := r.key(quizID)

	if doc, ok := r.cached(ctx, key); ok {
		return doc, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if doc, ok := r.cached(ctx, key); ok {
			return doc, nil
		}

		doc, err := r.loader.LoadDocument(ctx, quizID)
		if err != nil {
			return domain.QuizDocument{}, err
		}

		if data, err := json.Marshal(doc); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return doc, nil
	})
	if err != nil {
		return domain.QuizDocument{}, err
	}
	return result.(domain.QuizDocument), nil
}

// cached returns the document only when the stored value is present and
// parses; anything else falls through to the loader.
func (r *DocumentRepository) cached(ctx context.Context, key string) (domain.QuizDocument, bool) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return domain.QuizDocument{}, false
	}
	var doc domain.QuizDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.QuizDocument{}, false
	}
	return doc, true
}

func (r *DocumentRepository) key(quizID string) string {
	return "quiz:doc:" + quizID
}

func (r *DocumentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
