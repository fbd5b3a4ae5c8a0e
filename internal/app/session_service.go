package app

import (
	"context"
	"log"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"
)

// SnapshotStore is the durable key-value slot a session persists into
// (in-memory, Redis, etc). Load returns (nil, nil) when no snapshot exists;
// a corrupt stored value is reported the same way by implementations.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (*domain.Snapshot, error)
	Save(ctx context.Context, key string, snap domain.Snapshot) error
	Delete(ctx context.Context, key string) error
}

// DocumentRepository loads quiz documents (from cache/backing store).
type DocumentRepository interface {
	GetDocument(ctx context.Context, quizID string) (domain.QuizDocument, error)
}

// SessionKey names the durable slot and the in-memory registry entry for one
// (quiz, user) run.
func SessionKey(quizID, userID string) string {
	return quizID + ":" + userID
}

// SessionService orchestrates quiz runs: it is the only surface transports
// call into. Every mutation re-persists the snapshot and pushes a fresh view
// to subscribers; persistence failures are logged and swallowed so the
// in-memory session keeps going.
type SessionService struct {
	docs      DocumentRepository
	snapshots SnapshotStore

	tickInterval time.Duration
	mu           sync.RWMutex
	sessions     map[string]*sessionRuntime
}

type sessionRuntime struct {
	key       string
	session   *quiz.Session
	countdown *quiz.Countdown

	mu          sync.Mutex
	subscribers map[chan domain.View]struct{}
}

func NewSessionService(docs DocumentRepository, snapshots SnapshotStore) *SessionService {
	return NewSessionServiceWithTick(docs, snapshots, time.Second)
}

// NewSessionServiceWithTick is for tests that cannot wait on wall-clock
// seconds between countdown ticks.
func NewSessionServiceWithTick(docs DocumentRepository, snapshots SnapshotStore, tickInterval time.Duration) *SessionService {
	return &SessionService{
		docs:         docs,
		snapshots:    snapshots,
		tickInterval: tickInterval,
		sessions:     make(map[string]*sessionRuntime),
	}
}

// Load builds a session from the quiz document, restores a compatible
// snapshot when one exists, persists the (possibly fresh) state, and starts
// the countdown unless the document configures no time limit. A document that
// cannot be obtained or parsed yields an error and no session.
func (s *SessionService) Load(ctx context.Context, quizID, userID string) (domain.View, error) {
	doc, err := s.docs.GetDocument(ctx, quizID)
	if err != nil {
		return domain.View{}, err
	}

	key := SessionKey(quizID, userID)
	session := quiz.NewSession(doc)

	snap, err := s.snapshots.Load(ctx, key)
	if err != nil {
		log.Printf("snapshot load failed for %s, starting fresh: %v", key, err)
	} else if snap != nil && !session.Restore(snap) {
		log.Printf("snapshot for %s incompatible with question set, starting fresh", key)
	}

	rt := &sessionRuntime{
		key:         key,
		session:     session,
		countdown:   quiz.NewCountdownWithInterval(s.tickInterval),
		subscribers: make(map[chan domain.View]struct{}),
	}

	s.mu.Lock()
	if old, ok := s.sessions[key]; ok {
		old.countdown.Stop()
	}
	s.sessions[key] = rt
	s.mu.Unlock()

	s.persist(ctx, rt)
	if !session.NoLimit() && !session.Finished() {
		rt.countdown.Start(s.tick(rt))
	}
	return session.View(), nil
}

// Answer records the chosen presentation index for the current question.
func (s *SessionService) Answer(ctx context.Context, key string, presentationIndex int) (domain.View, error) {
	rt, ok := s.get(key)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	if err := rt.session.Answer(presentationIndex); err != nil {
		return domain.View{}, err
	}
	s.persist(ctx, rt)
	view := rt.session.View()
	rt.broadcast(view)
	return view, nil
}

// Next commits the pending selection, if any, and advances one question.
func (s *SessionService) Next(ctx context.Context, key string, pending *int) (domain.View, error) {
	return s.move(ctx, key, pending, true)
}

// Prev commits the pending selection, if any, and moves back one question.
func (s *SessionService) Prev(ctx context.Context, key string, pending *int) (domain.View, error) {
	return s.move(ctx, key, pending, false)
}

func (s *SessionService) move(ctx context.Context, key string, pending *int, forward bool) (domain.View, error) {
	rt, ok := s.get(key)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	if forward {
		rt.session.Next(pending)
	} else {
		rt.session.Prev(pending)
	}
	s.persist(ctx, rt)
	view := rt.session.View()
	rt.broadcast(view)
	return view, nil
}

// Finish freezes scoring and erases the persisted snapshot, exactly once: a
// fresh run must not resume a finished one. Repeated calls return the frozen
// summary unchanged.
func (s *SessionService) Finish(ctx context.Context, key string, pending *int) (domain.Summary, error) {
	rt, ok := s.get(key)
	if !ok {
		return domain.Summary{}, domain.ErrSessionNotFound
	}
	summary, first := rt.session.Finish(pending)
	if first {
		rt.countdown.Stop()
		if err := s.snapshots.Delete(ctx, rt.key); err != nil {
			log.Printf("snapshot delete failed for %s: %v", rt.key, err)
		}
		rt.broadcast(rt.session.View())
	}
	return summary, nil
}

// Restart re-randomizes the run from the document already in hand, persists
// the fresh state, and resumes the countdown.
func (s *SessionService) Restart(ctx context.Context, key string) (domain.View, error) {
	rt, ok := s.get(key)
	if !ok {
		return domain.View{}, domain.ErrSessionNotFound
	}
	rt.countdown.Stop()
	rt.session.Restart()
	s.persist(ctx, rt)
	if !rt.session.NoLimit() {
		rt.countdown.Start(s.tick(rt))
	}
	view := rt.session.View()
	rt.broadcast(view)
	return view, nil
}

// Review returns the read-only review projection.
func (s *SessionService) Review(_ context.Context, key string) ([]domain.ReviewQuestion, error) {
	rt, ok := s.get(key)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return rt.session.Review(), nil
}

// Subscribe returns a channel receiving view updates for a session, including
// countdown ticks and the forced finish. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *SessionService) Subscribe(key string) (<-chan domain.View, func(), error) {
	rt, ok := s.get(key)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch := make(chan domain.View, 8)
	rt.mu.Lock()
	rt.subscribers[ch] = struct{}{}
	rt.mu.Unlock()

	cancel := func() {
		rt.mu.Lock()
		if _, ok := rt.subscribers[ch]; ok {
			delete(rt.subscribers, ch)
			close(ch)
		}
		rt.mu.Unlock()
	}
	return ch, cancel, nil
}

// Leave drops the in-memory runtime for a session and stops its countdown.
// The persisted snapshot survives, so a later Load resumes the run.
func (s *SessionService) Leave(key string) {
	s.mu.Lock()
	rt, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.mu.Unlock()
	if ok {
		rt.countdown.Stop()
	}
}

func (s *SessionService) get(key string) (*sessionRuntime, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.sessions[key]
	return rt, ok
}

// tick builds the countdown callback for one runtime: the immediate emit on
// start, then one decrement-persist-broadcast per second until remaining time
// hits zero, at which point the session is force-finished.
func (s *SessionService) tick(rt *sessionRuntime) func(first bool) bool {
	return func(first bool) bool {
		if first {
			rt.broadcast(rt.session.View())
			return true
		}
		_, expired := rt.session.Tick()
		if expired {
			if _, first := rt.session.Finish(nil); first {
				if err := s.snapshots.Delete(context.Background(), rt.key); err != nil {
					log.Printf("snapshot delete failed for %s: %v", rt.key, err)
				}
			}
			rt.broadcast(rt.session.View())
			return false
		}
		s.persist(context.Background(), rt)
		rt.broadcast(rt.session.View())
		return true
	}
}

// persist is best-effort: a failed save costs durability, never the session.
func (s *SessionService) persist(ctx context.Context, rt *sessionRuntime) {
	if rt.session.Finished() {
		return
	}
	if err := s.snapshots.Save(ctx, rt.key, rt.session.Snapshot()); err != nil {
		log.Printf("snapshot save failed for %s, continuing in-memory: %v", rt.key, err)
	}
}

func (rt *sessionRuntime) broadcast(view domain.View) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for ch := range rt.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stalest update so a slow client never blocks ticks.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}
