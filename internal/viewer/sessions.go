package viewer

import (
	"context"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/lib/sl"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Sessions holds open viewer sessions by id until they go idle.
type Sessions struct {
	sessions *ttlcache.Cache[string, *Session]
	log      *slog.Logger
	mu       sync.Mutex
	running  bool
}

func NewSessions(ttl time.Duration, log *slog.Logger) *Sessions {
	s := &Sessions{
		sessions: ttlcache.New[string, *Session](ttlcache.WithTTL[string, *Session](ttl)),
		log:      log.With(sl.Module("viewer.sessions")),
	}
	s.sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.log.With(sl.Session(item.Key())).Debug("idle session dropped")
		}
	})
	return s
}

func (s *Sessions) Open(album *entity.Album) *Session {
	session := NewSession(uuid.New().String(), album)
	s.sessions.Set(session.ID(), session, ttlcache.DefaultTTL)
	s.log.With(sl.Session(session.ID()), sl.Code(album.ID), slog.String("stage", string(session.Stage()))).Debug("session opened")
	return session
}

func (s *Sessions) Get(id string) (*Session, error) {
	item := s.sessions.Get(id)
	if item == nil {
		return nil, entity.ErrSessionNotFound
	}
	return item.Value(), nil
}

func (s *Sessions) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.sessions.Start()
}

func (s *Sessions) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.sessions.Stop()
}
