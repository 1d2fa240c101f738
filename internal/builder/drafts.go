package builder

import (
	"context"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/lib/sl"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Drafts keeps one open draft per code. Idle drafts are dropped, losing any
// unsaved changes, which matches closing the builder without saving.
type Drafts struct {
	drafts  *ttlcache.Cache[string, *Draft]
	log     *slog.Logger
	mu      sync.Mutex
	running bool
}

func NewDrafts(ttl time.Duration, log *slog.Logger) *Drafts {
	s := &Drafts{
		drafts: ttlcache.New[string, *Draft](ttlcache.WithTTL[string, *Draft](ttl)),
		log:    log.With(sl.Module("builder.drafts")),
	}
	s.drafts.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Draft]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.log.With(sl.Code(item.Key())).Debug("idle draft dropped")
		}
	})
	return s
}

// Open returns the draft for the code, creating it from load when none is open.
func (s *Drafts) Open(code string, load func() *entity.Album) *Draft {
	code = entity.NormalizeCode(code)
	if item := s.drafts.Get(code); item != nil {
		return item.Value()
	}
	item, existed := s.drafts.GetOrSet(code, NewDraft(load()))
	if !existed {
		s.log.With(sl.Code(code)).Debug("draft opened")
	}
	return item.Value()
}

// Get refreshes the idle timer of the draft.
func (s *Drafts) Get(code string) (*Draft, error) {
	item := s.drafts.Get(entity.NormalizeCode(code))
	if item == nil {
		return nil, entity.ErrDraftNotFound
	}
	return item.Value(), nil
}

// Discard closes the draft, e.g. after its code was deleted.
func (s *Drafts) Discard(code string) {
	s.drafts.Delete(entity.NormalizeCode(code))
}

// Start runs the cleanup loop that evicts idle drafts.
func (s *Drafts) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.drafts.Start()
}

func (s *Drafts) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.drafts.Stop()
}
