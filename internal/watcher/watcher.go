// Package watcher polls the code registry and reports edit window milestones:
// a code got redeemed, its window is about to close, its window closed.
package watcher

import (
	"context"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/internal/registry"
	"lovealbum/lib/clock"
	"lovealbum/lib/sl"
	"sync"
	"time"
)

type EventType string

const (
	EventRedeemed EventType = "redeemed"
	EventClosing  EventType = "closing"
	EventClosed   EventType = "closed"
)

func (e EventType) rank() int {
	switch e {
	case EventRedeemed:
		return 1
	case EventClosing:
		return 2
	case EventClosed:
		return 3
	}
	return 0
}

type Event struct {
	Type      EventType
	Code      string
	Remaining time.Duration
}

type Handler func(Event)

type Lister interface {
	List(ctx context.Context) ([]*entity.AccessCode, error)
}

type Watcher struct {
	codes   Lister
	now     clock.Clock
	notice  time.Duration
	handler Handler
	log     *slog.Logger
	mutex   sync.Mutex
	seen    map[string]EventType
	primed  bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a watcher that warns notice before a window closes.
func New(codes Lister, now clock.Clock, notice time.Duration, log *slog.Logger) *Watcher {
	return &Watcher{
		codes:  codes,
		now:    now,
		notice: notice,
		log:    log.With(sl.Module("watcher")),
		seen:   make(map[string]EventType),
	}
}

func (w *Watcher) WithHandler(handler Handler) *Watcher {
	w.handler = handler
	return w
}

func (w *Watcher) Start(interval time.Duration) {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			w.Scan(ctx)
			cancel()
			select {
			case <-ticker.C:
			case <-w.stopCh:
				return
			}
		}
	}()
}

func (w *Watcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.done
	w.stopCh = nil
}

// Scan compares every code with what was reported last time and emits the
// milestones reached since. The first scan only records the current state,
// so a restart does not repeat old news.
func (w *Watcher) Scan(ctx context.Context) []Event {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	codes, err := w.codes.List(ctx)
	if err != nil {
		w.log.Error("list codes", sl.Err(err))
		return nil
	}

	now := w.now()
	present := make(map[string]bool, len(codes))
	var events []Event
	for _, code := range codes {
		present[code.Code] = true
		target, remaining := w.milestone(code, now)
		last := w.seen[code.Code]
		if target.rank() == last.rank() {
			continue
		}
		w.seen[code.Code] = target
		// an extended window moves back without a notice
		if target.rank() < last.rank() || !w.primed {
			continue
		}
		events = append(events, Event{Type: target, Code: code.Code, Remaining: remaining})
	}
	for code := range w.seen {
		if !present[code] {
			delete(w.seen, code)
		}
	}
	w.primed = true

	for _, e := range events {
		w.log.With(
			sl.Code(e.Code),
			slog.String("event", string(e.Type)),
			slog.String("remaining", clock.HoursMinutes(e.Remaining)),
		).Info("edit window milestone")
		if w.handler != nil {
			w.handler(e)
		}
	}
	return events
}

func (w *Watcher) milestone(code *entity.AccessCode, now time.Time) (EventType, time.Duration) {
	state := registry.Classify(code, now)
	switch state.Stage {
	case registry.StageEditable:
		remaining := registry.Remaining(code, now)
		if remaining <= w.notice {
			return EventClosing, remaining
		}
		return EventRedeemed, remaining
	case registry.StageViewOnly:
		return EventClosed, 0
	}
	return "", 0
}
