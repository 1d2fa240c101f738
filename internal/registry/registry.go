// Package registry owns the issued access codes and decides whether a code
// grants entry, edit rights, or view-only access.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/lib/clock"
	"lovealbum/lib/sl"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	MessageEmpty    = "Please enter your code."
	MessageNotFound = "The code is incorrect. Check it and try again."
	MessageViewOnly = "The edit window has ended. The album is available for viewing only."
	MessageSuccess  = "Code accepted!"

	generatedCodeLength = 8
)

// DemoCodes are written to an empty store the first time the registry is used.
var DemoCodes = []string{"LOVE2024", "HEART999", "ROSE1234"}

// Store is the persistence the registry needs. Codes must come back in
// insertion order; FindCode returns nil, nil when the code is absent.
// Deleting a code also requires removing its album document.
type Store interface {
	Codes(ctx context.Context) ([]*entity.AccessCode, error)
	FindCode(ctx context.Context, code string) (*entity.AccessCode, error)
	InsertCode(ctx context.Context, code *entity.AccessCode) error
	UpdateCode(ctx context.Context, code *entity.AccessCode) error
	DeleteCode(ctx context.Context, code string) error
	DeleteAlbum(ctx context.Context, id string) error
}

// Result is what the entry screen receives after a validation attempt.
type Result struct {
	Valid    bool   `json:"valid"`
	Editable bool   `json:"editable"`
	Message  string `json:"message"`
}

type Registry struct {
	store  Store
	now    clock.Clock
	log    *slog.Logger
	seed   bool
	mu     sync.Mutex // serializes read-modify-write of code records
	seeded bool
}

type Option func(*Registry)

func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.now = c
	}
}

// WithoutSeed disables demo code seeding.
func WithoutSeed() Option {
	return func(r *Registry) {
		r.seed = false
	}
}

func New(store Store, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		now:   clock.System,
		log:   log.With(sl.Module("registry")),
		seed:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now exposes the registry clock so collaborators classify against the same instant source.
func (r *Registry) Now() time.Time {
	return r.now()
}

// ensureSeeded writes the demo codes when the store is empty. It runs once per
// process; a store that was emptied by an admin is not re-seeded until restart.
// Callers hold r.mu.
func (r *Registry) ensureSeeded(ctx context.Context) error {
	if r.seeded || !r.seed {
		return nil
	}
	codes, err := r.store.Codes(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(codes) == 0 {
		now := r.now()
		for _, code := range DemoCodes {
			if err = r.store.InsertCode(ctx, entity.NewAccessCode(code, now)); err != nil {
				return fmt.Errorf("seed %s: %w", code, err)
			}
		}
		r.log.With(slog.Int("count", len(DemoCodes))).Info("seeded demo codes")
	}
	r.seeded = true
	return nil
}

// Validate redeems a code. The first successful call on a code stamps its
// redemption time; later calls inside the edit window are idempotent, and
// calls after it report a valid but read-only code.
func (r *Registry) Validate(ctx context.Context, input string) (Result, error) {
	code := entity.NormalizeCode(input)
	if code == "" {
		return Result{Message: MessageEmpty}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSeeded(ctx); err != nil {
		return Result{}, err
	}

	found, err := r.store.FindCode(ctx, code)
	if err != nil {
		return Result{}, fmt.Errorf("find code: %w", err)
	}
	log := r.log.With(sl.Code(code))
	if found == nil {
		log.Debug("code not found")
		return Result{Message: MessageNotFound}, nil
	}

	now := r.now()
	if Classify(found, now).Stage == StageViewOnly {
		log.Debug("code is view only")
		return Result{Valid: true, Message: MessageViewOnly}, nil
	}

	if found.Redeem(now) {
		if err = r.store.UpdateCode(ctx, found); err != nil {
			return Result{}, fmt.Errorf("redeem code: %w", err)
		}
		log.With(slog.Time("expires_at", found.ExpiresAt)).Info("code redeemed")
	}

	return Result{Valid: true, Editable: true, Message: MessageSuccess}, nil
}

// Check classifies a code without redeeming it.
func (r *Registry) Check(ctx context.Context, input string) (State, error) {
	code := entity.NormalizeCode(input)
	if code == "" {
		return State{}, entity.ErrEmptyCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSeeded(ctx); err != nil {
		return State{}, err
	}
	found, err := r.store.FindCode(ctx, code)
	if err != nil {
		return State{}, fmt.Errorf("find code: %w", err)
	}
	if found == nil {
		return State{}, entity.ErrCodeNotFound
	}
	return Classify(found, r.now()), nil
}

func (r *Registry) List(ctx context.Context) ([]*entity.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	codes, err := r.store.Codes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	return codes, nil
}

// Add appends an unused code. Duplicates are accepted; lookups resolve to the
// first entry and Delete removes all of them.
func (r *Registry) Add(ctx context.Context, input string) (*entity.AccessCode, error) {
	code := entity.NormalizeCode(input)
	if code == "" {
		return nil, entity.ErrEmptyCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	ac := entity.NewAccessCode(code, r.now())
	if err := r.store.InsertCode(ctx, ac); err != nil {
		return nil, fmt.Errorf("add code: %w", err)
	}
	r.log.With(sl.Code(code)).Info("code added")
	return ac, nil
}

// Generate adds a random code.
func (r *Registry) Generate(ctx context.Context) (*entity.AccessCode, error) {
	code := strings.ReplaceAll(uuid.New().String(), "-", "")[:generatedCodeLength]
	return r.Add(ctx, code)
}

// Delete removes the code and its album.
func (r *Registry) Delete(ctx context.Context, input string) error {
	code := entity.NormalizeCode(input)
	if code == "" {
		return entity.ErrEmptyCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSeeded(ctx); err != nil {
		return err
	}
	if err := r.store.DeleteCode(ctx, code); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	if err := r.store.DeleteAlbum(ctx, code); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	r.log.With(sl.Code(code)).Info("code deleted")
	return nil
}

// Extend leaves exactly `hours` on the edit window of a redeemed code by
// moving its first-use stamp back to now-(24-hours). Unredeemed codes are left alone.
func (r *Registry) Extend(ctx context.Context, input string, hours int) (*entity.AccessCode, error) {
	code := entity.NormalizeCode(input)
	if code == "" {
		return nil, entity.ErrEmptyCode
	}
	if hours <= 0 {
		return nil, entity.ErrInvalidHours
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	found, err := r.store.FindCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find code: %w", err)
	}
	if found == nil {
		return nil, entity.ErrCodeNotFound
	}
	if !found.Redeemed() {
		return found, nil
	}

	now := r.now()
	left := time.Duration(hours) * time.Hour
	found.FirstUsedAt = now.Add(left - entity.EditWindow)
	found.ExpiresAt = now.Add(left)
	if err = r.store.UpdateCode(ctx, found); err != nil {
		return nil, fmt.Errorf("extend code: %w", err)
	}
	r.log.With(sl.Code(code), slog.Int("hours", hours)).Info("code extended")
	return found, nil
}
