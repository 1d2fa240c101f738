package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/internal/album"
	"lovealbum/internal/builder"
	"lovealbum/internal/registry"
	"lovealbum/internal/viewer"
	"lovealbum/lib/clock"
	"lovealbum/lib/sl"
	"strings"
	"time"
)

const counterInterval = time.Second

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

type Config struct {
	PublicURL  string
	EntryDelay time.Duration
	DraftTTL   time.Duration
	SessionTTL time.Duration
}

// Core is the single dependency of the HTTP handlers and the Telegram bot.
// It holds no album or code state of its own beyond open drafts and viewer sessions.
type Core struct {
	registry   *registry.Registry
	albums     *album.Repository
	drafts     *builder.Drafts
	sessions   *viewer.Sessions
	auth       AuthService
	publicURL  string
	entryDelay time.Duration
	now        clock.Clock
	log        *slog.Logger
}

func New(reg *registry.Registry, albums *album.Repository, conf Config, log *slog.Logger) *Core {
	if reg == nil || albums == nil {
		panic("registry and album repository are required")
	}
	now := reg.Now
	return &Core{
		registry:   reg,
		albums:     albums,
		drafts:     builder.NewDrafts(conf.DraftTTL, log),
		sessions:   viewer.NewSessions(conf.SessionTTL, log),
		publicURL:  strings.TrimRight(conf.PublicURL, "/"),
		entryDelay: conf.EntryDelay,
		now:        now,
		log:        log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

// Start runs the cleanup loops that drop idle drafts and viewer sessions.
func (c *Core) Start() {
	c.drafts.Start()
	c.sessions.Start()
}

func (c *Core) Stop() {
	c.drafts.Stop()
	c.sessions.Stop()
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

// EntryResult tells the entry screen where to go next.
type EntryResult struct {
	registry.Result
	Code  string `json:"code,omitempty"`
	Route string `json:"route,omitempty"`
}

// Entry validates a code after the configured pause. The pause only paces
// the screen; a cancelled request stops waiting and nothing is validated.
func (c *Core) Entry(ctx context.Context, input string) (*EntryResult, error) {
	if c.entryDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.entryDelay):
		}
	}
	result, err := c.registry.Validate(ctx, input)
	if err != nil {
		return nil, err
	}
	entry := &EntryResult{Result: result}
	if result.Valid {
		entry.Code = entity.NormalizeCode(input)
		if result.Editable {
			entry.Route = "/builder/" + entry.Code
		} else {
			entry.Route = "/album/" + entry.Code
		}
	}
	return entry, nil
}

// OpenBuilder redeems the code and opens its draft, loading the saved album
// or a default one. Invalid codes get ErrCodeNotFound, read-only ones
// ErrEditWindowExpired.
func (c *Core) OpenBuilder(ctx context.Context, code string) (*entity.Album, error) {
	result, err := c.registry.Validate(ctx, code)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, entity.ErrCodeNotFound
	}
	if !result.Editable {
		return nil, entity.ErrEditWindowExpired
	}
	code = entity.NormalizeCode(code)
	if draft, err := c.drafts.Get(code); err == nil {
		return draft.Album(), nil
	}
	existing, err := c.albums.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = c.albums.CreateDefault(code)
	}
	draft := c.drafts.Open(code, func() *entity.Album { return existing })
	return draft.Album(), nil
}

func (c *Core) Draft(code string) (*entity.Album, error) {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return nil, err
	}
	return draft.Album(), nil
}

func (c *Core) UpdateAlbum(_ context.Context, code string, patch *entity.AlbumPatch) (*entity.Album, error) {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return nil, err
	}
	return draft.Update(patch), nil
}

func (c *Core) AddBlock(_ context.Context, code string, t entity.BlockType) (*entity.Block, error) {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return nil, err
	}
	return draft.AddBlock(t)
}

func (c *Core) UpdateBlock(_ context.Context, code, blockID string, patch *entity.BlockPatch) (*entity.Block, error) {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return nil, err
	}
	block, ok := draft.UpdateBlock(blockID, patch)
	if !ok {
		return nil, entity.ErrBlockNotFound
	}
	return block, nil
}

func (c *Core) RemoveBlock(_ context.Context, code, blockID string) error {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return err
	}
	if !draft.RemoveBlock(blockID) {
		return entity.ErrBlockNotFound
	}
	return nil
}

func (c *Core) DuplicateBlock(_ context.Context, code, blockID string) (*entity.Block, error) {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return nil, err
	}
	block, ok := draft.DuplicateBlock(blockID)
	if !ok {
		return nil, entity.ErrBlockNotFound
	}
	return block, nil
}

// SaveAlbum persists the draft. The code must still be inside its edit window.
func (c *Core) SaveAlbum(ctx context.Context, code string) (*entity.Album, error) {
	draft, err := c.drafts.Get(code)
	if err != nil {
		return nil, err
	}
	state, err := c.registry.Check(ctx, code)
	if err != nil {
		return nil, err
	}
	if !state.Editable() {
		return nil, entity.ErrEditWindowExpired
	}
	a := draft.Album()
	if err = c.albums.Save(ctx, a); err != nil {
		return nil, err
	}
	draft.MarkSaved()
	return a, nil
}

type Publication struct {
	Album *entity.Album `json:"album"`
	Link  string        `json:"link"`
}

// PublishAlbum saves the draft and returns the link to share with the recipient.
func (c *Core) PublishAlbum(ctx context.Context, code string) (*Publication, error) {
	a, err := c.SaveAlbum(ctx, code)
	if err != nil {
		return nil, err
	}
	c.log.With(sl.Code(a.ID)).Info("album published")
	return &Publication{
		Album: a,
		Link:  c.ShareLink(a.ID),
	}, nil
}

func (c *Core) ShareLink(albumID string) string {
	return c.publicURL + "/album/" + entity.NormalizeCode(albumID)
}

// OpenViewer starts a viewer session on a saved album.
func (c *Core) OpenViewer(ctx context.Context, albumID string) (*viewer.View, error) {
	a, err := c.albums.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, entity.ErrAlbumNotFound
	}
	session := c.sessions.Open(a)
	return session.View(c.now()), nil
}

func (c *Core) SessionView(sessionID string) (*viewer.View, error) {
	session, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.View(c.now()), nil
}

// Unlock returns the session view together with ErrPasswordMismatch on a
// wrong guess, so the lock screen can show the flag.
func (c *Core) Unlock(sessionID, password string) (*viewer.View, error) {
	session, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	err = session.Unlock(password)
	if errors.Is(err, entity.ErrPasswordMismatch) {
		c.log.With(sl.Session(sessionID), sl.Code(session.AlbumID())).Debug("wrong password")
	}
	return session.View(c.now()), err
}

func (c *Core) Enter(sessionID string) (*viewer.View, error) {
	session, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err = session.Enter(); err != nil {
		return nil, err
	}
	return session.View(c.now()), nil
}

func (c *Core) Reveal(sessionID, blockID string) (*viewer.View, error) {
	session, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err = session.ToggleReveal(blockID); err != nil {
		return nil, err
	}
	return session.View(c.now()), nil
}

// WatchCounter feeds fn the relationship counter every second until ctx ends.
func (c *Core) WatchCounter(ctx context.Context, sessionID string, fn func(viewer.Elapsed)) error {
	session, err := c.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	start, err := session.CounterStart()
	if err != nil {
		return err
	}
	viewer.Watch(ctx, start, counterInterval, c.now, fn)
	return nil
}

// CodeStatus is one row of the admin code list.
type CodeStatus struct {
	*entity.AccessCode
	Stage     string `json:"stage"`
	Remaining string `json:"remaining"`
	Link      string `json:"link"`
}

func (c *Core) codeStatus(code *entity.AccessCode, now time.Time) CodeStatus {
	state := registry.Classify(code, now)
	remaining := "unused"
	switch state.Stage {
	case registry.StageEditable:
		remaining = clock.HoursMinutes(registry.Remaining(code, now))
	case registry.StageViewOnly:
		remaining = "expired"
	}
	return CodeStatus{
		AccessCode: code,
		Stage:      state.Stage.String(),
		Remaining:  remaining,
		Link:       c.ShareLink(code.Code),
	}
}

func (c *Core) ListCodes(ctx context.Context) ([]CodeStatus, error) {
	codes, err := c.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	statuses := make([]CodeStatus, 0, len(codes))
	for _, code := range codes {
		statuses = append(statuses, c.codeStatus(code, now))
	}
	return statuses, nil
}

func (c *Core) AddCode(ctx context.Context, code string) (*CodeStatus, error) {
	ac, err := c.registry.Add(ctx, code)
	if err != nil {
		return nil, err
	}
	status := c.codeStatus(ac, c.now())
	return &status, nil
}

func (c *Core) GenerateCode(ctx context.Context) (*CodeStatus, error) {
	ac, err := c.registry.Generate(ctx)
	if err != nil {
		return nil, err
	}
	status := c.codeStatus(ac, c.now())
	return &status, nil
}

// DeleteCode removes the code, its album and any open draft.
func (c *Core) DeleteCode(ctx context.Context, code string) error {
	if err := c.registry.Delete(ctx, code); err != nil {
		return err
	}
	c.drafts.Discard(code)
	return nil
}

func (c *Core) ExtendCode(ctx context.Context, code string, hours int) (*CodeStatus, error) {
	ac, err := c.registry.Extend(ctx, code, hours)
	if err != nil {
		return nil, err
	}
	status := c.codeStatus(ac, c.now())
	return &status, nil
}
