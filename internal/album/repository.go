// Package album stores album documents, one per access code.
package album

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/lib/clock"
	"lovealbum/lib/sl"
)

const (
	DefaultBackgroundColor = "#0d0d0d"
	DefaultTextColor       = "#e6d5b8"
	DefaultBorderColor     = "#b8860b"
)

// Store returns nil, nil from GetAlbum when no document exists.
type Store interface {
	GetAlbum(ctx context.Context, id string) (*entity.Album, error)
	SaveAlbum(ctx context.Context, album *entity.Album) error
}

type Repository struct {
	store Store
	now   clock.Clock
	log   *slog.Logger
}

func NewRepository(store Store, now clock.Clock, log *slog.Logger) *Repository {
	if now == nil {
		now = clock.System
	}
	return &Repository{
		store: store,
		now:   now,
		log:   log.With(sl.Module("album")),
	}
}

// Get returns nil, nil when the code has no album yet.
func (r *Repository) Get(ctx context.Context, code string) (*entity.Album, error) {
	id := entity.NormalizeCode(code)
	if id == "" {
		return nil, nil
	}
	album, err := r.store.GetAlbum(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get album %s: %w", id, err)
	}
	return album, nil
}

// Save overwrites the stored document; the last writer wins.
func (r *Repository) Save(ctx context.Context, album *entity.Album) error {
	if album == nil || album.ID == "" {
		return fmt.Errorf("save album: %w", entity.ErrAlbumNotFound)
	}
	if err := r.store.SaveAlbum(ctx, album); err != nil {
		return fmt.Errorf("save album %s: %w", album.ID, err)
	}
	r.log.With(sl.Code(album.ID), slog.Int("blocks", len(album.Blocks))).Debug("album saved")
	return nil
}

// CreateDefault builds an unsaved album with the default dark and gold theme.
func (r *Repository) CreateDefault(code string) *entity.Album {
	return NewDefault(code, r.now().UnixMilli())
}

func NewDefault(code string, createdAt int64) *entity.Album {
	return &entity.Album{
		ID:              entity.NormalizeCode(code),
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
		BorderColor:     DefaultBorderColor,
		EnableHearts:    true,
		EnableLights:    true,
		AnimationSpeed:  entity.SpeedNormal,
		TextSpeed:       entity.SpeedNormal,
		Blocks:          []*entity.Block{},
		CreatedAt:       createdAt,
	}
}
