package builder

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/impl/core"
	"lovealbum/internal/album"
	"lovealbum/lib/api/response"
	"lovealbum/lib/sl"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	OpenBuilder(ctx context.Context, code string) (*entity.Album, error)
	UpdateAlbum(ctx context.Context, code string, patch *entity.AlbumPatch) (*entity.Album, error)
	AddBlock(ctx context.Context, code string, t entity.BlockType) (*entity.Block, error)
	UpdateBlock(ctx context.Context, code, blockID string, patch *entity.BlockPatch) (*entity.Block, error)
	RemoveBlock(ctx context.Context, code, blockID string) error
	DuplicateBlock(ctx context.Context, code, blockID string) (*entity.Block, error)
	SaveAlbum(ctx context.Context, code string) (*entity.Album, error)
	PublishAlbum(ctx context.Context, code string) (*core.Publication, error)
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.builder"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		sl.Code(entity.NormalizeCode(chi.URLParam(r, "code"))),
	)
}

func failed(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string, err error) {
	log.Log(r.Context(), response.LogLevel(err), action, sl.Err(err))
	render.Status(r, response.Status(err))
	render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
}

func badRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Debug("invalid request body", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
}

// Open redeems the code on first use and returns the album being edited.
func Open(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		a, err := handler.OpenBuilder(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			failed(w, r, log, "open builder", err)
			return
		}
		log.With(slog.Int("blocks", len(a.Blocks))).Debug("builder opened")

		render.JSON(w, r, response.Ok(a))
	}
}

func Update(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var patch entity.AlbumPatch
		if err := render.Bind(r, &patch); err != nil {
			badRequest(w, r, log, err)
			return
		}

		a, err := handler.UpdateAlbum(r.Context(), chi.URLParam(r, "code"), &patch)
		if err != nil {
			failed(w, r, log, "update album", err)
			return
		}

		render.JSON(w, r, response.Ok(a))
	}
}

func AddBlock(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var req entity.NewBlockRequest
		if err := render.Bind(r, &req); err != nil {
			badRequest(w, r, log, err)
			return
		}

		block, err := handler.AddBlock(r.Context(), chi.URLParam(r, "code"), req.Type)
		if err != nil {
			failed(w, r, log, "add block", err)
			return
		}
		log.With(slog.String("block_id", block.ID), slog.String("type", string(block.Type))).Debug("block added")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(block))
	}
}

func UpdateBlock(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		blockID := chi.URLParam(r, "blockId")

		var patch entity.BlockPatch
		if err := render.Bind(r, &patch); err != nil {
			badRequest(w, r, log, err)
			return
		}

		block, err := handler.UpdateBlock(r.Context(), chi.URLParam(r, "code"), blockID, &patch)
		if err != nil {
			failed(w, r, log.With(slog.String("block_id", blockID)), "update block", err)
			return
		}

		render.JSON(w, r, response.Ok(block))
	}
}

func RemoveBlock(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		blockID := chi.URLParam(r, "blockId")

		if err := handler.RemoveBlock(r.Context(), chi.URLParam(r, "code"), blockID); err != nil {
			failed(w, r, log.With(slog.String("block_id", blockID)), "remove block", err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func DuplicateBlock(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		blockID := chi.URLParam(r, "blockId")

		block, err := handler.DuplicateBlock(r.Context(), chi.URLParam(r, "code"), blockID)
		if err != nil {
			failed(w, r, log.With(slog.String("block_id", blockID)), "duplicate block", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(block))
	}
}

func Save(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		a, err := handler.SaveAlbum(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			failed(w, r, log, "save album", err)
			return
		}
		log.Info("album saved")

		render.JSON(w, r, response.Ok(a))
	}
}

func Publish(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		pub, err := handler.PublishAlbum(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			failed(w, r, log, "publish album", err)
			return
		}

		render.JSON(w, r, response.Ok(pub))
	}
}

func Palette(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(album.Palette()))
	}
}

func Catalog(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(album.Catalog()))
	}
}
