package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/internal/viewer"
	"lovealbum/lib/api/response"
	"lovealbum/lib/sl"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	OpenViewer(ctx context.Context, albumID string) (*viewer.View, error)
	SessionView(sessionID string) (*viewer.View, error)
	Unlock(sessionID, password string) (*viewer.View, error)
	Enter(sessionID string) (*viewer.View, error)
	Reveal(sessionID, blockID string) (*viewer.View, error)
	WatchCounter(ctx context.Context, sessionID string, fn func(viewer.Elapsed)) error
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	log := logger.With(
		sl.Module("http.handlers.viewer"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if sid := chi.URLParam(r, "sid"); sid != "" {
		log = log.With(sl.Session(sid))
	}
	return log
}

func failed(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string, err error) {
	log.Log(r.Context(), response.LogLevel(err), action, sl.Err(err))
	render.Status(r, response.Status(err))
	render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
}

// Open starts a viewer session for a published album.
func Open(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r).With(sl.Code(entity.NormalizeCode(chi.URLParam(r, "id"))))

		view, err := handler.OpenViewer(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			failed(w, r, log, "open viewer", err)
			return
		}
		log.With(sl.Session(view.SessionID), slog.String("stage", string(view.Stage))).Debug("viewer opened")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(view))
	}
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		view, err := handler.SessionView(chi.URLParam(r, "sid"))
		if err != nil {
			failed(w, r, log, "get session", err)
			return
		}

		render.JSON(w, r, response.Ok(view))
	}
}

// Unlock checks a password guess. A wrong guess is not a failed call: the
// view comes back with wrong_password set and success=false.
func Unlock(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var req entity.UnlockRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		view, err := handler.Unlock(chi.URLParam(r, "sid"), req.Password)
		if errors.Is(err, entity.ErrPasswordMismatch) {
			resp := response.Error("Wrong password")
			resp.Data = view
			render.JSON(w, r, resp)
			return
		}
		if err != nil {
			failed(w, r, log, "unlock", err)
			return
		}

		render.JSON(w, r, response.Ok(view))
	}
}

func Enter(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		view, err := handler.Enter(chi.URLParam(r, "sid"))
		if err != nil {
			failed(w, r, log, "enter", err)
			return
		}

		render.JSON(w, r, response.Ok(view))
	}
}

func Reveal(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		blockID := chi.URLParam(r, "blockId")

		view, err := handler.Reveal(chi.URLParam(r, "sid"), blockID)
		if err != nil {
			failed(w, r, log.With(slog.String("block_id", blockID)), "reveal", err)
			return
		}

		render.JSON(w, r, response.Ok(view))
	}
}

// Counter streams the relationship counter as server-sent events, one per
// second, until the client goes away.
func Counter(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			log.Error("streaming not supported")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Streaming not supported"))
			return
		}

		started := false
		err := handler.WatchCounter(r.Context(), chi.URLParam(r, "sid"), func(e viewer.Elapsed) {
			if !started {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.Header().Set("Connection", "keep-alive")
				w.WriteHeader(http.StatusOK)
				started = true
			}
			data, _ := json.Marshal(e)
			_, _ = fmt.Fprintf(w, "event: counter\ndata: %s\n\n", data)
			flusher.Flush()
		})
		if err != nil {
			failed(w, r, log, "watch counter", err)
			return
		}
		log.Debug("counter stream closed")
	}
}
