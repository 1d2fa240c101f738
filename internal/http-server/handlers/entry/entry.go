package entry

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/impl/core"
	"lovealbum/lib/api/response"
	"lovealbum/lib/sl"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Entry(ctx context.Context, input string) (*core.EntryResult, error)
}

// Entry answers the entry screen. An unknown or empty code is a normal
// outcome and comes back as a successful call with valid=false.
func Entry(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.entry")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("entry service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Entry service not available"))
			return
		}

		var req entity.EntryRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		log = log.With(sl.Code(entity.NormalizeCode(req.Code)))

		result, err := handler.Entry(r.Context(), req.Code)
		if err != nil {
			log.Log(r.Context(), response.LogLevel(err), "code validation", sl.Err(err))
			render.Status(r, response.Status(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.With(
			slog.Bool("valid", result.Valid),
			slog.Bool("editable", result.Editable),
		).Debug("code checked")

		render.JSON(w, r, response.OkWithMessage(result, result.Message))
	}
}
