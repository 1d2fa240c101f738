package admin

import (
	"context"
	"fmt"
	"log/slog"
	"lovealbum/entity"
	"lovealbum/impl/core"
	"lovealbum/lib/api/cont"
	"lovealbum/lib/api/response"
	"lovealbum/lib/sl"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ListCodes(ctx context.Context) ([]core.CodeStatus, error)
	AddCode(ctx context.Context, code string) (*core.CodeStatus, error)
	GenerateCode(ctx context.Context) (*core.CodeStatus, error)
	DeleteCode(ctx context.Context, code string) error
	ExtendCode(ctx context.Context, code string, hours int) (*core.CodeStatus, error)
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	log := logger.With(
		sl.Module("http.handlers.admin"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if user := cont.GetUser(r.Context()); user != nil {
		log = log.With(slog.String("user", user.Username))
	}
	return log
}

func failed(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string, err error) {
	log.Log(r.Context(), response.LogLevel(err), action, sl.Err(err))
	render.Status(r, response.Status(err))
	render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		codes, err := handler.ListCodes(r.Context())
		if err != nil {
			failed(w, r, log, "list codes", err)
			return
		}

		render.JSON(w, r, response.Ok(codes))
	}
}

func Add(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		var req entity.CodeRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		status, err := handler.AddCode(r.Context(), req.Code)
		if err != nil {
			failed(w, r, log.With(sl.Code(req.Code)), "add code", err)
			return
		}
		log.With(sl.Code(status.Code)).Info("code added")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(status))
	}
}

func Generate(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		status, err := handler.GenerateCode(r.Context())
		if err != nil {
			failed(w, r, log, "generate code", err)
			return
		}
		log.With(sl.Code(status.Code)).Info("code generated")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(status))
	}
}

func Delete(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := entity.NormalizeCode(chi.URLParam(r, "code"))
		log := requestLogger(logger, r).With(sl.Code(code))

		if err := handler.DeleteCode(r.Context(), code); err != nil {
			failed(w, r, log, "delete code", err)
			return
		}
		log.Info("code deleted")

		render.JSON(w, r, response.Ok(nil))
	}
}

func Extend(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := entity.NormalizeCode(chi.URLParam(r, "code"))
		log := requestLogger(logger, r).With(sl.Code(code))

		var req entity.ExtendRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		status, err := handler.ExtendCode(r.Context(), code, req.Hours)
		if err != nil {
			failed(w, r, log, "extend code", err)
			return
		}
		log.With(slog.Int("hours", req.Hours)).Info("edit window extended")

		render.JSON(w, r, response.Ok(status))
	}
}
