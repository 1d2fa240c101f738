package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"lovealbum/internal/config"
	"lovealbum/internal/http-server/handlers/admin"
	"lovealbum/internal/http-server/handlers/builder"
	"lovealbum/internal/http-server/handlers/entry"
	httperrors "lovealbum/internal/http-server/handlers/errors"
	"lovealbum/internal/http-server/handlers/viewer"
	"lovealbum/internal/http-server/middleware/authenticate"
	"lovealbum/internal/http-server/middleware/reqlog"
	"lovealbum/internal/http-server/middleware/timeout"
	"lovealbum/lib/sl"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const requestTimeout = 5 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	entry.Core
	builder.Core
	viewer.Core
	admin.Core
}

// NewRouter builds the full route tree. The counter stream is the only route
// without a request timeout.
func NewRouter(log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(httperrors.NotFound(log))
	router.MethodNotAllowed(httperrors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Group(func(public chi.Router) {
			public.Use(reqlog.New(log))
			public.Get("/sessions/{sid}/counter", viewer.Counter(log, handler))

			public.Group(func(bounded chi.Router) {
				bounded.Use(timeout.Timeout(requestTimeout))
				bounded.Post("/entry", entry.Entry(log, handler))

				bounded.Route("/builder", func(b chi.Router) {
					b.Get("/palette", builder.Palette(log))
					b.Get("/catalog", builder.Catalog(log))
					b.Route("/{code}", func(bc chi.Router) {
						bc.Get("/", builder.Open(log, handler))
						bc.Patch("/", builder.Update(log, handler))
						bc.Post("/save", builder.Save(log, handler))
						bc.Post("/publish", builder.Publish(log, handler))
						bc.Post("/blocks", builder.AddBlock(log, handler))
						bc.Patch("/blocks/{blockId}", builder.UpdateBlock(log, handler))
						bc.Delete("/blocks/{blockId}", builder.RemoveBlock(log, handler))
						bc.Post("/blocks/{blockId}/duplicate", builder.DuplicateBlock(log, handler))
					})
				})

				bounded.Post("/albums/{id}/sessions", viewer.Open(log, handler))
				bounded.Get("/sessions/{sid}", viewer.Get(log, handler))
				bounded.Post("/sessions/{sid}/unlock", viewer.Unlock(log, handler))
				bounded.Post("/sessions/{sid}/enter", viewer.Enter(log, handler))
				bounded.Post("/sessions/{sid}/reveal/{blockId}", viewer.Reveal(log, handler))
			})
		})

		rootApi.Route("/admin", func(adm chi.Router) {
			adm.Use(timeout.Timeout(requestTimeout))
			adm.Use(authenticate.New(log, handler))
			adm.Get("/codes", admin.List(log, handler))
			adm.Post("/codes", admin.Add(log, handler))
			adm.Post("/codes/generate", admin.Generate(log, handler))
			adm.Delete("/codes/{code}", admin.Delete(log, handler))
			adm.Post("/codes/{code}/extend", admin.Extend(log, handler))
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) (*Server, error) {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	// no WriteTimeout: counter streams stay open while the album is on screen
	server.httpServer = &http.Server{
		Handler:     NewRouter(log, handler),
		ErrorLog:    httpLog,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return server, nil
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}
