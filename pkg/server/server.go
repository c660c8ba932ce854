package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/handlers/ui"
	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/render"
	almmiddleware "github.com/de-tools/alm-console/pkg/server/middleware"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

//go:embed static
var staticFiles embed.FS

type WebAPI struct {
	router          http.Handler
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Sessions     *session.Store
	Orchestrator *orchestrator.Orchestrator
	Uploader     *upload.Uploader
	Chat         *chat.Controller
	Renderer     *render.Renderer
	Backend      ui.Backend
	Locator      ui.FileLocator
	Version      string
	Logger       zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) http.Handler {
	deps := config.Dependencies
	uiHandler := ui.NewHandler(ui.Dependencies{
		Sessions:     deps.Sessions,
		Orchestrator: deps.Orchestrator,
		Uploader:     deps.Uploader,
		Chat:         deps.Chat,
		Renderer:     deps.Renderer,
		Backend:      deps.Backend,
		Locator:      deps.Locator,
		Version:      deps.Version,
	})

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(almmiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", uiHandler.Health)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	router.Group(func(r chi.Router) {
		r.Use(almmiddleware.Session(deps.Sessions))

		r.Get("/", uiHandler.Index)

		r.Route("/ui", func(r chi.Router) {
			r.Post("/upload/{slot}", uiHandler.Upload)
			r.Get("/date-files", uiHandler.DateFiles)
			r.Post("/analyze", uiHandler.Analyze)
			r.Post("/analyze/assistant", uiHandler.Assistant)
			r.Get("/charts.xlsx", uiHandler.ChartsWorkbook)
			r.Post("/export", uiHandler.Export)
			r.Post("/cleanup", uiHandler.Cleanup)

			r.Post("/chat", uiHandler.SendMessage)
			r.Delete("/chat", uiHandler.ClearChat)
			r.Get("/chat/documents", uiHandler.ListDocuments)
			r.Post("/chat/documents", uiHandler.UploadDocument)
			r.Get("/chat/documents/{name}/preview", uiHandler.PreviewDocument)
			r.Delete("/chat/documents/{name}", uiHandler.DeleteDocument)

			r.Get("/admin/stats", uiHandler.AdminStats)
			r.Get("/admin/logs", uiHandler.AdminLogs)
			r.Get("/admin/users", uiHandler.AdminUsers)
			r.Post("/logout", uiHandler.Logout)
		})
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	router := ConfigureRouter(config)
	logger := config.Dependencies.Logger

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router:          router,
		logger:          &logger,
		shutdownTimeout: shutdownTimeout,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 30 * time.Second,
		},
	}
}

// Start serves until ctx is done or the process receives SIGINT/SIGTERM, then
// drains in-flight requests within the shutdown timeout.
func (w *WebAPI) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	w.logger.Info().Dur("timeout", w.shutdownTimeout).Msg("shutdown initiated")
	drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.shutdownTimeout)
	defer cancel()

	if err := w.server.Shutdown(drain); err != nil {
		w.logger.Error().Err(err).Msg("graceful shutdown failed, closing connections")
		return errors.Join(err, w.server.Close())
	}

	if err := <-serverErrors; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	w.logger.Info().Msg("server stopped")
	return nil
}
