package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API on top of h.
func NewRouter(h *Handlers, log *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(storageBanner(func() string {
		return h.Roadmap.Status(context.Background()).Storage.Banner
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/items", h.ListItems)
		r.Post("/items", h.CreateItem)
		r.Get("/items/{id}", h.GetItem)
		r.Patch("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.DeleteItem)

		r.Get("/hierarchy", h.Hierarchy)
		r.Post("/dedupe", h.Dedupe)

		r.Post("/import", h.ImportCSV)
		r.Get("/export", h.ExportCSV)
		r.Get("/workbook", h.ExportWorkbook)
		r.Post("/workbook", h.ImportWorkbook)

		r.Get("/resourcing", h.GetResourcing)
		r.Put("/resourcing/personnel", h.PutPersonnel)
		r.Put("/resourcing/hardware", h.PutHardware)

		r.Get("/status", h.Status)
		r.Get("/history", h.History)
		r.Post("/undo", h.Undo)
		r.Get("/report", h.Report)
	})
	return r
}

// Serve runs srv until ctx is cancelled, then shuts it down, allowing
// in-flight requests up to shutdownTimeout to finish.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
