package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/shots", func(r chi.Router) {
		r.Post("/", app.UploadShotHandler)
		r.Post("/confirmations/{token}", app.ConfirmShotHandler)
		r.Get("/unannotated", app.QueueHandler)
		r.Get("/{id}/video", app.StreamVideoHandler)
	})

	r.Get("/annotations", app.SummaryHandler)

	r.Route("/annotate", func(r chi.Router) {
		r.Get("/", app.EnterAnnotateHandler)
		r.Post("/", app.SubmitAnnotationHandler)
		r.Delete("/", app.CancelAnnotateHandler)
		r.Post("/select", app.SelectShotHandler)
	})

	r.Post("/danger/clear", app.ClearAllHandler)
	r.Post("/maintenance/reconcile", app.ReconcileHandler)

	return r
}
