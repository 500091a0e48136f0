package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "sems-converter/docs"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/convert", func(r chi.Router) {
		r.Post("/reset", h.Reset)
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/files", h.ListFiles)
			r.Post("/submitfile", h.SubmitFile)
			r.Post("/process", h.Process)
			r.Get("/output", h.Output)
			r.Get("/runs", h.Runs)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
