package shieldapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router builds the chi router exposing the provider and manifest
// builders, in place of walletserver/routes' gorilla/mux registration.
func Router(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)

	r.Route("/api/factors", func(r chi.Router) {
		r.Post("/provide", h.Provide)
		r.Get("/status", h.Status)
	})
	r.Route("/api/manifests", func(r chi.Router) {
		r.Post("/securify", h.Securify)
		r.Post("/recover", h.Recover)
	})

	return r
}
