package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a [chi.Mux] serving every route of the given handlers with GET.
//
// Panics in handlers are recovered; requests are logged through logger when it is not nil.
func NewRouter(logger *log.Logger, handlers ...Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if logger != nil {
		r.Use(RequestLogger(logger))
	}

	for _, h := range handlers {
		for _, route := range h.Routes() {
			r.Method(http.MethodGet, route, h)
		}
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
	return r
}
