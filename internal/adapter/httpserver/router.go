package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the public catalog endpoints and the JWT-protected mutation
// endpoints onto a chi mux.
func NewRouter(propertyHandler *PropertyHandler, authHandler *AuthHandler, tokenParser TokenParser, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", propertyHandler.HandleListProperties)
			r.Get("/{id}", propertyHandler.HandleGetPropertyByID)

			r.Group(func(r chi.Router) {
				r.Use(JWTAuth(tokenParser, logger))
				r.Post("/", propertyHandler.HandleCreateProperty)
				r.Put("/{id}", propertyHandler.HandleUpdateProperty)
				r.Delete("/{id}", propertyHandler.HandleDeleteProperty)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
