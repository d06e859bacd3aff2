package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eventbond/eventbond/internal/auth"
	"github.com/eventbond/eventbond/internal/bookings"
	"github.com/eventbond/eventbond/internal/categories"
	"github.com/eventbond/eventbond/internal/events"
	"github.com/eventbond/eventbond/internal/observability"
	"github.com/eventbond/eventbond/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	EventsHandler     *events.Handler
	ImagesHandler     *events.ImageHandler
	BookingsHandler   *bookings.Handler
	CategoriesHandler *categories.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/events", params.EventsHandler.MountRoutes)
	r.Route("/eventImages", params.ImagesHandler.MountRoutes)
	r.Route("/bookings", params.BookingsHandler.MountRoutes)
	r.Route("/categories", params.CategoriesHandler.MountRoutes)

	return r
}
