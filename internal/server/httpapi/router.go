// Package httpapi is the REST transport of the moodkeeper server. Every
// route except registration, login, health and metrics requires a bearer
// token, and every record operation is scoped to the token's subject.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout covers worker runs, which are bounded separately.
const requestTimeout = 60 * time.Second

type Deps struct {
	Users       UserService
	Journals    JournalService
	Selfies     SelfieService
	Ratings     RatingService
	Predictions PredictionService

	SecretKey []byte
	ModelDir  string

	Logger   logging.Logger
	Counter  RequestCounter
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With("module", "http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(logger))
	if d.Counter != nil {
		r.Use(CountRequests(d.Counter))
	}
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	users := NewUserHandler(d.Users, logger)
	users.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(d.SecretKey, logger))

		users.Register(r)
		NewJournalHandler(d.Journals, logger).Register(r)
		NewSelfieHandler(d.Selfies, logger).Register(r)
		NewRatingHandler(d.Ratings, logger).Register(r)
		NewPredictionHandler(d.Predictions, d.ModelDir, logger).Register(r)
	})

	return r
}
