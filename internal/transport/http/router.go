package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"wordsprint/internal/app"
)

// Options configures optional parts of the router.
type Options struct {
	// Admin enables the admin endpoints when set.
	Admin *AdminAuth
	// Audio enables pronunciation playback when set.
	Audio        Speaker
	TickInterval time.Duration
}

// NewRouter registers the REST API, the session stream and the health check.
func NewRouter(service *app.GameService, opts Options) http.Handler {
	api := NewAPIHandler(service, opts.Admin, opts.Audio)
	ws := NewWSHandler(service, opts.TickInterval)

	r := mux.NewRouter()
	r.Use(Logging)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/sessions/{id}", ws.ServeWS).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/words", api.Words).Methods(http.MethodGet)
	apiRouter.HandleFunc("/submit", api.Submit).Methods(http.MethodPost)
	apiRouter.HandleFunc("/ranking", api.Ranking).Methods(http.MethodGet)
	apiRouter.HandleFunc("/rank", api.Rank).Methods(http.MethodGet)
	apiRouter.HandleFunc("/miss", api.RecordMiss).Methods(http.MethodPost)
	apiRouter.HandleFunc("/misses", api.Misses).Methods(http.MethodGet)

	apiRouter.HandleFunc("/sessions", api.CreateSession).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions/{id}", api.GetSession).Methods(http.MethodGet)
	apiRouter.HandleFunc("/sessions/{id}", api.DeleteSession).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/sessions/{id}/answer", api.Answer).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions/{id}/next", api.Next).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions/{id}/submit", api.SubmitSession).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions/{id}/audio", api.Audio).Methods(http.MethodGet)

	if opts.Admin != nil {
		apiRouter.HandleFunc("/admin/login", api.Login).Methods(http.MethodPost)
		admin := apiRouter.PathPrefix("/admin").Subrouter()
		admin.Use(opts.Admin.Middleware)
		admin.HandleFunc("/reset", api.Reset).Methods(http.MethodPost)
		admin.HandleFunc("/reload-words", api.ReloadWords).Methods(http.MethodPost)
	}
	return r
}
