package webd

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"

	"github.com/strayward/stopd/aggregate"
	"github.com/strayward/stopd/api"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/state"
)

// WebDaemon hosts the analysis pipeline over HTTP.
// It owns everything the pipeline core refuses to: upload limits,
// per-file skip policy, run identifiers, result caching, and the
// persistent run store.
type WebDaemon struct {
	Config *params.WebDaemonConfig

	logger         *slog.Logger
	analyzer       *api.Analyzer
	store          *state.Store
	results        *resultCache
	melodyInstance *melody.Melody
	feedAnalyzed   event.FeedOf[[]aggregate.TraceStatistics]
	started        time.Time
}

func NewWebDaemon(config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	analyzer, err := api.NewAnalyzer(config.Classifier, nil)
	if err != nil {
		return nil, err
	}
	d := &WebDaemon{
		Config: config,

		logger:       slog.With("d", "web"),
		analyzer:     analyzer,
		results:      newResultCache(),
		feedAnalyzed: event.FeedOf[[]aggregate.TraceStatistics]{},
	}
	if config.DataDir != "" {
		store, err := state.NewStore(config.DataDir)
		if err != nil {
			return nil, err
		}
		d.store = store
	}
	return d, nil
}

// Run starts the HTTP server and waits for it, returning any server error.
func (s *WebDaemon) Run() error {
	router := s.NewRouter()
	lis, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	s.started = time.Now()
	s.logger.Info("Starting web daemon", "addr", lis.Addr().String())
	return http.Serve(lis, router)
}

func (s *WebDaemon) Close() error {
	s.results.Stop()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *WebDaemon) NewRouter() *mux.Router {
	// Handle websocket.
	s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	router.Path("/feed").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	// Classified points stream as NDJSON, not a single JSON document.
	apiRoutes.Path("/points").HandlerFunc(s.handlePoints).Methods(http.MethodGet)
	apiRoutes.Path("/points/{id}").HandlerFunc(s.handlePoints).Methods(http.MethodGet)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	jsonMiddleware := contentTypeMiddlewareFunc("application/json")
	apiJSONRoutes.Use(jsonMiddleware)

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/stats").HandlerFunc(s.handleLastStats).Methods(http.MethodGet)
	apiJSONRoutes.Path("/stats/{id}").HandlerFunc(s.handleRunStats).Methods(http.MethodGet)
	apiJSONRoutes.Path("/features/{id}").HandlerFunc(s.handleFeatures).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/analyze/").HandlerFunc(s.handleAnalyze).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/analyze").HandlerFunc(s.handleAnalyze).Methods(http.MethodPost)

	return router
}
