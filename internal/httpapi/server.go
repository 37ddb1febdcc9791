package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/airmon/air-monitor-service/internal/history"
	"github.com/airmon/air-monitor-service/internal/livebuffer"
	"github.com/airmon/air-monitor-service/internal/snapshot"
	"github.com/airmon/air-monitor-service/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server is the REST surface the dashboard consumes: the live window, the
// historical range query, and snapshot CRUD.
type Server struct {
	live      *livebuffer.Buffer
	telemetry *telemetry.Client
	history   *history.Service
	snapshots *snapshot.Service
	logger    *zap.Logger
	srv       *http.Server
}

// NewServer wires the routes and CORS layer for the given port.
func NewServer(
	port int,
	live *livebuffer.Buffer,
	tc *telemetry.Client,
	hs *history.Service,
	ss *snapshot.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		live:      live,
		telemetry: tc,
		history:   hs,
		snapshots: ss,
		logger:    logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/live/readings", s.handleLiveReadings).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.handleListSnapshots).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.handleCreateSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/snapshot/{id}", s.handleSnapshotDetail).Methods(http.MethodGet)
	api.HandleFunc("/snapshot/{id}", s.handleUpdateSnapshot).Methods(http.MethodPut)
	api.HandleFunc("/snapshot/{id}", s.handleDeleteSnapshot).Methods(http.MethodDelete)

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing stack, CORS included.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving in the background. Listen failures after startup are
// logged, not returned.
func (s *Server) Start() {
	s.logger.Info("http api listening", zap.String("addr", s.srv.Addr))
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
