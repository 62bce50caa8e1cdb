package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"zkmsg/internal/config"
	"zkmsg/internal/service/messenger"
	"zkmsg/internal/utils/log"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type (
	HttpServer struct {
		cfg       config.Server
		messenger *messenger.Service
		hub       *Hub
	}
)

func NewHttpServer(cfg config.Server, svc *messenger.Service, hub *Hub) *HttpServer {
	return &HttpServer{
		cfg:       cfg,
		messenger: svc,
		hub:       hub,
	}
}

// Handler returns the routed API with CORS, panic recovery, access logging,
// metrics and per-request timeouts applied.
func (s *HttpServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLog, s.instrument, s.timeout)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.Health()).Methods(http.MethodGet)
	api.HandleFunc("/generate-keys", s.GenerateKeys()).Methods(http.MethodPost)
	api.HandleFunc("/messages", s.SendMessage()).Methods(http.MethodPost)
	api.HandleFunc("/messages", s.ListMessages()).Methods(http.MethodGet)
	api.HandleFunc("/messages/retrieve", s.RetrieveMessage()).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id}/status", s.UpdateStatus()).Methods(http.MethodPatch)
	api.HandleFunc("/verify", s.VerifyProof()).Methods(http.MethodPost)
	api.HandleFunc("/participants/{name}", s.RegisterParticipant()).Methods(http.MethodPut)
	api.HandleFunc("/participants/{name}/keys", s.GetParticipantKeys()).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.hub.HandleWS()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log.L())),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(cors(r))
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HttpServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
