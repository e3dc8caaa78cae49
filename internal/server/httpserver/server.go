// Package httpserver exposes the account and profile API as JSON over
// HTTP, plus /metrics and /healthz.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/astroprofile/internal/logging"
	"github.com/dmitrijs2005/astroprofile/internal/server/auth"
	"github.com/dmitrijs2005/astroprofile/internal/server/models"
	"github.com/dmitrijs2005/astroprofile/internal/server/profile"
	"github.com/dmitrijs2005/astroprofile/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// UserService is the subset of services.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, in services.LoginInput) (string, error)
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
	GetProfile(ctx context.Context, sess *auth.Session) (*models.ProfileView, error)
	UpdateProfile(ctx context.Context, sess *auth.Session, update map[string]any, attachment *profile.Attachment) (models.Profile, error)
	Logout(ctx context.Context, sess *auth.Session) error
}

// AttachmentStore persists uploaded files.
type AttachmentStore interface {
	Save(ctx context.Context, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

type Server struct {
	address     string
	users       UserService
	attachments AttachmentStore
	logger      logging.Logger
	registry    *prometheus.Registry
	metrics     *Metrics
	router      *mux.Router
}

// NewServer builds the router. Metrics are registered with reg, which is
// also what /metrics serves.
func NewServer(address string, l logging.Logger, users UserService, attachments AttachmentStore, reg *prometheus.Registry) *Server {
	s := &Server{
		address:     address,
		users:       users,
		attachments: attachments,
		logger:      l.With("module", "http_server"),
		registry:    reg,
		metrics:     NewMetrics(reg),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.requireSession)
	protected.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-shutdownErr
}
