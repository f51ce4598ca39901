// Package httpapi exposes the storage service over HTTP. The wire contract
// is the one the web client already speaks: the auth-token header, multipart
// uploads, and {"message","id"} error payloads.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Auth is the slice of AuthService the handlers need.
type Auth interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.Token, error)
	Logout(ctx context.Context, tokenValue string)
	FindUserByToken(ctx context.Context, tokenValue string) (*models.User, error)
}

// Files is the slice of FileService the handlers need.
type Files interface {
	Upload(ctx context.Context, owner *models.User, filename string, data []byte) error
	Download(ctx context.Context, owner *models.User, filename string) ([]byte, error)
	Delete(ctx context.Context, owner *models.User, filename string) error
	Rename(ctx context.Context, owner *models.User, oldFilename, newFilename string) error
	List(ctx context.Context, owner *models.User, limit int) ([]*models.File, error)
}

type Server struct {
	address string
	auth    Auth
	files   Files
	logger  logging.Logger
}

func NewServer(address string, logger logging.Logger, auth Auth, files Files) *Server {
	return &Server{
		address: address,
		auth:    auth,
		files:   files,
		logger:  logger.With("module", "http_server"),
	}
}

// Router builds the full route table. Split out from Run so tests can drive
// it through httptest.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogMiddleware)

	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("/file", s.handleUpload).Methods(http.MethodPost)
	protected.HandleFunc("/file", s.handleDownload).Methods(http.MethodGet)
	protected.HandleFunc("/file", s.handleRename).Methods(http.MethodPut)
	protected.HandleFunc("/file", s.handleDelete).Methods(http.MethodDelete)
	protected.HandleFunc("/list", s.handleList).Methods(http.MethodGet)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
