package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// errMissingToken is returned by Start when handlers exist but no token was configured.
var errMissingToken = errors.New("api token is empty or has not been set")

// API is the token-guarded control server of watch mode.
type API struct {
	Token      string
	Addr       string
	registered bool
	mux        *http.ServeMux
	server     HTTPServer
}

// HTTPServer is the part of http.Server used by RunHTTPServer.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// New creates an API. The optional server replaces the http.Server built by Start.
//
// Parameters:
//   - token: Bearer token required on every request.
//   - addr: Listen address, e.g. ":8080".
//   - server: Optional server for tests.
//
// Returns:
//   - *API: API without handlers.
func New(token, addr string, server ...HTTPServer) *API {
	var injected HTTPServer
	if len(server) > 0 {
		injected = server[0]
	}

	return &API{
		Token:  token,
		Addr:   addr,
		mux:    http.NewServeMux(),
		server: injected,
	}
}

// RegisterFunc registers a token-guarded handler function for pattern.
func (a *API) RegisterFunc(pattern string, handler http.HandlerFunc) {
	a.mux.HandleFunc(pattern, a.RequireToken(handler))
	a.registered = true
}

// RegisterHandler registers a token-guarded handler for pattern.
func (a *API) RegisterHandler(pattern string, handler http.Handler) {
	a.mux.Handle(pattern, a.RequireToken(handler.ServeHTTP))
	a.registered = true
}

// Handler returns the routing handler with every registration applied.
func (a *API) Handler() http.Handler {
	return a.mux
}

// Start serves the registered handlers until ctx is done. When block is false the server
// runs in the background and Start returns at once. Without handlers nothing is started.
//
// Parameters:
//   - ctx: Context bounding the server lifetime.
//   - block: Whether to wait for the server to stop.
//
// Returns:
//   - error: Missing token, listen failure (when blocking) or shutdown failure.
func (a *API) Start(ctx context.Context, block bool) error {
	if !a.registered {
		logrus.Info("No control API handlers registered, skipping start.")

		return nil
	}

	if a.Token == "" {
		return errMissingToken
	}

	server := a.server
	if server == nil {
		server = &http.Server{
			Addr:              a.Addr,
			Handler:           a.mux,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			BaseContext:       func(_ net.Listener) context.Context { return ctx },
		}
	}

	logrus.WithField("addr", a.Addr).Info("Starting control API server")

	if block {
		return RunHTTPServer(ctx, server)
	}

	go func() {
		if err := RunHTTPServer(ctx, server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Control API server failed")
		}
	}()

	return nil
}

// RequireToken wraps handler so that requests without the bearer token get 401.
func (a *API) RequireToken(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")

		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || a.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
			logrus.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Debug("Rejected control API request without valid token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)

			return
		}

		handler(w, r)
	}
}

// RunHTTPServer runs server until it fails or ctx is done, then shuts it down gracefully.
func RunHTTPServer(ctx context.Context, server HTTPServer) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("control API server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		return nil
	}
}
