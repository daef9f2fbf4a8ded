package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	identityservice "ardhi/contexts/identity-access/identity-service"
	identityerrors "ardhi/contexts/identity-access/identity-service/domain/errors"
	identityports "ardhi/contexts/identity-access/identity-service/ports"
	identityhttp "ardhi/contexts/identity-access/identity-service/transport/http"
	searchapplicationservice "ardhi/contexts/registry-core/search-application-service"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	registryerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	registryhttp "ardhi/contexts/registry-core/search-application-service/transport/http"
	_ "ardhi/internal/platform/httpserver/docs"
	"ardhi/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	registry searchapplicationservice.Module
	identity identityservice.Module
	metrics  *metrics.Metrics
}

func New(
	registry searchapplicationservice.Module,
	identity identityservice.Module,
	m *metrics.Metrics,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		registry: registry,
		identity: identity,
		metrics:  m,
	}
	s.registerRoutes()
	return s
}

// Start serves until the listener fails or ctx is cancelled, then drains
// in-flight requests before returning.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle("POST /api/auth/register", s.handleRegister)
	s.handle("POST /api/auth/login", s.handleLogin)
	s.handle("GET /api/auth/me", s.handleMe)
	s.handle("GET /api/users", s.handleListUsers)
	s.handle("POST /api/users/{user_id}/deactivate", s.handleDeactivateUser)

	s.handle("POST /api/applications", s.handleCreateApplication)
	s.handle("GET /api/applications", s.handleListApplications)
	s.handle("GET /api/applications/submitted", s.handleListSubmitted)
	s.handle("GET /api/applications/assigned", s.handleListAssigned)
	s.handle("GET /api/applications/{application_id}", s.handleGetApplication)
	s.handle("POST /api/applications/{application_id}/payment", s.handleRecordPayment)
	s.handle("GET /api/applications/{application_id}/payment", s.handleGetPayment)
	s.handle("POST /api/applications/{application_id}/assign", s.handleAssignRegistrar)
	s.handle("POST /api/applications/{application_id}/approve", s.handleApproveApplication)
	s.handle("POST /api/applications/{application_id}/reject", s.handleRejectApplication)
	s.handle("GET /api/applications/{application_id}/reviews", s.handleListReviews)
	s.handle("GET /api/applications/{application_id}/certificate", s.handleFetchCertificate)
}

func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	if s.metrics != nil {
		handler = s.metrics.Middleware(pattern, handler)
	}
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) observeTransition(toStatus string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(toStatus)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticate resolves the bearer token to a verified identity. All
// protected routes go through here before touching a module.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (identityports.Identity, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		writeIdentityError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token is required")
		return identityports.Identity{}, false
	}

	identity, err := s.identity.Handler.Authenticate(r.Context(), token)
	if err != nil {
		writeIdentityDomainError(w, err)
		return identityports.Identity{}, false
	}
	return identity, true
}

// registryActor narrows an authenticated identity to the registry context's
// actor shape.
func registryActor(identity identityports.Identity) entities.Actor {
	role, _ := entities.ParseRole(string(identity.Role))
	return entities.Actor{
		UserID:   identity.UserID,
		Role:     role,
		County:   identity.County,
		Registry: identity.Registry,
	}
}

func writeIdentityDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identityerrors.ErrInvalidUserInput),
		errors.Is(err, identityerrors.ErrWeakPassword):
		writeIdentityError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, identityerrors.ErrUsernameTaken):
		writeIdentityError(w, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, identityerrors.ErrInvalidCredentials),
		errors.Is(err, identityerrors.ErrInvalidToken),
		errors.Is(err, identityerrors.ErrUserInactive):
		writeIdentityError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, identityerrors.ErrActorNotAuthorized):
		writeIdentityError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, identityerrors.ErrUserNotFound):
		writeIdentityError(w, http.StatusNotFound, "user_not_found", err.Error())
	default:
		writeIdentityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrInvalidApplicationInput),
		errors.Is(err, registryerrors.ErrInvalidPaymentAmount):
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, registryerrors.ErrActorNotAuthorized):
		writeRegistryError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidStatusTransition):
		writeRegistryError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, registryerrors.ErrDuplicateInvoice):
		writeRegistryError(w, http.StatusConflict, "duplicate_invoice", err.Error())
	case errors.Is(err, registryerrors.ErrApplicationNotFound):
		writeRegistryError(w, http.StatusNotFound, "application_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrCertificateNotFound):
		writeRegistryError(w, http.StatusNotFound, "certificate_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrRegistrarNotFound):
		writeRegistryError(w, http.StatusNotFound, "registrar_not_found", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeIdentityError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, identityhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
