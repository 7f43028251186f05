package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	bringlistservice "meetfix/contexts/event-coordination/bringlist-service"
	eventservice "meetfix/contexts/event-coordination/event-service"
	groupservice "meetfix/contexts/event-coordination/group-service"
	notificationservice "meetfix/contexts/event-coordination/notification-service"
	"meetfix/contracts/errkind"
	"meetfix/internal/platform/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "meetfix/internal/platform/httpserver/docs"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Addr        string
	ServiceName string
	CORSOrigins []string
	RateLimit   int
	// Ready backs /readyz; nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	mux           *chi.Mux
	logger        *slog.Logger
	addr          string
	validate      *validator.Validate
	ready         func(context.Context) error
	groups        groupservice.Module
	events        eventservice.Module
	bringlist     bringlistservice.Module
	notifications notificationservice.Module
}

func New(
	groups groupservice.Module,
	events eventservice.Module,
	bringlist bringlistservice.Module,
	notifications notificationservice.Module,
	logger *slog.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "meetfix-api"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 100
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"http://localhost:5173"}
	}

	s := &Server{
		mux:           chi.NewRouter(),
		logger:        logger,
		addr:          opts.Addr,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		ready:         opts.Ready,
		groups:        groups,
		events:        events,
		bringlist:     bringlist,
		notifications: notifications,
	}
	s.registerMiddleware(opts)
	s.registerRoutes()
	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// HTTPServer builds the listener-owning server; the caller runs and shuts it
// down.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) registerMiddleware(opts Options) {
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(telemetry.Middleware(opts.ServiceName))
	s.mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-User-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           600,
	}))
	s.mux.Use(httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, keyByUser)))
}

func (s *Server) registerRoutes() {
	s.mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Get("/readyz", s.handleReady)
	s.mux.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.mux.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.Route("/v1", func(r chi.Router) {
		s.registerGroupRoutes(r)
		s.registerEventRoutes(r)
		s.registerBringlistRoutes(r)
		s.registerNotificationRoutes(r)
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed",
				"event", "http_readiness_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err.Error(),
			)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ready"))
}

func keyByUser(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get("X-User-Id")), nil
}

// requireUser reads the caller identity; it writes the 401 itself.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "unauthenticated", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

// decodeAndValidate writes the 400 itself when the body is unusable.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid_json", "request body must be valid JSON")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "validation_failed", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		part := fieldErr.Namespace() + " failed " + fieldErr.Tag()
		if fieldErr.Param() != "" {
			part += "=" + fieldErr.Param()
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) logUnexpected(r *http.Request, err error) {
	s.logger.Error("request failed",
		"event", "http_request_failed",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"trace_id", telemetry.TraceID(r.Context()),
		"error", err.Error(),
	)
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var kindStatus = map[string]int{
	"unauthenticated":      http.StatusUnauthorized,
	"unauthorized":         http.StatusForbidden,
	"not_found":            http.StatusNotFound,
	"invalid_state":        http.StatusConflict,
	"constraint_violation": http.StatusConflict,
	"invalid_input":        http.StatusBadRequest,
}

// writeDomainError derives the status and kind from err. code names the
// specific failure and falls back to the kind.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, code string, err error) {
	kind := errkind.Name(err)
	status, ok := kindStatus[kind]
	if !ok {
		s.logUnexpected(r, err)
		writeError(w, http.StatusInternalServerError, "internal", "internal_error", "internal server error")
		return
	}
	if code == "" {
		code = kind
	}
	writeError(w, status, kind, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, kind string, code string, message string) {
	writeJSON(w, status, errorResponse{
		Kind:    kind,
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
