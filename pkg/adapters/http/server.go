package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/greeter/internal/logging"
	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/feature"
	"github.com/aretw0/greeter/pkg/features/greetings"
	"github.com/aretw0/greeter/pkg/observability"
	"github.com/aretw0/greeter/pkg/registry"
	"github.com/aretw0/greeter/pkg/usecase"
)

const genericServerError = "An unexpected error occurred"

// maxBodyBytes bounds request bodies; a valid create request is far smaller.
const maxBodyBytes = 4096

// HealthReporter exposes feature initialization state.
type HealthReporter interface {
	Status() []feature.FeatureStatus
}

// Config carries everything the handler needs.
type Config struct {
	Container      *registry.Container
	Health         HealthReporter
	Metrics        *observability.Metrics
	Logger         *slog.Logger
	AppName        string
	Version        string
	Environment    string
	DetailedErrors bool
	AllowedOrigins []string
}

// Server implements ServerInterface on top of the greeting use cases.
type Server struct {
	container *registry.Container
	health    HealthReporter
	logger    *slog.Logger
	detailed  bool
	info      map[string]string
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// NewHandler validates the embedded OpenAPI document and builds the router.
func NewHandler(cfg Config) (http.Handler, error) {
	doc, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	if cfg.Container == nil {
		return nil, errors.New("http handler requires a service container")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	server := &Server{
		container: cfg.Container,
		health:    cfg.Health,
		logger:    cfg.Logger,
		detailed:  cfg.DetailedErrors,
		info:      buildInfo(cfg, doc),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.AllowedOrigins))
	r.Use(instrument(cfg.Metrics))
	r.Use(server.scoped)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	return HandlerFromMux(server, r, server.bindError), nil
}

func buildInfo(cfg Config, doc *openapi3.T) map[string]string {
	apiVersion := "unknown"
	if doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	return map[string]string{
		"app":         cfg.AppName,
		"version":     strings.TrimSpace(cfg.Version),
		"api_version": apiVersion,
		"environment": cfg.Environment,
	}
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Greeter API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// cors allows the configured origins only. Preflight requests are answered directly.
func cors(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && origin != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func instrument(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.IncHTTPRequest(r.Method, route, strconv.Itoa(status))
		})
	}
}

type scopeKey struct{}

// scoped gives every request its own registry scope, closed when the request ends.
func (s *Server) scoped(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := s.container.NewScope()
		defer func() {
			if err := scope.Close(); err != nil {
				s.logger.Warn("Failed to close request scope", "err", err)
			}
		}()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey{}, scope)))
	})
}

func (s *Server) useCases(ctx context.Context) (usecase.GreetingUseCases, error) {
	var resolver registry.Resolver = s.container
	if scope, ok := ctx.Value(scopeKey{}).(*registry.Scope); ok {
		resolver = scope
	}
	return registry.Resolve[usecase.GreetingUseCases](ctx, resolver, greetings.UseCasesKey)
}

// Hello handles the GET /hello request.
func (s *Server) Hello(w http.ResponseWriter, r *http.Request, params HelloParams) {
	uc, err := s.useCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message, err := uc.Hello(r.Context(), params.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(message))
}

// CreateGreeting handles the POST /api/greetings request.
func (s *Server) CreateGreeting(w http.ResponseWriter, r *http.Request) {
	var body usecase.CreateGreetingRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("CreateGreeting: Invalid request body", "err", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	uc, err := s.useCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := uc.CreateGreeting(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/greetings/"+created.ID.String())
	writeJSON(w, http.StatusCreated, created)
}

// GetGreeting handles the GET /api/greetings/{id} request.
func (s *Server) GetGreeting(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "id must be a valid UUID"})
		return
	}

	uc, err := s.useCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	greeting, err := uc.GetGreeting(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, greeting)
}

// ListGreetings handles the GET /api/greetings request.
func (s *Server) ListGreetings(w http.ResponseWriter, r *http.Request) {
	uc, err := s.useCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := uc.ListGreetings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// FindGreetingsByName handles the GET /api/greetings/by-name/{name} request.
func (s *Server) FindGreetingsByName(w http.ResponseWriter, r *http.Request, name string) {
	uc, err := s.useCases(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := uc.FindGreetingsByName(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type healthBody struct {
	Status   string                  `json:"status"`
	Features []feature.FeatureStatus `json:"features"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthBody{Status: "ok", Features: []feature.FeatureStatus{}}
	if s.health != nil {
		resp.Features = s.health.Status()
	}

	code := http.StatusOK
	for _, f := range resp.Features {
		if f.State != feature.StateInitialized.String() {
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, resp)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) bindError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Error()})
	case errors.Is(err, domain.ErrGreetingNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrGreetingExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		s.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		msg := genericServerError
		if s.detailed {
			msg = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
