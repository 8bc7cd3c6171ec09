package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/seqlink-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the API and probe routes.
	Handler *handler.Handler

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// Requests receives per-request measurements. Optional.
	Requests RequestObserver

	// Logger for audit and panic logging.
	Logger *slog.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = CORS off).
	CORSAllowedOrigins []string

	// RateLimiter limits API requests per client IP. Nil disables limiting.
	RateLimiter *RateLimiter

	// TrustProxy honors X-Forwarded-For when identifying clients.
	TrustProxy bool

	// EnableAudit enables audit logging for API requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := cfg.Handler

	// Shared prefix: TrustProxy -> RequestID -> Recover -> Instrument.
	base := []Middleware{}
	if cfg.TrustProxy {
		base = append(base, TrustProxy())
	}
	base = append(base, RequestID(), Recover(logger))
	if cfg.Requests != nil {
		base = append(base, Instrument(cfg.Requests))
	}

	mux := http.NewServeMux()

	// Probes skip CORS, rate limiting and audit.
	probe := Chain(h, base...)
	mux.Handle("GET /health", probe)
	mux.Handle("GET /ready", probe)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, base...))
	}

	api := append([]Middleware{}, base...)
	if len(cfg.CORSAllowedOrigins) > 0 {
		api = append(api, CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.EnableAudit {
		api = append(api, Audit(logger))
	}
	if cfg.RateLimiter != nil {
		api = append(api, RateLimit(cfg.RateLimiter))
	}
	apiHandler := Chain(h, api...)

	mux.Handle("GET /v1/info", apiHandler)
	mux.Handle("POST /v1/conversations/{id}/handshake", apiHandler)
	mux.Handle("POST /v1/conversations/{id}/exchange", apiHandler)
	mux.Handle("GET /v1/conversations/{id}", apiHandler)
	mux.Handle("POST /v1/conversations/{id}/close", apiHandler)
	if len(cfg.CORSAllowedOrigins) > 0 {
		mux.Handle("OPTIONS /v1/", apiHandler)
	}

	return mux
}
