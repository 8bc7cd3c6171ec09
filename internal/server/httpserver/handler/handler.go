package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/service"
	"github.com/yndnr/seqlink-go/internal/infra/buildinfo"
)

// bodyOverhead covers the JSON envelope around a base64 payload.
const bodyOverhead = 4096

// Handler serves the conversation API and the probe endpoints.
type Handler struct {
	coord    *service.Coordinator
	messages MessageHandler
	logger   *slog.Logger
	ready    ReadinessFunc
	info     buildinfo.Info
	cipher   string
	maxBody  int64
	mux      *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadiness sets the check behind GET /ready.
func WithReadiness(fn ReadinessFunc) Option {
	return func(h *Handler) {
		h.ready = fn
	}
}

// WithMaxFrameSize bounds request bodies to what a frame of n plaintext
// bytes can encode to.
func WithMaxFrameSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = int64(n)*4/3 + bodyOverhead
		}
	}
}

// WithBuildInfo sets the version reported by GET /v1/info.
func WithBuildInfo(info buildinfo.Info) Option {
	return func(h *Handler) {
		h.info = info
	}
}

// WithCipher sets the cipher name reported by GET /v1/info.
func WithCipher(name string) Option {
	return func(h *Handler) {
		h.cipher = name
	}
}

// New creates a Handler. A nil messages handler echoes every message.
func New(coord *service.Coordinator, messages MessageHandler, logger *slog.Logger, opts ...Option) *Handler {
	if messages == nil {
		messages = Echo
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		coord:    coord,
		messages: messages,
		logger:   logger,
		info:     buildinfo.Get(),
		maxBody:  1<<20*4/3 + bodyOverhead,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /v1/info", h.handleInfo)
	h.mux.HandleFunc("POST /v1/conversations/{id}/handshake", h.handleHandshake)
	h.mux.HandleFunc("POST /v1/conversations/{id}/exchange", h.handleExchange)
	h.mux.HandleFunc("GET /v1/conversations/{id}", h.handleDescribe)
	h.mux.HandleFunc("POST /v1/conversations/{id}/close", h.handleClose)
}

// decode reads a JSON body no larger than the handler's limit.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrFrameTooLarge.WithDetails("request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes")
		}
		return domain.ErrBadRequest.WithDetails("invalid request body").WithCause(err)
	}
	return nil
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed", "request_id", getRequestID(r), "code", de.Code, "error", err)
			h.writeError(w, r, status, de.Code, de.Message)
			return
		}
		msg := de.Message
		if de.Details != "" {
			msg += ": " + de.Details
		}
		h.writeError(w, r, status, de.Code, msg)
		return
	}

	h.logger.Error("internal error", "request_id", getRequestID(r), "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message)
}

// errorCodeToHTTPStatus maps SL-<AREA>-<NNNN> codes to HTTP statuses. For
// 4xxx and 5xxx the first three digits are the status; argument errors
// are 400.
func errorCodeToHTTPStatus(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[i+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	switch {
	case n >= 4000 && n < 6000:
		return n / 10
	case strings.HasPrefix(code, "SL-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// getRequestID returns the id set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
