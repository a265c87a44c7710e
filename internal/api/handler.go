package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/envoverlay/internal/config"
	"github.com/eugenenazirov/envoverlay/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the label store and the effective configuration into HTTP
// handlers.
type Handler struct {
	store storage.Store
	cfg   config.Config

	clock func() time.Time

	mu              sync.RWMutex
	labelsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Store, cfg config.Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		cfg:   cfg,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.labelsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:      "ok",
		Environment: string(h.cfg.Environment),
		Timestamp:   h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConfig echoes the effective configuration after all sources were
// applied, so operators can verify which overlay values took effect.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := configResponse{
		Port:                 h.cfg.Port,
		Environment:          string(h.cfg.Environment),
		EnableRequestLogging: h.cfg.EnableRequestLogging,
		Tags:                 h.cfg.Tags,
		RateLimit: rateLimitResponse{
			RPS:   h.cfg.RateLimit.RPS,
			Burst: h.cfg.RateLimit.Burst,
		},
		Timeouts: timeoutsResponse{
			ShutdownGracePeriod: h.cfg.Timeouts.ShutdownGracePeriod.String(),
			ReadHeaderTimeout:   h.cfg.Timeouts.ReadHeaderTimeout.String(),
			WriteTimeout:        h.cfg.Timeouts.WriteTimeout.String(),
			IdleTimeout:         h.cfg.Timeouts.IdleTimeout.String(),
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetLabels(w http.ResponseWriter, r *http.Request) {
	_ = r
	labels, err := h.store.Labels()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := labelsResponse{
		Labels:    labels,
		Keys:      storage.SortedKeys(labels),
		UpdatedAt: h.currentLabelsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutLabels(w http.ResponseWriter, r *http.Request) {
	var req labelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Labels) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid labels", "labels must contain at least one entry")
		return
	}

	if err := h.store.SetLabels(req.Labels); err != nil {
		if errors.Is(err, storage.ErrInvalidLabels) {
			writeError(w, http.StatusBadRequest, "Invalid labels", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markLabelsUpdated()

	labels, err := h.store.Labels()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := labelsResponse{
		Labels:    labels,
		Keys:      storage.SortedKeys(labels),
		UpdatedAt: h.currentLabelsUpdatedAt(),
		Message:   "Labels updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetLabel(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "label key is required")
		return
	}

	value, err := h.store.Label(key)
	if err != nil {
		if errors.Is(err, storage.ErrLabelNotFound) {
			writeError(w, http.StatusNotFound, "Label not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, labelResponse{Key: key, Value: value})
}

func (h *Handler) currentLabelsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.labelsUpdatedAt
}

func (h *Handler) markLabelsUpdated() {
	h.mu.Lock()
	h.labelsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type labelsRequest struct {
	Labels map[string]string `json:"labels"`
}

type labelsResponse struct {
	Labels    map[string]string `json:"labels"`
	Keys      []string          `json:"keys"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Message   string            `json:"message,omitempty"`
}

type labelResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configResponse struct {
	Port                 string            `json:"port"`
	Environment          string            `json:"environment"`
	EnableRequestLogging bool              `json:"enableRequestLogging"`
	Tags                 []string          `json:"tags"`
	RateLimit            rateLimitResponse `json:"rateLimit"`
	Timeouts             timeoutsResponse  `json:"timeouts"`
}

type rateLimitResponse struct {
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`
}

type timeoutsResponse struct {
	ShutdownGracePeriod string `json:"shutdownGracePeriod"`
	ReadHeaderTimeout   string `json:"readHeaderTimeout"`
	WriteTimeout        string `json:"writeTimeout"`
	IdleTimeout         string `json:"idleTimeout"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
