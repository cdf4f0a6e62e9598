package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/kodbank-be/internal/http/respond"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns uptime and the state of each dependency.
type HealthHandler struct {
	startedAt  time.Time
	components map[string]Pinger
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, components map[string]Pinger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, components: components}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.MethodNotAllowed(w, http.MethodGet)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.components))
	for name, p := range h.components {
		if err := p.Ping(ctx); err != nil {
			components[name] = "unavailable"
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, map[string]any{
		"status":     status,
		"uptime":     time.Since(h.startedAt).Truncate(time.Second).String(),
		"components": components,
	})
}
