package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps map[string]Pinger
}

func RegisterHealthRoutes(r *router.Router, h *HealthHandler) {
	r.GET("/health", h.GetHealth)
}

// NewHealthHandler checks each named dependency on every request.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	c, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	healthy := true
	for name, p := range h.deps {
		if err := p.Ping(c); err != nil {
			logger.Warn("health check failed", "dependency", name, "error", err)
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	if !healthy {
		writeJSON(ctx, xhttp.StatusServiceUnavailable, envelope{Status: "error", Message: "unhealthy", Data: checks})
		return
	}
	writeOK(ctx, xhttp.StatusOK, "", checks)
}
