package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
)

type BrokerStatus interface {
	State() broker.State
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports broker connectivity and, on the worker, database
// reachability.
type HealthHandler struct {
	Broker BrokerStatus
	DB     Pinger
}

func NewHealthHandler(b BrokerStatus, db Pinger) *HealthHandler {
	return &HealthHandler{Broker: b, DB: db}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	healthy := true
	body := gin.H{}

	state := h.Broker.State()
	body["broker"] = state.String()
	if state != broker.StateConnected {
		healthy = false
	}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			healthy = false
			body["database"] = err.Error()
		} else {
			body["database"] = "ok"
		}
	}

	if !healthy {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ok"
	c.JSON(http.StatusOK, body)
}
