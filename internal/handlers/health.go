package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler reports database and broker reachability.
type HealthHandler struct {
	database  Pinger
	broker    Pinger
	dbURL     string
	brokerURL string
	log       *slog.Logger
}

// NewHealthHandler creates a HealthHandler. The URLs are reported with
// credentials masked.
func NewHealthHandler(database Pinger, dbURL string, broker Pinger, brokerURL string, log *slog.Logger) *HealthHandler {
	return &HealthHandler{
		database:  database,
		broker:    broker,
		dbURL:     dbURL,
		brokerURL: brokerURL,
		log:       log,
	}
}

type componentHealth struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

type healthResponse struct {
	Status   string          `json:"status"`
	Database componentHealth `json:"database"`
	Broker   componentHealth `json:"broker"`
}

// Health pings both dependencies; 200 when both answer, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:   "healthy",
		Database: h.check(ctx, "database", h.database, h.dbURL),
		Broker:   h.check(ctx, "broker", h.broker, h.brokerURL),
	}

	status := http.StatusOK
	if resp.Database.Status != "healthy" || resp.Broker.Status != "healthy" {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) check(ctx context.Context, name string, p Pinger, url string) componentHealth {
	out := componentHealth{Status: "healthy", URL: utils.MaskURL(url)}
	if err := p.Ping(ctx); err != nil {
		h.log.WarnContext(ctx, "health check failed", "component", name, "error", err)
		out.Status = "unhealthy"
	}
	return out
}

// Root is the welcome endpoint.
func Root(appName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to " + appName,
			"health":  "/health",
		})
	}
}
