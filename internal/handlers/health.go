package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"catalog-service/internal/events"
	"catalog-service/internal/store"
)

// HealthCheck returns the health status of the service
// @Summary Health check
// @Description Returns the health status of the catalog service
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "catalog-service",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthHandler reports readiness including the optional backends.
type HealthHandler struct {
	products    store.ProductStore
	redisClient *redis.Client
	publisher   *events.Publisher
}

func NewHealthHandler(products store.ProductStore, redisClient *redis.Client, publisher *events.Publisher) *HealthHandler {
	return &HealthHandler{
		products:    products,
		redisClient: redisClient,
		publisher:   publisher,
	}
}

// ReadyCheck returns detailed readiness status. Redis and NATS are
// optional backends, so their failures degrade the status instead of
// failing the check.
// GET /ready
func (h *HealthHandler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "ready",
		"service": "catalog-service",
		"checks":  gin.H{},
	}

	checks := health["checks"].(gin.H)

	if count, err := h.products.Count(ctx); err != nil {
		checks["store"] = gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	} else {
		checks["store"] = gin.H{
			"status":   "healthy",
			"products": count,
		}
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			checks["redis"] = gin.H{
				"status": "healthy",
			}
		}
	} else {
		checks["redis"] = gin.H{
			"status": "disabled",
		}
	}

	if h.publisher.Connected() {
		checks["nats"] = gin.H{
			"status": "healthy",
		}
	} else {
		checks["nats"] = gin.H{
			"status": "disabled",
		}
	}

	// Optional backends degrade the status rather than failing readiness
	for _, check := range checks {
		if checkMap, ok := check.(gin.H); ok {
			if status, ok := checkMap["status"]; ok && status == "unhealthy" {
				health["status"] = "degraded"
				break
			}
		}
	}

	c.JSON(http.StatusOK, health)
}
