package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Checker probes the service's dependencies for liveness and readiness
// endpoints.
type Checker struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewChecker(db *gorm.DB, rdb *redis.Client) *Checker {
	return &Checker{db: db, redis: rdb}
}

type status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live reports process liveness. It never touches dependencies.
func (c *Checker) Live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, status{Status: "ok"})
}

// Ready reports whether the database and Redis answer within a short
// deadline. Redis is optional and reported but never fails readiness.
func (c *Checker) Ready(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	sqlDB, err := c.db.DB()
	if err != nil || sqlDB.PingContext(checkCtx) != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	if c.redis != nil {
		if err := c.redis.Ping(checkCtx).Err(); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	}

	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, status{Status: "degraded", Checks: checks})
		return
	}
	ctx.JSON(http.StatusOK, status{Status: "ok", Checks: checks})
}
