package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

// Health reports connectivity to Postgres and Redis. Returns 503 when either
// dependency is unreachable so load balancers can pull the instance.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		checks := gin.H{
			"db":    pingStatus(pingDB(ctx, db)),
			"redis": pingStatus(rdb.Ping(ctx).Err()),
		}

		status := http.StatusOK
		for _, v := range checks {
			if v != "connected" {
				status = http.StatusServiceUnavailable
				break
			}
		}
		checks["ok"] = status == http.StatusOK
		c.JSON(status, checks)
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func pingStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "connected"
}
