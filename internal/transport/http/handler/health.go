package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studymate/internal/bootstrap"
	"studymate/internal/platform/database"
	"studymate/internal/platform/rabbitmq"
	redisClient "studymate/internal/platform/redis"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := statusOf(database.Ping(ctx, h.app.DB, 2*time.Second))
	redisStatus := dependencyStatus{OK: true, Message: "disabled"}
	if h.app.Redis != nil {
		redisStatus = statusOf(redisClient.Ping(ctx, h.app.Redis))
	}
	rmqStatus := dependencyStatus{OK: true, Message: "disabled"}
	if h.app.MQConn != nil {
		rmqStatus = statusOf(rabbitmq.Ping(h.app.MQConn))
	}

	statusCode := http.StatusOK
	if !dbStatus.OK || !redisStatus.OK || !rmqStatus.OK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"rabbitmq": rmqStatus,
		},
	})
}

func statusOf(err error) dependencyStatus {
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
