package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hioscollector/hioscollector/api/handler"
	"github.com/hioscollector/hioscollector/internal/service"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

// SetupRouter builds the gin engine with all API routes.
func SetupRouter(mode string, collectorService *service.CollectorService, backupService *service.BackupService) *gin.Engine {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	deviceHandler := handler.NewDeviceHandler()
	getterHandler := handler.NewGetterHandler(collectorService)
	backupHandler := handler.NewBackupHandler(backupService)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "HiOS Collector",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		devices := v1.Group("/devices")
		{
			devices.POST("", deviceHandler.CreateDevice)
			devices.GET("", deviceHandler.ListDevices)
			devices.GET("/:id", deviceHandler.GetDevice)
			devices.PUT("/:id", deviceHandler.UpdateDevice)
			devices.DELETE("/:id", deviceHandler.DeleteDevice)

			devices.GET("/:id/facts", getterHandler.Facts)
			devices.GET("/:id/interfaces", getterHandler.Interfaces)
			devices.GET("/:id/interfaces-ip", getterHandler.InterfacesIP)
			devices.GET("/:id/arp", getterHandler.ARPTable)
			devices.GET("/:id/config", getterHandler.Config)
			devices.GET("/:id/alive", getterHandler.Alive)

			devices.POST("/:id/backup", backupHandler.BackupDevice)
			devices.GET("/:id/backups", backupHandler.ListBackups)
		}

		v1.POST("/collect/facts", getterHandler.CollectAllFacts)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "route not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}

// CORSMiddleware allows cross-origin API access.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware attaches a request ID to every request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if c.Writer.Status() >= 400 {
			entry.Error("http request failed")
		} else {
			entry.Info("http request")
		}
	}
}
