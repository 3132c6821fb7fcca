package rest

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"oral-scan/internal/container"
)

// Options настройки HTTP-роутера.
type Options struct {
	Services       *container.Container
	AllowedOrigins []string
	Environment    string
	StorageDriver  string
	StoragePath    string
	MaxUploadBytes int64
	Debug          bool
}

// NewRouter собирает gin engine с recovery, логированием запросов, CORS и маршрутами сервиса.
func NewRouter(opts Options) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(recovered))
	engine.Use(loggingMiddleware())
	corsCfg := cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	engine.Use(cors.New(corsCfg))

	h := &Handler{
		detections:     opts.Services.DetectionService,
		history:        opts.Services.HistoryService,
		environment:    opts.Environment,
		storageDriver:  opts.StorageDriver,
		storagePath:    opts.StoragePath,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	h.Register(engine)

	return engine
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last().Err)
		}
		if c.Writer.Status() >= 500 {
			entry.Error("HTTP request failed")
			return
		}
		entry.Info("HTTP request")
	}
}
