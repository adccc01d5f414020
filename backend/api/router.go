package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"drawlots/backend/metrics"
	"drawlots/backend/service"
	"drawlots/backend/storage"
)

const requestIDHeader = "X-Request-ID"

// Router 存储 API 路由（处理器共享门面、指标与日志）
type Router struct {
	service *service.Facade
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRouter builds the HTTP API. m and logger may be nil.
func NewRouter(svc *service.Facade, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{service: svc, metrics: m, logger: logger}
	engine := gin.New()
	engine.Use(gin.Recovery())
	r.register(engine)
	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestMiddleware tags each request with an ID, then logs and counts it.
func (r *Router) requestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		if r.metrics != nil {
			r.metrics.ObserveRequest(c.Request.Method, c.FullPath(), status)
		}
		r.logger.Debug("[API] request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)))
	}
}

func (r *Router) register(engine *gin.Engine) {
	engine.Use(r.requestMiddleware())
	engine.Use(corsMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	engine.POST("/storage/ensure", r.ensureDataDir)

	history := engine.Group("/history")
	{
		history.GET("", r.readHistory)
		history.PUT("", r.writeHistory)
	}

	engine.GET("/app/logs", r.getAppLogs)

	if r.metrics != nil {
		engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}
}

type writeHistoryRequest struct {
	Data json.RawMessage `json:"data"`
}

func (r *Router) ensureDataDir(c *gin.Context) {
	resp, err := r.service.EnsureLocation()
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) readHistory(c *gin.Context) {
	resp, err := r.service.ReadDocument()
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Router) writeHistory(c *gin.Context) {
	var req writeHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := r.service.WriteDocument(req.Data)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (r *Router) handleError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrInvalidDocument) {
		badRequest(c, err)
		return
	}

	r.logger.Error("[API] storage operation failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
