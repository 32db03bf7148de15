package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	tracecontext "ecommerce-reco/pkg/context"
	"ecommerce-reco/pkg/logger"
)

// OTelMiddleware OpenTelemetry中间件配置
type OTelMiddleware struct {
	serviceName string
	logger      logger.Logger
}

// NewOTelMiddleware 创建OpenTelemetry中间件
func NewOTelMiddleware(serviceName string, logger logger.Logger) *OTelMiddleware {
	return &OTelMiddleware{
		serviceName: serviceName,
		logger:      logger,
	}
}

// GinMiddleware 返回Gin的OpenTelemetry中间件
func (m *OTelMiddleware) GinMiddleware() gin.HandlerFunc {
	// 使用官方的otelgin中间件作为基础
	baseMiddleware := otelgin.Middleware(m.serviceName)

	return gin.HandlerFunc(func(c *gin.Context) {
		// 先执行基础的OpenTelemetry中间件
		baseMiddleware(c)

		// 为每个请求分配请求ID并写入span
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = tracecontext.NewRequestID()
		}

		ctx := tracecontext.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.String("request.id", requestID),
				attribute.String("service.name", m.serviceName),
			)
		}

		c.Next()
	})
}
