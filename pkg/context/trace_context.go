package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// 上下文键类型
type contextKey string

const (
	// 业务相关的上下文键
	TraceIDKey   contextKey = "trace_id"
	UserIDKey    contextKey = "user_id"
	ProductIDKey contextKey = "product_id"
	RequestIDKey contextKey = "request_id"

	// 服务相关的上下文键
	ServiceNameKey contextKey = "service_name"
	ClientIPKey    contextKey = "client_ip"
)

// NewRequestID 生成请求ID
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID 注入请求ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFrom 提取请求ID
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID 注入用户ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFrom 提取用户ID
func UserIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// WithProductID 注入商品ID
func WithProductID(ctx context.Context, productID string) context.Context {
	return context.WithValue(ctx, ProductIDKey, productID)
}

// ProductIDFrom 提取商品ID
func ProductIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ProductIDKey).(string); ok {
		return v
	}
	return ""
}

// AnnotateSpan 将业务上下文写入当前span
func AnnotateSpan(ctx context.Context) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if requestID := RequestIDFrom(ctx); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	if userID := UserIDFrom(ctx); userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}
	if productID := ProductIDFrom(ctx); productID != "" {
		span.SetAttributes(attribute.String("product.id", productID))
	}
}
