package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext stamps every call with a request id and a trace id. The
// active span wins over a client supplied trace header.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, rd := ctxutil.Ensure(c.Request.Context())
		rd.RequestID = firstNonEmpty(c.GetHeader(headerRequestID), uuid.NewString())

		var spanTrace string
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			spanTrace = sc.TraceID().String()
		}
		rd.TraceID = firstNonEmpty(spanTrace, c.GetHeader(headerTraceID), rd.RequestID)

		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, rd.RequestID)
		c.Header(headerTraceID, rd.TraceID)
		c.Next()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
