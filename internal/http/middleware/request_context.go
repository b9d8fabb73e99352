package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
)

// Identity headers set by the trusted gateway in front of the API.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
)

// AttachRequestContext records the gateway identity used for created_by,
// submitted_by and deleted_by stamps.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, rd := ctxutil.Ensure(c.Request.Context())
		rd.UserID = firstNonEmpty(c.GetHeader(HeaderUserID))
		rd.DisplayName = firstNonEmpty(c.GetHeader(HeaderUserName))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
