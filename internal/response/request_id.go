package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key under which the request ID is
// stored for the envelope metadata.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags every facade request with an ID. The UI may pass
// its own X-Request-ID to correlate its logs with the agent's; otherwise one
// is generated. The ID is echoed back in the response header and in the
// envelope's metadata block.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}
