package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

const (
	responseMetaKey = "response_meta"
	staleKey        = "stale"
	staleReasonKey  = "stale_reason"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetStale records whether the response carries data kept after a failed refresh.
func SetStale(c *gin.Context, err error) {
	meta := ensureMeta(c)
	meta[staleKey] = err != nil
	if err != nil {
		meta[staleReasonKey] = appErrors.KindOf(err)
	}
}

// SetMeta stores one metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
