package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// Header carries the request id; an inbound value is trusted and echoed back
// so ids stay stable across proxies.
const Header = "X-Request-ID"

const ctxKey = "request_id"

// Middleware tags every request with an id, minting one when the caller did
// not send its own, and mirrors it on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = newID()
		}

		c.Set(ctxKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value reads the id tagged by Middleware, empty when absent.
func Value(c *gin.Context) string {
	v, ok := c.Get(ctxKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// newID returns 16 random bytes hex encoded. When the entropy source fails
// the id degrades to a timestamp so requests stay distinguishable in logs.
func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
