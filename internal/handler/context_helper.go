package handler

import (
	"github.com/gin-gonic/gin"
)

// actorHeader identifies the person acting on a proposal. This is a
// single-user app; the header exists so sync agents and scripts can attribute
// their changes distinctly in the change log.
const actorHeader = "X-Actor-ID"

const defaultActor = "local"

func actorFromContext(c *gin.Context) string {
	if actor := c.GetHeader(actorHeader); actor != "" {
		return actor
	}
	return defaultActor
}
