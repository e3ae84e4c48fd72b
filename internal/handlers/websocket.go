package handlers

import (
	"github.com/gin-gonic/gin"
)

// MarketFeed handles GET /ws/market. Subscribers get a snapshot of every
// company and currency, then price and dividend events as they happen.
func (h *Handler) MarketFeed(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request)
}
