package realtime

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const KeepAliveInterval = 25 * time.Second

// Stream writes each event of sub as one SSE data frame until the client goes
// away or the subscription ends. A comment line is sent every keepAlive to
// keep proxies from closing an idle connection.
func Stream(c *gin.Context, sub Subscription, keepAlive time.Duration) {
	if keepAlive <= 0 {
		keepAlive = KeepAliveInterval
	}
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := sonic.Marshal(ev)
			if err != nil {
				log.WithError(err).Error("❌ unable to encode task event")
				continue
			}
			if _, err := c.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
