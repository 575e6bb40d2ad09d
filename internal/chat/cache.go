package chat

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// cachedReply represents a cached assistant reply
type cachedReply struct {
	Reply     string
	Timestamp time.Time
}

// replyKey hashes the conversation id plus the transcript so the same
// question in a different conversation never shares a cache slot.
func replyKey(conversationID string, entries []Entry) string {
	h := sha256.New()
	h.Write([]byte(conversationID))
	for _, e := range entries {
		h.Write([]byte(e.Role))
		h.Write([]byte(e.Content))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// checkCache checks if a reply is cached
func (c *Controller) checkCache(key string) (string, bool) {
	if val, ok := c.replies.Load(key); ok {
		cached := val.(cachedReply)
		c.logger.Info("reply cache hit", "key", key[:16])
		return cached.Reply, true
	}
	return "", false
}

// storeCache stores a reply in cache
func (c *Controller) storeCache(key, reply string) {
	c.replies.Store(key, cachedReply{
		Reply:     reply,
		Timestamp: time.Now(),
	})
	c.logger.Info("cached reply", "key", key[:16])
}
