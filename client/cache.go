// Package client provides a thin façade over decoded relay frames: a
// pointer-keyed entity cache (buffers, nicklist entries) and a dispatch
// interface for server-initiated events, supplementing the relay command
// surface itself (packages command/transport/message) with the
// stateful convenience layer the original pyweechat client offered.
//
// Cache is NOT goroutine-safe, mirroring the teacher's own cache.Cache
// contract; callers that need concurrent access must serialize through a
// single dispatch goroutine.
package client

import (
	"github.com/weechat-go/relay/message"
	"github.com/weechat-go/relay/metrics"
)

// Cache holds the most recently seen message for each entity, keyed by a
// caller-supplied string (by convention the entity's own pointer token,
// the last element of Row.Path). It swaps a current/previous generation
// on EndCycle, mirroring package cache's cookie-keyed map swap but keyed
// by pointer token instead of a TCP cookie.
type Cache struct {
	current  map[string]*message.DecodedMessage
	previous map[string]*message.DecodedMessage
	cycles   int64
}

// NewCache returns an empty Cache with a starting capacity suitable for a
// modest number of tracked buffers; the map grows as needed.
func NewCache() *Cache {
	return &Cache{
		current:  make(map[string]*message.DecodedMessage, 64),
		previous: make(map[string]*message.DecodedMessage),
	}
}

// Update records msg under key, returning the message recorded for that
// key in the previous cycle (nil if key was not recorded last cycle, or
// was already updated earlier in this cycle).
func (c *Cache) Update(key string, msg *message.DecodedMessage) *message.DecodedMessage {
	c.current[key] = msg
	evicted, ok := c.previous[key]
	if ok {
		delete(c.previous, key)
	}
	return evicted
}

// EndCycle marks the completion of one batch of updates. It returns every
// entity that was present last cycle but was not updated this cycle
// (candidates for eviction, e.g. closed buffers), and rolls current into
// previous for the next cycle.
func (c *Cache) EndCycle() map[string]*message.DecodedMessage {
	metrics.CacheSizeHistogram.Observe(float64(len(c.current)))
	stale := c.previous
	c.previous = c.current
	c.current = make(map[string]*message.DecodedMessage, len(c.previous)+len(c.previous)/10+1)
	c.cycles++
	return stale
}

// CycleCount returns the number of times EndCycle has been called.
func (c *Cache) CycleCount() int64 {
	return c.cycles
}
