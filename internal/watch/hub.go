// Package watch provides the real-time subscription primitive the live
// dashboards are built on: callers subscribe to a topic and get poked
// whenever something on that topic changes, then re-query the current
// snapshot themselves. Delivery is latest-wins; intermediate states may
// be skipped but the final state is always observed.
package watch

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Topic names. Writers notify these, watchers subscribe to them.
func TopicSessions(instituteID string) string { return "sessions:" + instituteID }
func TopicAttendance(sessionID string) string { return "attendance:" + sessionID }
func TopicApplications() string               { return "applications" }

const channelPrefix = "acadex:watch:"

// Hub fans out change notifications to local subscribers. When built with a
// redis client it also bridges notifications across API instances via
// pub/sub; with a nil client it is purely in-process (dev/tests).
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]chan struct{}
	nextID uint64
	rdb    *redis.Client
}

// NewHub creates a hub. rdb may be nil for local-only operation.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{subs: make(map[string]map[uint64]chan struct{}), rdb: rdb}
}

// Subscribe registers interest in a topic. The returned channel has a buffer
// of one and coalesces bursts; the cancel func must be called when the
// consumer goes away and is safe to call more than once.
func (h *Hub) Subscribe(topic string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan struct{}, 1)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]chan struct{})
	}
	h.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[topic], id)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
		})
	}
	return ch, cancel
}

// Notify wakes all subscribers of a topic. With redis configured the
// notification is also published so other instances observe the change;
// the local fan-out happens regardless, so a redis outage degrades to
// single-instance visibility instead of none.
func (h *Hub) Notify(ctx context.Context, topic string) {
	h.notifyLocal(topic)
	if h.rdb != nil {
		if err := h.rdb.Publish(ctx, channelPrefix+topic, "1").Err(); err != nil {
			log.Printf("watch: publish %s failed: %v", topic, err)
		}
	}
}

func (h *Hub) notifyLocal(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default: // already has a pending wake-up
		}
	}
}

// Run bridges redis pub/sub into local fan-out. Blocks until ctx is done.
// Safe to skip when the hub has no redis client.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}
	sub := h.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.notifyLocal(strings.TrimPrefix(msg.Channel, channelPrefix))
		}
	}
}
