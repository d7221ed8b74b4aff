package ws

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhouse/internal/events"
)

// subscriptionManager guarantees exactly one Redis subscription per observer
// group channel, no matter how many websocket clients join the same group.
type subscriptionManager struct {
	rdb  *redis.Client
	hub  *Hub
	mu   sync.Mutex
	subs map[string]*subEntry // group key -> subscription data
}

type subEntry struct {
	refCnt int
	cancel context.CancelFunc
}

func newSubscriptionManager(rdb *redis.Client, hub *Hub) *subscriptionManager {
	return &subscriptionManager{
		rdb:  rdb,
		hub:  hub,
		subs: make(map[string]*subEntry),
	}
}

// Subscribe ensures the process is subscribed to the group's channel;
// subsequent calls for the same group only increment the ref-counter.
func (sm *subscriptionManager) Subscribe(group string) {
	sm.mu.Lock()
	if e, ok := sm.subs[group]; ok {
		e.refCnt++
		sm.mu.Unlock()
		return
	}

	// First consumer: create the Redis SUB and fan-out loop.
	ctx, cancel := context.WithCancel(context.Background())
	ps := sm.rdb.Subscribe(ctx, events.ChannelPrefix+group)

	sm.subs[group] = &subEntry{refCnt: 1, cancel: cancel}
	sm.mu.Unlock()

	go func() {
		defer ps.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ps.Channel():
				if !ok { // Redis connection closed
					return
				}
				g := strings.TrimPrefix(m.Channel, events.ChannelPrefix)
				sm.hub.Broadcast(g, []byte(m.Payload))
			}
		}
	}()
	zap.L().Debug("ws_group_subscribed", zap.String("group", group))
}

// Unsubscribe decrements the ref-counter and tears the Redis SUB down when
// the last websocket client leaves the group.
func (sm *subscriptionManager) Unsubscribe(group string) {
	sm.mu.Lock()
	e, ok := sm.subs[group]
	if !ok {
		sm.mu.Unlock()
		return
	}
	e.refCnt--
	if e.refCnt > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.subs, group)
	sm.mu.Unlock()

	// Outside the lock: stop the fan-out goroutine.
	e.cancel()
}
