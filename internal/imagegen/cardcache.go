package imagegen

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type cachedCard struct {
	data      []byte
	expiresAt time.Time
}

// CardCache holds rendered share cards for a short period, keyed by whatever
// identifies the reading they show.
type CardCache struct {
	mu    sync.RWMutex
	cards map[string]cachedCard
	ttl   time.Duration
	clock clockwork.Clock
}

// NewCardCache creates a card cache with the specified TTL.
func NewCardCache(ttl time.Duration, clock clockwork.Clock) *CardCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CardCache{
		cards: make(map[string]cachedCard),
		ttl:   ttl,
		clock: clock,
	}
}

// Get returns the cached card if still valid.
func (c *CardCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	card, ok := c.cards[key]
	if !ok || c.clock.Now().After(card.expiresAt) {
		return nil, false
	}
	return card.data, true
}

// Set stores a card and drops any that have expired.
func (c *CardCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, card := range c.cards {
		if now.After(card.expiresAt) {
			delete(c.cards, k)
		}
	}
	c.cards[key] = cachedCard{data: data, expiresAt: now.Add(c.ttl)}
}

// Len returns the number of cards held, expired or not.
func (c *CardCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}
