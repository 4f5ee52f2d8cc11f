package memory

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"oneask-be/pkg/qa"
)

// ScopeAll is the cache scope for questions asked against the whole corpus.
const ScopeAll = "ALL"

const (
	DefaultAnswerTTL      = 10 * time.Minute
	DefaultAnswerCapacity = 100
)

type answerEntry struct {
	key       string
	scope     string
	answer    *qa.Answer
	expiresAt time.Time
}

// AnswerCache is a TTL plus capacity-bounded LRU for finished answers.
// Values are deep-copied on both writes and reads so cached state can never
// be mutated by callers.
type AnswerCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
}

func NewAnswerCache(ttl time.Duration, capacity int) *AnswerCache {
	if ttl <= 0 {
		ttl = DefaultAnswerTTL
	}
	if capacity <= 0 {
		capacity = DefaultAnswerCapacity
	}
	return &AnswerCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// NormalizeScope maps an empty document scope onto the ALL sentinel.
func NormalizeScope(scope string) string {
	if trimmed := strings.TrimSpace(scope); trimmed != "" {
		return trimmed
	}
	return ScopeAll
}

func cacheKey(scope string, mode qa.Mode, question string) string {
	return NormalizeScope(scope) + "|" + string(mode) + "|" + strings.TrimSpace(question)
}

// Get returns a copy of a live cached answer, flagged as served from cache.
func (c *AnswerCache) Get(scope string, mode qa.Mode, question string) (*qa.Answer, bool) {
	key := cacheKey(scope, mode, question)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*answerEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	answer := entry.answer.Clone()
	answer.FromCache = true
	return answer, true
}

// Put stores a copy of answer, evicting the least recently used entry when
// the capacity is exceeded.
func (c *AnswerCache) Put(scope string, mode qa.Mode, question string, answer *qa.Answer) {
	if answer == nil {
		return
	}
	key := cacheKey(scope, mode, question)

	stored := answer.Clone()
	stored.FromCache = false

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*answerEntry)
		entry.answer = stored
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	entry := &answerEntry{
		key:       key,
		scope:     NormalizeScope(scope),
		answer:    stored,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.entries[key] = c.order.PushFront(entry)

	for c.order.Len() > c.capacity {
		c.removeLocked(c.order.Back())
	}
}

// InvalidateScope drops every entry cached under the given scope and
// returns how many were removed.
func (c *AnswerCache) InvalidateScope(scope string) int {
	target := NormalizeScope(scope)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*answerEntry).scope == target {
			c.removeLocked(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// InvalidateAll empties the cache and returns the number of dropped entries.
func (c *AnswerCache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.order.Len()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return removed
}

func (c *AnswerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *AnswerCache) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*answerEntry)
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}
