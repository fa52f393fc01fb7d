// Package cache provides caching implementations for decision results.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akreda/gate"
)

// Compile-time interface check.
var _ gate.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	result    *gate.Result
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached decision result.
func (m *Memory) Get(_ context.Context, tenantID string, req *gate.Request) (*gate.Result, bool) {
	key := cacheKey(tenantID, req)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.result, true
}

// Set stores a decision result in the cache.
func (m *Memory) Set(_ context.Context, tenantID string, req *gate.Request, result *gate.Result) {
	key := cacheKey(tenantID, req)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict oldest entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    result,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateTenant removes all cached results for a tenant.
func (m *Memory) InvalidateTenant(_ context.Context, tenantID string) {
	prefix := tenantID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

// InvalidateActor removes all cached results for a specific actor.
func (m *Memory) InvalidateActor(_ context.Context, tenantID string, actorID string) {
	actKey := fmt.Sprintf("%s:%s:", tenantID, actorID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) >= len(actKey) && k[:len(actKey)] == actKey {
			delete(m.entries, k)
		}
	}
}

// cacheKey includes the resource's lifecycle status so that a status
// transition never serves a stale decision.
func cacheKey(tenantID string, req *gate.Request) string {
	resourceID, status := "", ""
	if req.Resource != nil {
		resourceID = req.Resource.ID.String()
		status = string(req.Resource.Status)
	}
	grant := ""
	if req.Grant != nil {
		grant = string(req.Grant.Role)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%s",
		tenantID,
		req.Actor.ID,
		req.Actor.Role,
		req.Action,
		req.Kind,
		resourceID,
		status,
		grant,
	)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
