package sync

import (
	"sync"
)

const shardCount = 32

// ShardedMap is a concurrency-safe map that spreads keys over 32 independently
// locked shards, so readers and writers of different keys rarely contend.
// Iteration is per shard and never observes a torn shard, but it is not a
// point-in-time snapshot of the whole map.
type ShardedMap[K ~string, V any] struct {
	shards [shardCount]shard[K, V]
}

type shard[K ~string, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// NewShardedMap creates an empty ShardedMap.
func NewShardedMap[K ~string, V any]() *ShardedMap[K, V] {
	m := &ShardedMap[K, V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[K]V)
	}
	return m
}

// Load returns the value stored for key.
func (m *ShardedMap[K, V]) Load(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Store sets the value for key.
func (m *ShardedMap[K, V]) Store(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Update applies fn to the current value under the shard's write lock.
// fn receives ok=false when the key is absent; returning keep=false deletes the key.
func (m *ShardedMap[K, V]) Update(key K, fn func(current V, ok bool) (next V, keep bool)) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[key]
	next, keep := fn(current, ok)
	if !keep {
		delete(s.items, key)
		return
	}
	s.items[key] = next
}

// Delete removes key and reports whether it was present.
func (m *ShardedMap[K, V]) Delete(key K) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// DeleteIf removes every entry for which pred returns true and returns the count.
func (m *ShardedMap[K, V]) DeleteIf(pred func(key K, value V) bool) int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if pred(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Range calls fn for each entry while holding that shard's read lock.
// Returning false stops the iteration. fn must not call back into the map.
func (m *ShardedMap[K, V]) Range(fn func(key K, value V) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Len returns the approximate number of entries.
func (m *ShardedMap[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

func (m *ShardedMap[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[shardIndex(string(key))]
}

// shardIndex returns the shard for key. Empty keys default to shard 0.
func shardIndex(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % shardCount)
}

// hashString provides a simple hash for shard selection.
// Uses djb2-style hashing for good distribution.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
