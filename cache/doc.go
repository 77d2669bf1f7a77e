// Package cache provides high-performance caching with concurrent access.
// This package implements:
// - Thread-safe set guarded by a sync.Mutex
// - Eviction of the oldest-recorded key once at capacity
// - TTL-based expiration
package cache
