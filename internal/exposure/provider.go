// Package exposure supplies recent per-cluster exposure counts for a user.
// Exposure tracking itself is owned by upstream collaborators; the ranking
// core only consumes the resulting counts, so providers here exist for the
// service boundary and for tests.
package exposure

import (
	"context"
	"sync"
)

// Provider returns the recent per-cluster exposure counts for a user.
// Implementations must never return negative counts.
type Provider interface {
	RecentClusterExposures(ctx context.Context, userID string) (map[string]int, error)
}

// MemoryProvider is an in-process Provider, used in tests and as the
// default when no Redis endpoint is configured. Thread-safe via RWMutex.
type MemoryProvider struct {
	mu        sync.RWMutex
	exposures map[string]map[string]int // userID -> clusterID -> count
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{exposures: make(map[string]map[string]int)}
}

// Record increments the exposure count for a user/cluster pair.
func (p *MemoryProvider) Record(userID, clusterID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exposures[userID] == nil {
		p.exposures[userID] = make(map[string]int)
	}
	p.exposures[userID][clusterID]++
}

// Set replaces the exposure count for a user/cluster pair. Negative
// counts floor to zero.
func (p *MemoryProvider) Set(userID, clusterID string, count int) {
	if count < 0 {
		count = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exposures[userID] == nil {
		p.exposures[userID] = make(map[string]int)
	}
	p.exposures[userID][clusterID] = count
}

// RecentClusterExposures returns a copy of the user's exposure counts.
func (p *MemoryProvider) RecentClusterExposures(_ context.Context, userID string) (map[string]int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]int, len(p.exposures[userID]))
	for cluster, count := range p.exposures[userID] {
		out[cluster] = count
	}
	return out, nil
}
