package buffer

import (
	"fmt"
	"sync"

	"github.com/nodalite/bufferpool/internal/common"
)

// lruKNode tracks one frame's access history, capped at the last k
// accesses, ordered oldest-first.
type lruKNode struct {
	history     []int64
	isEvictable bool
}

// LRUKReplacer selects an eviction victim by backward k-distance: the gap
// between now and the kth-most-recent access. A frame seen fewer than k
// times has infinite backward k-distance and is always preferred for
// eviction over one with a finite distance. Ties, including ties at
// infinity, are broken by evicting whichever frame's oldest retained
// access is furthest in the past, i.e. classic LRU among the tied frames.
//
// Timestamps are a logical counter, not wall-clock time, so behavior is
// independent of how fast the test or caller runs.
type LRUKReplacer struct {
	mu sync.Mutex

	k        int
	capacity int
	nodes    map[common.FrameID]*lruKNode
	evicting int // count of currently evictable frames
	clock    int64
}

// NewLRUKReplacer builds a replacer that can track up to capacity distinct
// frames, using k historical accesses to compute backward k-distance.
func NewLRUKReplacer(capacity, k int) *LRUKReplacer {
	if capacity <= 0 {
		panic("buffer: replacer capacity must be positive")
	}
	if k <= 0 {
		panic("buffer: replacer k must be positive")
	}
	return &LRUKReplacer{
		k:        k,
		capacity: capacity,
		nodes:    make(map[common.FrameID]*lruKNode, capacity),
	}
}

func (r *LRUKReplacer) tick() int64 {
	r.clock++
	return r.clock
}

// RecordAccess logs an access to id at the current logical timestamp,
// beginning to track id if this is its first appearance.
func (r *LRUKReplacer) RecordAccess(id common.FrameID, accessType common.AccessType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.tick()

	if node, ok := r.nodes[id]; ok {
		node.history = append(node.history, ts)
		if len(node.history) > r.k {
			node.history = node.history[len(node.history)-r.k:]
		}
		return nil
	}

	if len(r.nodes) >= r.capacity {
		return fmt.Errorf("frame %d: %w", id, common.ErrReplacerFull)
	}
	r.nodes[id] = &lruKNode{history: []int64{ts}}
	return nil
}

// SetEvictable marks id as (non-)evictable. id must already be tracked.
func (r *LRUKReplacer) SetEvictable(id common.FrameID, evictable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return fmt.Errorf("frame %d: %w", id, common.ErrFrameNotTracked)
	}

	if node.isEvictable && !evictable {
		r.evicting--
	} else if !node.isEvictable && evictable {
		r.evicting++
	}
	node.isEvictable = evictable
	return nil
}

// Evict removes and returns the frame with the largest backward
// k-distance among evictable frames, breaking ties toward the frame
// whose oldest retained access is furthest in the past.
func (r *LRUKReplacer) Evict() (common.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.tick()

	var (
		victim    common.FrameID
		found     bool
		maxDist   int64 = -1
		maxAge    int64 = -1
		infinite        = false
	)

	for id, node := range r.nodes {
		if !node.isEvictable {
			continue
		}

		age := now - node.history[0]
		var dist int64
		isInf := len(node.history) < r.k
		if isInf {
			dist = -1 // placeholder; infinite distances compared via isInf flag
		} else {
			dist = now - node.history[len(node.history)-r.k]
		}

		better := false
		switch {
		case !found:
			better = true
		case isInf && !infinite:
			better = true
		case isInf == infinite && isInf:
			better = age > maxAge
		case isInf == infinite && !isInf:
			if dist != maxDist {
				better = dist > maxDist
			} else {
				better = age > maxAge
			}
		case !isInf && infinite:
			better = false
		}

		if better {
			victim, found = id, true
			infinite = isInf
			maxDist = dist
			maxAge = age
		}
	}

	if !found {
		return common.InvalidFrameID, false
	}

	delete(r.nodes, victim)
	r.evicting--
	return victim, true
}

// Remove stops tracking id, which must currently be evictable.
func (r *LRUKReplacer) Remove(id common.FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return nil
	}
	if !node.isEvictable {
		return fmt.Errorf("frame %d: %w", id, common.ErrFrameNotEvictable)
	}

	delete(r.nodes, id)
	r.evicting--
	return nil
}

// Size reports the number of frames currently eligible for eviction.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicting
}

var _ Replacer = (*LRUKReplacer)(nil)
