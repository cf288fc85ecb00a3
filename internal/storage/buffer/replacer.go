package buffer

import "github.com/nodalite/bufferpool/internal/common"

// Replacer tracks which buffer pool frames are eligible for eviction and
// picks a victim when the pool needs to reclaim a frame. Implementations
// are responsible for their own locking.
type Replacer interface {
	// RecordAccess logs that frame id was accessed at the current
	// timestamp. It starts tracking the frame if this is its first access.
	RecordAccess(id common.FrameID, accessType common.AccessType) error

	// SetEvictable marks frame id as (non-)evictable, adjusting Size
	// accordingly. A pinned frame's content must never be chosen by Evict.
	SetEvictable(id common.FrameID, evictable bool) error

	// Evict picks the frame with the largest backward k-distance among
	// evictable frames and stops tracking it. It reports false if no
	// frame is currently evictable.
	Evict() (common.FrameID, bool)

	// Remove stops tracking frame id. The frame must currently be marked
	// evictable; removing a pinned frame is an error.
	Remove(id common.FrameID) error

	// Size reports the number of currently evictable frames.
	Size() int
}
