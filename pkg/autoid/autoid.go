package autoid

import (
	"github.com/google/uuid"
)

// Allocator hands out identifiers for newly registered perpetual tasks.
type Allocator interface {
	// AllocID returns an identifier that has not been returned before.
	AllocID() string
}

// TaskIDAllocator allocates random version 4 UUIDs. It is safe for
// concurrent use and keeps no state, so ids stay unique across restarts.
type TaskIDAllocator struct{}

// NewTaskIDAllocator returns the allocator used by the task registry.
func NewTaskIDAllocator() Allocator {
	return TaskIDAllocator{}
}

// AllocID implements Allocator.
func (TaskIDAllocator) AllocID() string {
	return uuid.NewString()
}
