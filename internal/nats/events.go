package nats

import "time"

// StreamEvents holds memory change events.
const StreamEvents = "RECALL_EVENTS"

// SubjectMemoryEvent carries one MemoryEvent per ADD, UPDATE or DELETE.
const SubjectMemoryEvent = "recall.events.memory"

// MemoryEvent is published after the engine changes a memory.
type MemoryEvent struct {
	MemoryID  string    `json:"memory_id"`
	UserID    string    `json:"user_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Event     string    `json:"event"`
	OldMemory *string   `json:"old_memory"`
	NewMemory *string   `json:"new_memory"`
	Timestamp time.Time `json:"timestamp"`
}
