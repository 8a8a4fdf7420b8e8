package memory

// Record is a stored memory as reported by the Store.
type Record struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	Hash      string         `json:"hash,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	AgentID   string         `json:"agent_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Score     float64        `json:"score,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// Relation is a graph edge between two entities owned by a user.
type Relation struct {
	Source       string `json:"source"`
	Relationship string `json:"relationship"`
	Destination  string `json:"destination"`
}

// ListResult is the response of Store.GetAll and Store.Search.
type ListResult struct {
	Results   []Record   `json:"results"`
	Relations []Relation `json:"relations,omitempty"`
}

// Event types recorded in results and history.
const (
	EventAdd    = "ADD"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event describes one change applied by Store.Add.
type Event struct {
	ID     string `json:"id"`
	Memory string `json:"memory"`
	Event  string `json:"event"`
}

// AddResult is the response of Store.Add.
type AddResult struct {
	Results   []Event    `json:"results"`
	Relations []Relation `json:"relations,omitempty"`
}

// AddInput is a single memory to store.
type AddInput struct {
	Text    string
	UserID  string
	AgentID string
}

// Ack is returned by delete operations.
type Ack struct {
	Message string `json:"message"`
}

// SearchFilter narrows a search to one user and optionally a set of agents.
type SearchFilter struct {
	UserID   string
	AgentIDs []string
}

// HistoryEntry is one append-only change record for a memory.
type HistoryEntry struct {
	ID        string  `json:"id"`
	MemoryID  string  `json:"memory_id"`
	OldMemory *string `json:"old_memory"`
	NewMemory *string `json:"new_memory"`
	Event     string  `json:"event"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	IsDeleted bool    `json:"is_deleted"`
}

// Request forms. Fields are filled from form values and checked with validator.

type GetMemoriesRequest struct {
	UserID    string `form:"user_id" validate:"required"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type AddMemoryRequest struct {
	Memory  string `form:"memory" validate:"required"`
	UserID  string `form:"user_id" validate:"required"`
	AgentID string `form:"agent_id"`
}

type UserRequest struct {
	UserID string `form:"user_id" validate:"required"`
}

type MemoryIDRequest struct {
	MemoryID string `form:"memory_id" validate:"required"`
}

type UpdateMemoryRequest struct {
	MemoryID string `form:"memory_id" validate:"required"`
	Message  string `form:"message" validate:"required"`
}

type SearchMemoriesRequest struct {
	Query    string   `form:"query" validate:"required"`
	UserID   string   `form:"user_id" validate:"required"`
	AgentIDs []string `form:"agent_id"`
}

// Response bodies.

type AddMemoryResponse struct {
	Message  string     `json:"message"`
	MemoryID *AddResult `json:"memory_id"`
	UserID   string     `json:"user_id"`
}

type ResultResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result"`
}

type UpdateMemoryResponse struct {
	UpdatedMemory *Record `json:"updated_memory"`
}

type SearchResponse struct {
	Query   string   `json:"query"`
	Results []Record `json:"results"`
}

type HistoryResponse struct {
	MemoryID string         `json:"memory_id"`
	History  []HistoryEntry `json:"history"`
}
