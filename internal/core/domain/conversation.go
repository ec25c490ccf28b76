package domain

import "time"

// Conversation is one multi-turn search session. Turns within a conversation run
// strictly sequentially; different conversations share nothing.
type Conversation struct {
	ID          string
	CurrentTurn int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Turn records what one completed turn surfaced. Append-only: prior turns are never
// mutated.
type Turn struct {
	ConversationID string
	TurnNumber     int
	Query          string
	RefinedQuery   string
	Source         Source
	ShownTitles    []string
	CreatedAt      time.Time
}

// HistoryMessage is the role/content shape the query classifier consumes.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SearchResult is the service-facing outcome of one turn. An empty product list is a
// valid success ("no new products"), distinct from retrieval failure.
type SearchResult struct {
	Query          string    `json:"query"`
	ConversationID string    `json:"conversation_id"`
	Products       []Product `json:"products"`
	Message        string    `json:"message,omitempty"`

	// Source is the routed backend for this turn, kept for observability only.
	Source Source `json:"-"`
}
