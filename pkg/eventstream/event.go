package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/demoforge/demoforge/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnPersisted is emitted after a chat turn is persisted.
	EventTypeTurnPersisted = "demoforge.turn.persisted"
)

// TurnPersistedEvent is a transport-neutral event payload for a persisted
// chat turn.
type TurnPersistedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	RequestMeta   TurnRequestMeta `json:"request_meta"`
	Turn          TurnPayload     `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	SessionID   string `json:"session_id"`
	CompanyName string `json:"company_name,omitempty"`
	AgentName   string `json:"agent_name,omitempty"`
}

// TurnRequestMeta captures request lifecycle metadata for the event.
type TurnRequestMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
}

// TurnPayload is the persisted turn content.
type TurnPayload struct {
	TurnID   string   `json:"turn_id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Thinking string   `json:"thinking,omitempty"`
	Charts   []string `json:"charts,omitempty"`
}

// NewTurnPersisted builds a v1 event from a stored turn.
func NewTurnPersisted(source EventSource, meta TurnRequestMeta, turn *storage.Turn) *TurnPersistedEvent {
	return &TurnPersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnPersisted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		RequestMeta:   meta,
		Turn: TurnPayload{
			TurnID:   turn.ID,
			Question: turn.Question,
			Answer:   turn.Answer,
			Thinking: turn.Thinking,
			Charts:   turn.Charts,
		},
	}
}
