// Package agent provides a client for conversing with a Snowflake Cortex
// agent over its :run endpoint. Responses stream back as framed events and
// are decoded with pkg/agentstream.
package agent

// Message represents a single message in a conversation with the agent.
// Content is an array of ContentBlocks so tool results and charts can ride
// alongside plain text.
type Message struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a single piece of content within a message.
// The Type field determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "chart"

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Chart content (type="chart"): a compact JSON chart spec.
	ChartSpec string `json:"chart_spec,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
	}
}

// GetText returns the concatenated text content from all text blocks in the message.
func (m *Message) GetText() string {
	var result string
	for _, block := range m.Content {
		if block.Type == "text" {
			result += block.Text
		}
	}
	return result
}
