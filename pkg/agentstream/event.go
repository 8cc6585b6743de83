// Package agentstream decodes the event stream produced by a Snowflake Cortex
// agent :run endpoint. The stream is framed SSE-style ("event:" and "data:"
// lines, frames separated by blank lines) and carries text deltas, thinking
// traces, status updates, and chart specs.
//
// The Decoder is an io.Writer so it can be fed arbitrary byte chunks — from
// io.Copy, an io.MultiWriter tee, or an HTTP body read loop — and chunk
// boundaries never affect the decoded result. Line reassembly is byte-based:
// '\n' never occurs inside a multi-byte UTF-8 code point, so splitting on raw
// newlines is safe even when a chunk ends mid-code-point.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
package agentstream

import "encoding/json"

// Event names recognized by the decoder. Any other event name is ignored.
const (
	eventStatus        = "response.status"
	eventThinkingDelta = "response.thinking.delta"
	eventThinking      = "response.thinking"
	eventTextDelta     = "response.text.delta"
	eventText          = "response.text"
	eventChart         = "response.chart"
	eventToolResult    = "response.tool_result"
	eventResponse      = "response"
)

// doneSentinel marks the end of the stream. It is discarded, never parsed.
const doneSentinel = "[DONE]"

// Handlers receives decoded stream content as it arrives. All callbacks are
// optional; a nil callback is simply not invoked. Callbacks run synchronously
// on the decoding goroutine, at most once per producing frame, in stream
// order.
type Handlers struct {
	// OnText receives each text delta (not the accumulated text).
	OnText func(delta string)

	// OnThinking receives the full thinking text accumulated so far.
	OnThinking func(thinking string)

	// OnChart receives each chart spec as compact JSON, in arrival order.
	OnChart func(spec string)

	// OnStatus receives each status update. Status is transient: it is
	// surfaced here and never stored in the Result.
	OnStatus func(status, message string)
}

// Result is the final accumulator snapshot after the stream is exhausted.
// The latest status is deliberately absent: status is progress reporting,
// not response content.
type Result struct {
	// Text is the concatenation of all response.text.delta payloads.
	Text string

	// Thinking is the accumulated thinking trace. Deltas append; a terminal
	// response.thinking frame replaces the whole trace.
	Thinking string

	// Charts holds every accepted chart spec as compact JSON, in arrival
	// order.
	Charts []string
}

// statusPayload is the body of a response.status frame.
type statusPayload struct {
	Status  *string `json:"status"`
	Message *string `json:"message"`
}

// textPayload is the body of response.text.delta, response.thinking.delta,
// and response.thinking frames. The pointer distinguishes a missing field
// from an empty string.
type textPayload struct {
	Text *string `json:"text"`
}

// chartPayload is the body of a response.chart frame. The chart_spec is
// either a JSON object or a JSON string containing serialized JSON.
type chartPayload struct {
	ChartSpec json.RawMessage `json:"chart_spec"`
}

// toolResultPayload is the body of a response.tool_result frame. Charts are
// nested under each content block's json field.
type toolResultPayload struct {
	Content []struct {
		JSON struct {
			Charts []json.RawMessage `json:"charts"`
		} `json:"json"`
	} `json:"content"`
}

// responsePayload is the body of the final response frame, which restates the
// complete response as typed content blocks.
type responsePayload struct {
	Content []struct {
		Type  string `json:"type"`
		Chart struct {
			ChartSpec json.RawMessage `json:"chart_spec"`
		} `json:"chart"`
	} `json:"content"`
}
