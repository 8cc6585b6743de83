package agentstream

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

// Decoder incrementally decodes an agent event stream. Feed it bytes with
// Write in any chunking; call Result once the stream is exhausted to flush
// any unterminated final line and take the accumulator snapshot.
//
// The zero chunking guarantee: for any split of the same byte stream into
// Write calls — mid-line, mid-frame, even mid-UTF-8-code-point — the decoded
// result and callback sequence are identical.
type Decoder struct {
	handlers Handlers
	logger   *slog.Logger

	// buf holds the bytes of an incomplete line between Write calls.
	buf bytes.Buffer

	// event is the current event name. It persists across frames until the
	// next "event:" line overwrites it.
	event string

	text     strings.Builder
	thinking strings.Builder
	charts   []string

	// seen tracks compact chart specs already accepted, for the duplicate
	// suppression applied to final response frames.
	seen map[string]bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithLogger sets a logger for debug-level reporting of skipped frames.
// Malformed frames are always skipped silently as far as callers are
// concerned; the logger only aids diagnosis.
func WithLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecoder returns a Decoder dispatching to the given handlers.
func NewDecoder(h Handlers, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		handlers: h,
		logger:   slog.New(discardHandler{}),
		seen:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads the stream from r to exhaustion and returns the final Result.
// Stream content never produces an error: malformed frames are skipped and
// unrecognized events ignored. A read failure on r returns the partial
// result accumulated so far alongside the error.
func Decode(r io.Reader, h Handlers, opts ...DecoderOption) (*Result, error) {
	d := NewDecoder(h, opts...)
	_, err := io.Copy(d, r)
	return d.Result(), err
}

// Write feeds a chunk of the stream into the decoder. It always returns
// len(p), nil so it composes with io.MultiWriter without aborting a
// passthrough copy.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf.Write(p)

	for {
		data := d.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := string(data[:i])
		d.buf.Next(i + 1)
		d.processLine(line)
	}

	return len(p), nil
}

// Result flushes any unterminated trailing line and returns the accumulator
// snapshot.
func (d *Decoder) Result() *Result {
	if d.buf.Len() > 0 {
		line := d.buf.String()
		d.buf.Reset()
		d.processLine(line)
	}

	return &Result{
		Text:     d.text.String(),
		Thinking: d.thinking.String(),
		Charts:   d.charts,
	}
}

// processLine handles a single reassembled line (without its trailing
// newline). Lines have the form "field: value"; the space after the colon is
// optional. Blank lines and unknown fields are ignored — the current event
// name persists until the next "event:" line.
func (d *Decoder) processLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return
	}

	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		d.event = value
	case "data":
		d.processData(value)
	default:
		// Comments (leading ':') and unknown fields fall through here.
	}
}

// processData dispatches one data payload under the current event name.
// Malformed JSON never aborts the stream: the frame is skipped and decoding
// continues with the next line.
func (d *Decoder) processData(data string) {
	if data == doneSentinel {
		return
	}

	switch d.event {
	case eventStatus:
		var p statusPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		// Both fields are required; a frame missing either is not a status.
		if p.Status == nil || p.Message == nil {
			return
		}
		if d.handlers.OnStatus != nil {
			d.handlers.OnStatus(*p.Status, *p.Message)
		}

	case eventThinkingDelta:
		var p textPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		if p.Text == nil {
			return
		}
		d.thinking.WriteString(*p.Text)
		if d.handlers.OnThinking != nil {
			d.handlers.OnThinking(d.thinking.String())
		}

	case eventThinking:
		var p textPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		if p.Text == nil {
			return
		}
		d.thinking.Reset()
		d.thinking.WriteString(*p.Text)
		if d.handlers.OnThinking != nil {
			d.handlers.OnThinking(d.thinking.String())
		}

	case eventTextDelta:
		var p textPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		if p.Text == nil {
			return
		}
		d.text.WriteString(*p.Text)
		if d.handlers.OnText != nil {
			d.handlers.OnText(*p.Text)
		}

	case eventText:
		// The terminal text frame restates content already delivered as
		// deltas. Appending it would double the text.

	case eventChart:
		var p chartPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		spec, err := normalizeChart(p.ChartSpec)
		if err != nil {
			d.skip(err)
			return
		}
		d.appendChart(spec)

	case eventToolResult:
		var p toolResultPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		for _, block := range p.Content {
			for _, raw := range block.JSON.Charts {
				spec, err := normalizeChart(raw)
				if err != nil {
					d.skip(err)
					continue
				}
				d.appendChart(spec)
			}
		}

	case eventResponse:
		var p responsePayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			d.skip(err)
			return
		}
		for _, block := range p.Content {
			if block.Type != "chart" || block.Chart.ChartSpec == nil {
				continue
			}
			spec, err := normalizeChart(block.Chart.ChartSpec)
			if err != nil {
				d.skip(err)
				continue
			}
			// Only response-sourced charts are checked against charts
			// already streamed; the final frame restates the response.
			if d.seen[spec] {
				continue
			}
			d.appendChart(spec)
		}

	default:
		// Unrecognized event: payload discarded.
	}
}

// appendChart records an accepted chart spec and notifies the handler.
func (d *Decoder) appendChart(spec string) {
	d.charts = append(d.charts, spec)
	d.seen[spec] = true
	if d.handlers.OnChart != nil {
		d.handlers.OnChart(spec)
	}
}

// skip logs a malformed frame at debug level and drops it.
func (d *Decoder) skip(err error) {
	d.logger.Debug("skipping malformed frame", "event", d.event, "error", err)
}

// normalizeChart renders a chart_spec as compact JSON. The spec arrives
// either as a JSON object or as a JSON string whose contents are serialized
// JSON; both normalize to the same compact form so serialized equality is
// well-defined.
func normalizeChart(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", errNoChartSpec
	}

	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
