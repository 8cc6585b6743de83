package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/eventstream"
	"github.com/demoforge/demoforge/pkg/storage"
)

var _ = Describe("Event", func() {
	It("marshals TurnPersistedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.TurnPersistedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTurnPersisted,
			EventID:       "evt_123",
			EmittedAt:     now,
			Source: eventstream.EventSource{
				SessionID:   "s-1",
				CompanyName: "Acme Corp",
				AgentName:   "DEMOFORGE_AGENT",
			},
			RequestMeta: eventstream.TurnRequestMeta{
				StartedAt:   now.Add(-2 * time.Second),
				CompletedAt: now,
				DurationMs:  2000,
				Streaming:   true,
			},
			Turn: eventstream.TurnPayload{
				TurnID:   "t-1",
				Question: "show revenue",
				Answer:   "Revenue is up.",
				Charts:   []string{`{"mark":"bar"}`},
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(payload, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("schema_version"))
		Expect(decoded).To(HaveKey("event_type"))
		Expect(decoded).To(HaveKey("event_id"))
		Expect(decoded).To(HaveKey("emitted_at"))
		Expect(decoded).To(HaveKey("source"))
		Expect(decoded).To(HaveKey("request_meta"))
		Expect(decoded).To(HaveKey("turn"))
		Expect(decoded["event_type"]).To(Equal("demoforge.turn.persisted"))
	})
})

var _ = Describe("NewTurnPersisted", func() {
	It("copies the turn content and stamps identity fields", func() {
		turn := &storage.Turn{
			ID:       "t-9",
			Question: "and costs?",
			Answer:   "Costs are flat.",
			Thinking: "checking the metrics table",
			Charts:   []string{`{"mark":"line"}`},
		}

		event := eventstream.NewTurnPersisted(
			eventstream.EventSource{SessionID: "s-9"},
			eventstream.TurnRequestMeta{Streaming: true},
			turn,
		)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeTurnPersisted))
		Expect(event.EventID).To(HavePrefix("evt_"))
		Expect(event.EmittedAt).NotTo(BeZero())
		Expect(event.Turn.TurnID).To(Equal("t-9"))
		Expect(event.Turn.Thinking).To(Equal("checking the metrics table"))
		Expect(event.Turn.Charts).To(Equal([]string{`{"mark":"line"}`}))
	})
})
