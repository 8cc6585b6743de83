package api

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/demoforge/demoforge/pkg/agent"
	"github.com/demoforge/demoforge/pkg/agentstream"
	"github.com/demoforge/demoforge/pkg/eventstream"
	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/wizard"
	"github.com/demoforge/demoforge/pkg/worker"
)

// ChatRequest is one question for the agent.
type ChatRequest struct {
	Question string `json:"question"`
}

// handleChat forwards a question to the Cortex agent and streams the raw
// agent response back to the client untouched. A decoder tees off the same
// bytes to accumulate the answer, thinking, and charts; when the stream ends
// the turn is handed to the worker pool for persistence off the hot path.
func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.agent == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "agent not configured"})
	}

	sess, ok := s.session(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	// Both a turn already in flight and a session not yet in the chat state
	// answer 409.
	if err := sess.BeginTurn(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	}

	history, err := s.buildHistory(c.Context(), sess.ID)
	if err != nil {
		sess.EndTurn()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load history"})
	}

	// The upstream request deliberately uses a background context: the agent
	// stream outlives this handler and is closed by the copy goroutine.
	started := time.Now().UTC()
	body, err := s.agent.Open(context.Background(), req.Question, history)
	if err != nil {
		sess.EndTurn()
		s.logger.Error("failed to open agent stream", "session_id", sess.ID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "agent request failed"})
	}

	// An io.Pipe bridges the agent body to the response. SetBodyStream with
	// size -1 gives chunked transfer encoding, and the pipe blocks the copy
	// goroutine whenever the client reads slowly, so TCP backpressure
	// propagates upstream instead of buffering the whole response.
	pr, pw := io.Pipe()
	decoder := agentstream.NewDecoder(agentstream.Handlers{}, agentstream.WithLogger(s.logger))

	go func() {
		defer sess.EndTurn()
		defer body.Close()

		_, copyErr := io.Copy(io.MultiWriter(pw, decoder), body)
		pw.CloseWithError(copyErr)

		if copyErr != nil {
			s.logger.Warn("agent stream ended early", "session_id", sess.ID, "error", copyErr)
		}

		s.enqueueTurn(sess, req.Question, decoder.Result(), started)
	}()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

// buildHistory reconstructs the conversation from stored turns, oldest first.
func (s *Server) buildHistory(ctx context.Context, sessionID string) ([]agent.Message, error) {
	turns, err := s.store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]agent.Message, 0, len(turns)*2)
	for _, t := range turns {
		history = append(history, agent.NewTextMessage("user", t.Question))
		history = append(history, agent.NewTextMessage("assistant", t.Answer))
	}
	return history, nil
}

// enqueueTurn hands the completed turn to the worker pool. A partial result
// from a dropped stream is still persisted; losing the tail beats losing the
// turn.
func (s *Server) enqueueTurn(sess *wizard.Session, question string, result *agentstream.Result, started time.Time) {
	if s.pool == nil {
		return
	}

	completed := time.Now().UTC()
	form := sess.Form()

	job := worker.Job{
		Turn: &storage.Turn{
			ID:        uuid.NewString(),
			SessionID: sess.ID,
			Question:  question,
			Answer:    result.Text,
			Thinking:  result.Thinking,
			Charts:    result.Charts,
			CreatedAt: completed,
		},
		Source: eventstream.EventSource{
			SessionID:   sess.ID,
			CompanyName: form.CompanyName,
		},
		Meta: eventstream.TurnRequestMeta{
			StartedAt:   started,
			CompletedAt: completed,
			DurationMs:  completed.Sub(started).Milliseconds(),
			Streaming:   true,
		},
	}

	s.pool.Enqueue(job)
}
