package api

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/demoforge/demoforge/pkg/provision"
	"github.com/demoforge/demoforge/pkg/wizard"
)

// Provisioning run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// provisionRun tracks one asynchronous provisioning pipeline.
type provisionRun struct {
	mu      sync.Mutex
	status  string
	steps   []string
	err     string
	outcome *provision.Outcome
}

func (r *provisionRun) addStep(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *provisionRun) finish(outcome *provision.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.status = RunStatusFailed
		r.err = err.Error()
		return
	}
	r.status = RunStatusComplete
	r.outcome = outcome
}

// ProvisionStatusResponse is the progress snapshot of a provisioning run.
type ProvisionStatusResponse struct {
	SessionID string           `json:"session_id"`
	Status    string           `json:"status"`
	Steps     []string         `json:"steps"`
	Error     string           `json:"error,omitempty"`
	Outcome   *ProvisionedDemo `json:"outcome,omitempty"`
}

// ProvisionedDemo summarizes what a completed run created.
type ProvisionedDemo struct {
	Title          string                  `json:"title"`
	Tables         []provision.TableResult `json:"tables"`
	SemanticView   string                  `json:"semantic_view"`
	SearchService  string                  `json:"search_service"`
	AgentName      string                  `json:"agent_name"`
	ExampleQueries []string                `json:"example_queries"`
	Guide          string                  `json:"guide"`
}

// handleStartProvision kicks off the provisioning pipeline for a session in
// the background and answers immediately. One run per session.
func (s *Server) handleStartProvision(c *fiber.Ctx) error {
	if s.prov == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "provisioning not configured"})
	}

	sess, ok := s.session(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	if sess.State() != wizard.StateChat {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: "complete the form and brand steps first"})
	}

	s.mu.Lock()
	if _, exists := s.runs[sess.ID]; exists {
		s.mu.Unlock()
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: "provisioning already started"})
	}
	run := &provisionRun{status: RunStatusRunning}
	s.runs[sess.ID] = run
	s.mu.Unlock()

	s.logger.Info("provisioning started", "session_id", sess.ID, "company", sess.Form().CompanyName)

	go func() {
		outcome, err := s.prov(context.Background(), sess.Form(), sess.Brand(), run.addStep)
		run.finish(outcome, err)
		if err != nil {
			s.logger.Error("provisioning failed", "session_id", sess.ID, "error", err)
			return
		}
		s.logger.Info("provisioning complete", "session_id", sess.ID, "agent", outcome.AgentName)
	}()

	return c.Status(fiber.StatusAccepted).JSON(ProvisionStatusResponse{
		SessionID: sess.ID,
		Status:    RunStatusRunning,
		Steps:     []string{},
	})
}

// handleProvisionStatus reports the progress of a session's provisioning run.
func (s *Server) handleProvisionStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	run, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no provisioning run for session"})
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	resp := ProvisionStatusResponse{
		SessionID: id,
		Status:    run.status,
		Steps:     append([]string(nil), run.steps...),
		Error:     run.err,
	}
	if run.outcome != nil {
		resp.Outcome = &ProvisionedDemo{
			Title:          run.outcome.Plan.Title,
			Tables:         run.outcome.Tables,
			SemanticView:   run.outcome.SemanticView,
			SearchService:  run.outcome.SearchService,
			AgentName:      run.outcome.AgentName,
			ExampleQueries: run.outcome.ExampleQueries,
			Guide:          run.outcome.Guide,
		}
	}

	return c.JSON(resp)
}
