package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/wizard"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is the wizard session as returned by the API.
type SessionResponse struct {
	ID        string              `json:"id"`
	State     wizard.State        `json:"state"`
	Form      wizard.Form         `json:"form"`
	Brand     *wizard.BrandChoice `json:"brand,omitempty"`
	CreatedAt string              `json:"created_at"`
}

// BrandResponse carries the logo and color candidates for one domain.
type BrandResponse struct {
	Domain string   `json:"domain"`
	Name   string   `json:"name,omitempty"`
	Logos  []string `json:"logos"`
	Colors []string `json:"colors"`
}

// TurnResponse is one stored chat turn.
type TurnResponse struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Thinking  string   `json:"thinking,omitempty"`
	Charts    []string `json:"charts,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// brandCandidates is how many logos and colors the brand endpoint offers.
const brandCandidates = 3

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateSession starts a wizard session from a submitted company form.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var form wizard.Form
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	sess := wizard.NewSession()
	if err := sess.SubmitForm(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	s.register(sess)
	s.persistSession(c.Context(), sess)

	s.logger.Info("wizard session created",
		"session_id", sess.ID,
		"company", form.CompanyName,
		"vertical", form.Vertical,
	)

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(sess))
}

// handleGetSession returns a live session by ID.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, ok := s.session(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	return c.JSON(sessionResponse(sess))
}

// handleListSessions returns all stored sessions, newest first.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.store.ListSessions(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list sessions"})
	}

	return c.JSON(map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// handleBrand looks up brand assets for a domain and returns a short list of
// logo and color candidates to pick from.
func (s *Server) handleBrand(c *fiber.Ctx) error {
	if s.brands == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "brand lookup not configured"})
	}

	domain := c.Params("domain")
	brand, err := s.brands.Brand(c.Context(), domain)
	if err != nil {
		s.logger.Warn("brand lookup failed", "domain", domain, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "brand lookup failed"})
	}

	return c.JSON(BrandResponse{
		Domain: domain,
		Name:   brand.Name,
		Logos:  brand.LogoURLs(brandCandidates),
		Colors: brand.ColorHexes(brandCandidates),
	})
}

// handleChooseBrand records the picked logo and color and advances the
// session to the chat state.
func (s *Server) handleChooseBrand(c *fiber.Ctx) error {
	sess, ok := s.session(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	var choice wizard.BrandChoice
	if err := c.BodyParser(&choice); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if err := sess.ChooseBrand(choice); err != nil {
		var transition *wizard.InvalidTransitionError
		if errors.As(err, &transition) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	s.persistSession(c.Context(), sess)

	return c.JSON(sessionResponse(sess))
}

// handleListTurns returns a session's stored turns in chronological order.
func (s *Server) handleListTurns(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.session(id); !ok {
		if _, err := s.store.GetSession(c.Context(), id); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
		}
	}

	turns, err := s.store.ListTurns(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list turns"})
	}

	out := make([]TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = turnResponse(t)
	}

	return c.JSON(map[string]any{
		"count": len(out),
		"turns": out,
	})
}

func sessionResponse(sess *wizard.Session) SessionResponse {
	resp := SessionResponse{
		ID:        sess.ID,
		State:     sess.State(),
		Form:      sess.Form(),
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
	}
	if brand := sess.Brand(); brand.LogoURL != "" {
		resp.Brand = &brand
	}
	return resp
}

func turnResponse(t *storage.Turn) TurnResponse {
	return TurnResponse{
		ID:        t.ID,
		Question:  t.Question,
		Answer:    t.Answer,
		Thinking:  t.Thinking,
		Charts:    t.Charts,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}
