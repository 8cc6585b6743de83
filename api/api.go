package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/demoforge/demoforge/pkg/agent"
	"github.com/demoforge/demoforge/pkg/brandfetch"
	"github.com/demoforge/demoforge/pkg/provision"
	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/wizard"
	"github.com/demoforge/demoforge/pkg/worker"
)

// AgentStreamer opens a streaming agent response for a question. The caller
// owns the returned body and must close it.
type AgentStreamer interface {
	Open(ctx context.Context, question string, history []agent.Message) (io.ReadCloser, error)
}

// BrandLookup fetches brand assets for a domain.
type BrandLookup interface {
	Brand(ctx context.Context, domain string) (*brandfetch.Brand, error)
}

// ProvisionFunc runs a full provisioning pipeline for the given company
// profile, reporting step names through onStep as stages start.
type ProvisionFunc func(ctx context.Context, form wizard.Form, brand wizard.BrandChoice, onStep func(string)) (*provision.Outcome, error)

// Deps are the components the server is wired with. Store is required; the
// rest are optional and their routes answer 503 when absent.
type Deps struct {
	Store     storage.Driver
	Agent     AgentStreamer
	Brands    BrandLookup
	Provision ProvisionFunc
	Pool      *worker.Pool
	Logger    *slog.Logger
}

// Server is the HTTP server for the demo wizard.
type Server struct {
	config Config
	store  storage.Driver
	agent  AgentStreamer
	brands BrandLookup
	prov   ProvisionFunc
	pool   *worker.Pool
	logger *slog.Logger
	app    *fiber.App

	mu       sync.Mutex
	sessions map[string]*wizard.Session
	runs     map[string]*provisionRun
}

// NewServer creates a new API server.
// The storage driver is injected to allow sharing with other components.
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("api: storage driver is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		store:    deps.Store,
		agent:    deps.Agent,
		brands:   deps.Brands,
		prov:     deps.Provision,
		pool:     deps.Pool,
		logger:   deps.Logger,
		app:      app,
		sessions: make(map[string]*wizard.Session),
		runs:     make(map[string]*provisionRun),
	}

	app.Get("/ping", s.handlePing)
	app.Get("/brands/:domain", s.handleBrand)
	app.Post("/wizard/sessions", s.handleCreateSession)
	app.Get("/wizard/sessions", s.handleListSessions)
	app.Get("/wizard/sessions/:id", s.handleGetSession)
	app.Post("/wizard/sessions/:id/brand", s.handleChooseBrand)
	app.Post("/wizard/sessions/:id/chat", s.handleChat)
	app.Get("/wizard/sessions/:id/turns", s.handleListTurns)
	app.Post("/wizard/sessions/:id/provision", s.handleStartProvision)
	app.Get("/wizard/sessions/:id/provision", s.handleProvisionStatus)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// session returns the live wizard session for id, if registered.
func (s *Server) session(id string) (*wizard.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// register adds a session to the in-memory registry.
func (s *Server) register(sess *wizard.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// persistSession writes the session's current snapshot through the storage
// driver. Persistence failures are logged, not surfaced: the live session in
// the registry remains authoritative for the wizard flow.
func (s *Server) persistSession(ctx context.Context, sess *wizard.Session) {
	form := sess.Form()
	brand := sess.Brand()

	record := &storage.Session{
		ID:              sess.ID,
		CompanyName:     form.CompanyName,
		Domain:          form.Domain,
		Vertical:        form.Vertical,
		SubVertical:     form.SubVertical,
		Audience:        form.Audience,
		RecordsPerTable: form.RecordsPerTable,
		LogoURL:         brand.LogoURL,
		ColorHex:        brand.ColorHex,
		State:           string(sess.State()),
		CreatedAt:       sess.CreatedAt,
		UpdatedAt:       time.Now().UTC(),
	}

	if err := s.store.PutSession(ctx, record); err != nil {
		s.logger.Error("failed to persist session", "session_id", sess.ID, "error", err)
	}
}
