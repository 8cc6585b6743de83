// Package wizard holds the session state machine behind the demo wizard:
// a form step, a brand selection step, and a chat step, with typed
// transition payloads and at most one in-flight chat turn per session.
package wizard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is one of the wizard's three states.
type State string

const (
	StateForm           State = "form"
	StateBrandSelection State = "brand-selection"
	StateChat           State = "chat"
)

var (
	// ErrTurnInFlight is returned when a chat turn is submitted while a
	// previous one is still streaming.
	ErrTurnInFlight = errors.New("wizard: a chat turn is already in flight")
)

// InvalidTransitionError reports a payload applied in the wrong state.
type InvalidTransitionError struct {
	From   State
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("wizard: cannot %s in state %q", e.Action, e.From)
}

// Form is the company profile collected in the first step.
type Form struct {
	CompanyName     string `json:"company_name"`
	Domain          string `json:"domain"`
	Vertical        string `json:"vertical"`
	SubVertical     string `json:"sub_vertical,omitempty"`
	Audience        string `json:"audience"`
	UseCases        string `json:"use_cases,omitempty"`
	RecordsPerTable int    `json:"records_per_table"`
}

// BrandChoice is the logo and color picked in the second step.
type BrandChoice struct {
	LogoURL  string `json:"logo_url"`
	ColorHex string `json:"color_hex"`
}

// Session is one wizard run. Methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	form     Form
	brand    BrandChoice
	inFlight bool
}

// NewSession starts a session in the form state.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		state:     StateForm,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Form returns the submitted form.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Brand returns the chosen brand assets.
func (s *Session) Brand() BrandChoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brand
}

// SubmitForm validates the form and moves the session to brand selection.
func (s *Session) SubmitForm(form Form) error {
	if err := ValidateForm(form); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateForm {
		return &InvalidTransitionError{From: s.state, Action: "submit form"}
	}
	s.form = form
	s.state = StateBrandSelection
	return nil
}

// ChooseBrand records the brand pick and moves the session to chat.
func (s *Session) ChooseBrand(choice BrandChoice) error {
	if choice.LogoURL == "" || choice.ColorHex == "" {
		return errors.New("wizard: logo URL and color are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateBrandSelection {
		return &InvalidTransitionError{From: s.state, Action: "choose brand"}
	}
	s.brand = choice
	s.state = StateChat
	return nil
}

// BeginTurn reserves the session's single chat turn slot. The caller must
// call EndTurn when the stream finishes, successfully or not.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateChat {
		return &InvalidTransitionError{From: s.state, Action: "start chat turn"}
	}
	if s.inFlight {
		return ErrTurnInFlight
	}
	s.inFlight = true
	return nil
}

// EndTurn releases the turn slot.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}
