package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/demoforge/demoforge/pkg/agentstream"
	"github.com/demoforge/demoforge/pkg/utils"
)

// maxErrorBody caps how much of a failed response body is carried into the
// returned error.
const maxErrorBody = 500

// Config holds everything needed to reach one Cortex agent.
type Config struct {
	// AccountURL is the Snowflake account base URL,
	// e.g. https://myorg-myaccount.snowflakecomputing.com
	AccountURL string

	// Database, Schema, and AgentName locate the agent object.
	Database  string
	Schema    string
	AgentName string

	// Token is an opaque bearer credential. It is sent verbatim in the
	// Authorization header and never logged.
	Token string
}

// Client converses with a single Cortex agent.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. The http.Client deliberately has no timeout: agent
// responses stream for as long as the agent thinks.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.AccountURL == "" {
		return nil, errors.New("agent: account URL is required")
	}
	if cfg.AgentName == "" {
		return nil, errors.New("agent: agent name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// runRequest is the body POSTed to the :run endpoint.
type runRequest struct {
	Messages   []Message  `json:"messages"`
	ToolChoice toolChoice `json:"tool_choice"`
}

type toolChoice struct {
	Type string   `json:"type"`
	Name []string `json:"name"`
}

// runURL builds the agent :run endpoint URL.
func (c *Client) runURL() string {
	return fmt.Sprintf("%s/api/v2/databases/%s/schemas/%s/agents/%s:run",
		strings.TrimSuffix(c.cfg.AccountURL, "/"),
		c.cfg.Database, c.cfg.Schema, c.cfg.AgentName)
}

// Open sends the question (with prior history) to the agent and returns the
// raw streaming response body. The caller owns the body and must close it.
// A non-2xx response is drained, truncated, and returned as an error.
func (c *Client) Open(ctx context.Context, question string, history []Message) (io.ReadCloser, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, NewTextMessage("user", question))

	payload, err := json.Marshal(runRequest{
		Messages:   messages,
		ToolChoice: toolChoice{Type: "auto", Name: []string{}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.runURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building agent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling agent: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return nil, fmt.Errorf("agent returned status %d: %s",
			resp.StatusCode, utils.Truncate(string(body), maxErrorBody))
	}

	return resp.Body, nil
}

// Ask sends the question to the agent and decodes the streamed response.
// Handlers fire as content arrives; the returned Result is the final
// snapshot. In-stream decode issues (malformed frames, unknown events) never
// produce an error. If the connection drops mid-stream, Ask returns the
// partial Result accumulated so far alongside the error.
func (c *Client) Ask(ctx context.Context, question string, history []Message, h agentstream.Handlers) (*agentstream.Result, error) {
	body, err := c.Open(ctx, question, history)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	c.logger.Debug("agent stream opened", "agent", c.cfg.AgentName)

	result, err := agentstream.Decode(body, h, agentstream.WithLogger(c.logger))
	if err != nil {
		return result, fmt.Errorf("reading agent stream: %w", err)
	}
	return result, nil
}
