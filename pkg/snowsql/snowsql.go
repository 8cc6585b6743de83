// Package snowsql submits SQL statements to the Snowflake SQL REST API and
// polls asynchronous statements to completion.
package snowsql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/demoforge/demoforge/pkg/utils"
)

const (
	statementsPath = "/api/v2/statements"

	defaultTimeout = 5 * time.Minute
	pollInterval   = 2 * time.Second

	maxErrorBody = 500
)

// Statement is one SQL statement to execute.
type Statement struct {
	SQL       string
	Bindings  map[string]Binding
	Database  string
	Schema    string
	Warehouse string
	// Timeout bounds the statement on the Snowflake side. Zero means the
	// client default.
	Timeout time.Duration
}

// Binding is a positional bind value ("1", "2", ...).
type Binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Result holds the rows of a completed statement. Cells are nullable strings,
// matching the SQL API wire format.
type Result struct {
	Handle  string
	Columns []string
	Rows    [][]*string
}

// FirstCell returns the top-left cell of the result set. Cortex COMPLETE
// returns its completion as a single cell.
func (r *Result) FirstCell() (string, error) {
	if r == nil || len(r.Rows) == 0 || len(r.Rows[0]) == 0 {
		return "", errors.New("snowsql: result has no rows")
	}
	cell := r.Rows[0][0]
	if cell == nil {
		return "", errors.New("snowsql: first cell is NULL")
	}
	return *cell, nil
}

// Config carries the connection parameters for a Client.
type Config struct {
	AccountURL string
	Token      string
}

// Client executes statements against one Snowflake account.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval overrides the async polling interval. Used in tests.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// New creates a SQL REST API client.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.AccountURL == "" {
		return nil, errors.New("snowsql: account URL is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("snowsql: token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:          cfg,
		httpClient:   &http.Client{},
		logger:       logger,
		pollInterval: pollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type statementRequest struct {
	Statement string             `json:"statement"`
	Timeout   int64              `json:"timeout,omitempty"`
	Database  string             `json:"database,omitempty"`
	Schema    string             `json:"schema,omitempty"`
	Warehouse string             `json:"warehouse,omitempty"`
	Bindings  map[string]Binding `json:"bindings,omitempty"`
}

type statementResponse struct {
	StatementHandle   string `json:"statementHandle"`
	Message           string `json:"message"`
	ResultSetMetaData struct {
		RowType []struct {
			Name string `json:"name"`
		} `json:"rowType"`
	} `json:"resultSetMetaData"`
	Data [][]*string `json:"data"`
}

// Exec submits the statement and blocks until it reaches a terminal state,
// polling the statement handle when Snowflake answers 202.
func (c *Client) Exec(ctx context.Context, stmt Statement) (*Result, error) {
	if stmt.SQL == "" {
		return nil, errors.New("snowsql: statement SQL is empty")
	}

	timeout := stmt.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	payload := statementRequest{
		Statement: stmt.SQL,
		Timeout:   int64(timeout.Seconds()),
		Database:  stmt.Database,
		Schema:    stmt.Schema,
		Warehouse: stmt.Warehouse,
		Bindings:  stmt.Bindings,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding statement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AccountURL+statementsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building statement request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting statement: %w", err)
	}

	sr, status, err := c.readResponse(resp)
	if err != nil {
		return nil, err
	}

	if status == http.StatusAccepted {
		c.logger.Debug("statement accepted, polling", "handle", sr.StatementHandle)
		sr, err = c.poll(ctx, sr.StatementHandle)
		if err != nil {
			return nil, err
		}
	}

	return toResult(sr), nil
}

// poll fetches the statement handle until Snowflake stops answering 202.
func (c *Client) poll(ctx context.Context, handle string) (*statementResponse, error) {
	if handle == "" {
		return nil, errors.New("snowsql: accepted statement has no handle")
	}

	url := fmt.Sprintf("%s%s/%s", c.cfg.AccountURL, statementsPath, handle)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building poll request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("polling statement %s: %w", handle, err)
		}

		sr, status, err := c.readResponse(resp)
		if err != nil {
			return nil, err
		}
		if status == http.StatusAccepted {
			continue
		}
		return sr, nil
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
}

// readResponse decodes a 200/202 body and turns any other status into an
// error carrying a truncated copy of the response.
func (c *Client) readResponse(resp *http.Response) (*statementResponse, int, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return nil, resp.StatusCode, fmt.Errorf("snowflake returned status %d: %s",
			resp.StatusCode, utils.Truncate(string(body), maxErrorBody))
	}

	var sr statementResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decoding statement response: %w", err)
	}
	return &sr, resp.StatusCode, nil
}

func toResult(sr *statementResponse) *Result {
	res := &Result{
		Handle: sr.StatementHandle,
		Rows:   sr.Data,
	}
	for _, col := range sr.ResultSetMetaData.RowType {
		res.Columns = append(res.Columns, col.Name)
	}
	return res
}
