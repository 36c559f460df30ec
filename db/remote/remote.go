// Package remote implements the executor interface against an HTTP SQL
// service of the kind serverless database providers expose. Statements are
// posted as JSON and results come back as JSON arrays.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

var databaseIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Config holds the connection settings for the remote service.
type Config struct {
	// URL is the base endpoint of the service, e.g. https://db.example.com.
	URL string

	// DatabaseID selects the database to query.
	DatabaseID string

	// AuthToken is sent as a bearer token on every request.
	AuthToken string
}

func (c Config) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("URL must be http or https with a host, got %q", c.URL)
	}
	if !databaseIDPattern.MatchString(c.DatabaseID) {
		return fmt.Errorf("database id %q must match %s", c.DatabaseID, databaseIDPattern)
	}
	if c.AuthToken == "" {
		return fmt.Errorf("auth token is required")
	}
	return nil
}

// Db executes statements against the remote service.
// It is safe for concurrent use as its fields are immutable after creation
// apart from the concurrency-safe *http.Client.
type Db struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

var _ executor.Executor = (*Db)(nil)

// Option configures a Db created by New.
type Option func(*Db)

// WithHTTPClient replaces the default HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Db) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// New creates a new executor for the configured service. The configuration
// is validated up front so a bad URL or token fails here rather than on the
// first query.
func New(cfg Config, opts ...Option) (*Db, error) {
	if err := cfg.validate(); err != nil {
		return nil, executor.NewError(executor.KindConfig, "invalid remote database configuration", err)
	}

	d := &Db{
		cfg:      cfg,
		endpoint: strings.TrimSuffix(cfg.URL, "/") + "/v1/db/" + cfg.DatabaseID + "/query",
		// Timeouts come from the per-attempt context, not the client.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type queryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type queryResponse struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int64    `json:"row_count"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Execute posts a single statement to the service and decodes the result.
// JSON numbers arrive as float64; Row accessors convert on read.
func (d *Db) Execute(ctx context.Context, query string, params ...any) (*executor.Result, error) {
	body, err := json.Marshal(queryRequest{SQL: query, Params: normalizeArgs(params)})
	if err != nil {
		return nil, executor.NewError(executor.KindQueryRejected, "encoding parameters", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, executor.NewError(executor.KindConfig, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.AuthToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, executor.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var decoded queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, executor.NewError(executor.KindNetwork, "decoding response", err)
	}

	res := &executor.Result{Columns: decoded.Columns}
	for _, values := range decoded.Rows {
		row := make(executor.Row, len(decoded.Columns))
		for i, name := range decoded.Columns {
			if i < len(values) {
				row[name] = values[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if len(res.Rows) > 0 {
		res.RowCount = int64(len(res.Rows))
	} else {
		res.RowCount = decoded.RowCount
	}
	return res, nil
}

// normalizeArgs converts times to RFC3339 UTC text so every adapter stores
// the same representation.
func normalizeArgs(params []any) []any {
	args := make([]any, len(params))
	for i, p := range params {
		if t, ok := p.(time.Time); ok {
			args[i] = db.TimeFormat(t)
			continue
		}
		args[i] = p
	}
	return args
}

// statusError translates a non-200 response into an executor error.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &executor.Error{
			Kind:       executor.KindRateLimit,
			Message:    "service rate limited the query",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return executor.NewError(executor.KindConfig,
			fmt.Sprintf("service rejected credentials with status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return executor.NewError(executor.KindNetwork,
			fmt.Sprintf("service returned status %d", resp.StatusCode), nil)
	}

	var decoded errorResponse
	_ = json.Unmarshal(body, &decoded)
	msg := decoded.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("service rejected the query with status %d", resp.StatusCode)
	}
	if decoded.Error.Code == "constraint_unique" {
		return &executor.Error{
			Kind:    executor.KindQueryRejected,
			Message: msg,
			Err:     db.ErrConstraintUnique,
		}
	}
	return executor.NewError(executor.KindQueryRejected, msg, nil)
}

// parseRetryAfter reads the delay-seconds form of a Retry-After header.
// Anything else yields zero and the caller falls back to its own backoff.
func parseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
