// Package api is the REST/JSON client for the accounting master-data
// backend. It implements the collaborator operations the consolidation
// workflow consumes: the three master lists, the current consolidation
// links, and the create/merge/demerge writes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// RequestIDHeader carries a fresh identifier on every request so a failing
// call can be matched with the server's logs.
const RequestIDHeader = "X-Request-ID"

const (
	pathLedgers      = "/ledgers"
	pathSubGroups    = "/sub_groups"
	pathMainGroups   = "/main_groups"
	pathConsolidated = "/consolidated"
	pathMerge        = "/ledgers/merge"
	pathDemerge      = "/ledgers/demerge"
	pathReport       = "/consolidated/ledger/"
)

// Client talks to the backend. The zero value is not usable; call New.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger logrus.FieldLogger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithToken sends an Authorization bearer token on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListLedgers returns every ledger record.
func (c *Client) ListLedgers(ctx context.Context) ([]types.Record, error) {
	return c.list(ctx, "list ledgers", pathLedgers)
}

// ListSubGroups returns every sub group record.
func (c *Client) ListSubGroups(ctx context.Context) ([]types.Record, error) {
	return c.list(ctx, "list sub groups", pathSubGroups)
}

// ListMainGroups returns every main group record.
func (c *Client) ListMainGroups(ctx context.Context) ([]types.Record, error) {
	return c.list(ctx, "list main groups", pathMainGroups)
}

// ListActiveConsolidationLinks returns the links whose status is active.
// The backend returns every link; inactive ones are dropped here.
func (c *Client) ListActiveConsolidationLinks(ctx context.Context) ([]types.ConsolidationLink, error) {
	records, err := c.list(ctx, "list consolidation links", pathConsolidated)
	if err != nil {
		return nil, err
	}

	links := make([]types.ConsolidationLink, 0, len(records))
	for _, rec := range records {
		link := linkFromRecord(rec)
		if !link.Status.IsActive() || link.LedgerCode == "" {
			continue
		}
		links = append(links, link)
	}
	return links, nil
}

// CreateConsolidationLink persists a new link and returns the created record.
//
// Once the server answered 2xx the link exists, so a body that is empty or
// not a JSON object yields an empty record rather than an error. A non-nil
// record always means the create happened.
func (c *Client) CreateConsolidationLink(ctx context.Context, link types.ConsolidationLink) (types.Record, error) {
	var raw []byte
	if err := c.do(ctx, "create consolidation link", http.MethodPost, pathConsolidated, link, &raw); err != nil {
		return nil, err
	}

	created := types.Record{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return created, nil
	}
	if err := json.Unmarshal(raw, &created); err != nil || created == nil {
		c.logger.WithError(err).WithField("ledger_code", link.LedgerCode).
			Warn("consolidation link created but the response is not a json object")
		return types.Record{}, nil
	}
	return created, nil
}

// MergeLedgerWithGroups associates a ledger with its sub group and/or main group.
func (c *Client) MergeLedgerWithGroups(ctx context.Context, req types.MergeRequest) error {
	return c.do(ctx, "merge ledger", http.MethodPost, pathMerge, req, nil)
}

// DemergeLedger removes every group association of a ledger.
func (c *Client) DemergeLedger(ctx context.Context, ledgerCode string) error {
	return c.do(ctx, "demerge ledger", http.MethodPost, pathDemerge, types.DemergeRequest{LedgerCode: ledgerCode}, nil)
}

// GetConsolidationReport fetches the consolidation of one ledger. It returns
// nil without error when the backend knows no consolidation for it.
func (c *Client) GetConsolidationReport(ctx context.Context, ledgerCode string) (*ConsolidationReport, error) {
	var reports []ConsolidationReport
	path := pathReport + url.PathEscape(ledgerCode)
	if err := c.do(ctx, "consolidation report", http.MethodGet, path, nil, &reports); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}
	return &reports[0], nil
}

func (c *Client) list(ctx context.Context, op, path string) ([]types.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	records, err := decodeRecords(raw)
	if err != nil {
		return nil, &Error{Op: op, Method: http.MethodGet, Path: path, Status: http.StatusOK, Err: err}
	}
	return records, nil
}

// do sends one JSON request. A nil body sends no payload; a nil out
// discards the response body and a *[]byte out receives it undecoded.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	requestID := uuid.NewString()
	fail := func(status int, msg string, err error) error {
		return &Error{Op: op, Method: method, Path: path, Status: status, Message: msg, RequestID: requestID, Err: err}
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(0, "", fmt.Errorf("cannot encode request: %w", err))
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, payload)
	if err != nil {
		return fail(0, "", fmt.Errorf("cannot create http request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, "", fmt.Errorf("cannot execute http request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("cannot read http body: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"op":         op,
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"elapsed":    time.Since(start).String(),
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, serverMessage(data), nil)
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("cannot decode response json: %w", err))
	}
	return nil
}

// decodeRecords accepts either a bare JSON array or an object wrapping the
// array under "data".
func decodeRecords(raw json.RawMessage) ([]types.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []types.Record{}, nil
	}

	var records []types.Record
	if trimmed[0] == '{' {
		var envelope struct {
			Data []types.Record `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("cannot decode list json: %w", err)
		}
		records = envelope.Data
	} else if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("cannot decode list json: %w", err)
	}
	if records == nil {
		records = []types.Record{}
	}
	return records, nil
}

func linkFromRecord(rec types.Record) types.ConsolidationLink {
	status, err := types.ParseStatus(rec.String("status"))
	if err != nil {
		status = types.StatusInactive
	}
	serial, _ := strconv.Atoi(rec.String("serial_no"))
	return types.ConsolidationLink{
		SerialNo:      serial,
		LedgerCode:    rec.String("ledger_code"),
		SubGroupCode:  optional(rec.String("sub_group_code")),
		MainGroupCode: optional(rec.String("main_group_code")),
		Status:        status,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
