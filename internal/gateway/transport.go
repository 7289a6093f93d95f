package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is GitHub's GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

const userAgent = "gh-summary-bot/1.0"

// Transport issues a single authenticated GraphQL request per call and
// classifies failures into the typed taxonomy in errors.go. On every
// response, success or not, it forwards the observed rate-limit state to
// the shared Tracker.
type Transport struct {
	endpoint   string
	httpClient *http.Client
	tracker    *Tracker
	logger     logrus.FieldLogger
}

// NewTransport builds a Transport with a bearer-token HTTP client.
func NewTransport(endpoint, token string, timeout time.Duration, tracker *Tracker, logger logrus.FieldLogger) *Transport {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: ts},
	}
	return &Transport{
		endpoint:   endpoint,
		httpClient: httpClient,
		tracker:    tracker,
		logger:     logger,
	}
}

// envelope is the GraphQL response wire format.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// rateLimitField mirrors the rateLimit block requested alongside every
// query.
type rateLimitField struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	ResetAt   time.Time `json:"resetAt"`
}

// Execute posts one GraphQL request and returns the raw data payload.
func (t *Transport) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github.v4+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	t.observeHeaders(resp.Header)

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &MalformedError{Err: fmt.Errorf("decoding envelope: %w", err)}
	}

	t.observeExtension(env.Data)

	if len(env.Errors) > 0 {
		sem := &SemanticError{Errors: env.Errors}
		if sem.HasType("RATE_LIMITED") {
			rl, _ := t.tracker.Snapshot()
			return nil, &RateLimitError{ResetAt: rl.ResetAt, Message: sem.Error()}
		}
		return nil, sem
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &MalformedError{Err: fmt.Errorf("response carried neither data nor errors")}
	}
	return env.Data, nil
}

// classifyStatus maps HTTP statuses onto the failure taxonomy. 403 is
// authentication unless the headers point at an exhausted budget.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Status: resp.StatusCode, Message: "check your token"}
	case resp.StatusCode == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return &RateLimitError{
				ResetAt: resetFromHeader(resp.Header),
				Message: "primary rate limit exhausted",
			}
		}
		return &AuthError{Status: resp.StatusCode, Message: "token lacks required scopes"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			ResetAt: resetFromHeader(resp.Header),
			Message: "too many requests",
		}
	case resp.StatusCode >= 500:
		return &TransientError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("server error"),
		}
	default:
		return &MalformedError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

// observeHeaders feeds the X-RateLimit-* headers into the tracker.
func (t *Transport) observeHeaders(h http.Header) {
	limit, err := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	if err != nil {
		return
	}
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	used, _ := strconv.Atoi(h.Get("X-RateLimit-Used"))
	t.tracker.Observe(RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Used:      used,
		ResetAt:   resetFromHeader(h),
	})
	t.logger.WithFields(logrus.Fields{
		"remaining": remaining,
		"limit":     limit,
	}).Debug("rate limit updated from headers")
}

// observeExtension feeds the rateLimit query field into the tracker. The
// field wins over headers because it reflects the GraphQL point budget.
func (t *Transport) observeExtension(data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var probe struct {
		RateLimit *rateLimitField `json:"rateLimit"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.RateLimit == nil {
		return
	}
	t.tracker.Observe(RateLimit{
		Limit:     probe.RateLimit.Limit,
		Remaining: probe.RateLimit.Remaining,
		Used:      probe.RateLimit.Used,
		ResetAt:   probe.RateLimit.ResetAt,
	})
	t.logger.WithFields(logrus.Fields{
		"remaining": probe.RateLimit.Remaining,
		"limit":     probe.RateLimit.Limit,
	}).Debug("rate limit updated from query extension")
}

func resetFromHeader(h http.Header) time.Time {
	epoch, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil || epoch == 0 {
		return time.Time{}
	}
	return time.Unix(epoch, 0).UTC()
}
