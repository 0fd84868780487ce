package meetup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"meetup_bot/internal/domain"
)

const (
	DefaultEndpoint = "https://api.meetup.com/gql"

	maxBodyBytes = 10 << 20
)

// Config holds GraphQL client configuration.
type Config struct {
	Endpoint     string
	ProNetworkID string
	Timeout      time.Duration
}

// Client issues the federated and per-group queries. It never retries;
// retry policy belongs to whoever polls.
type Client struct {
	httpClient   *http.Client
	endpoint     string
	proNetworkID string
	logger       *slog.Logger
}

// New creates a new Meetup GraphQL client.
func New(cfg Config, logger *slog.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient:   newHTTPClient(cfg.Timeout),
		endpoint:     endpoint,
		proNetworkID: cfg.ProNetworkID,
		logger:       logger.With("component", "meetup_client"),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// FetchFederated runs the "self" query covering every affiliated group.
func (c *Client) FetchFederated(ctx context.Context, token string) (domain.RawPayload, error) {
	vars := map[string]any{}
	if c.proNetworkID != "" {
		vars["id"] = c.proNetworkID
	}
	return c.do(ctx, token, graphQLRequest{Query: federatedQuery, Variables: vars})
}

// FetchBySource runs the groupByUrlname query for one unaffiliated group.
func (c *Client) FetchBySource(ctx context.Context, token, sourceID string) (domain.RawPayload, error) {
	return c.do(ctx, token, graphQLRequest{
		Query:     groupQuery,
		Variables: map[string]any{"urlname": sourceID},
	})
}

func (c *Client) do(ctx context.Context, token string, gql graphQLRequest) (domain.RawPayload, error) {
	body, err := json.Marshal(gql)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MeetupBot/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request: %w", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("graphql response",
		"status", resp.StatusCode,
		"variables", gql.Variables,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: unexpected status: %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrRemoteUnavailable, err)
	}

	// An expired token comes back as 200 with errors and no data.
	if errs := gjson.GetBytes(payload, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		if data := gjson.GetBytes(payload, "data"); !data.Exists() || data.Type == gjson.Null {
			return nil, fmt.Errorf("%w: graphql error: %s", domain.ErrRemoteUnavailable, errs.Get("0.message").String())
		}
	}

	return domain.RawPayload(payload), nil
}
