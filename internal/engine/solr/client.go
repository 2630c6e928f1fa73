// Package solr implements the SearchEngine interface against a Solr query
// endpoint using the JSON request API.
package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/loziogigio/vinc-pim-sub001/internal/engine"
	"github.com/loziogigio/vinc-pim-sub001/pkg/httpclient"
)

// Config holds Solr client configuration.
type Config struct {
	// BaseURL is the Solr root, e.g. http://localhost:8983/solr.
	BaseURL string
	// CorePrefix is prepended to the tenant id to form the core name,
	// e.g. prefix "catalog" + tenant "acme" -> core "catalog_acme".
	CorePrefix string
}

// Client talks to Solr over the retrying, circuit-broken HTTP client.
type Client struct {
	http   *httpclient.CircuitBreakerClient
	cfg    Config
	logger *slog.Logger
}

var _ engine.SearchEngine = (*Client)(nil)

// New creates a Solr client.
func New(cfg Config, logger *slog.Logger) *Client {
	base := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("solr"), logger)

	return &Client{
		http:   cb,
		cfg:    cfg,
		logger: logger,
	}
}

// coreName maps a tenant id to its Solr core.
func (c *Client) coreName(tenant string) string {
	if c.cfg.CorePrefix == "" {
		return tenant
	}
	return c.cfg.CorePrefix + "_" + tenant
}

// Search posts the compiled query to the tenant's core and decodes the raw
// response. Any transport failure or non-2xx status is returned as an
// *engine.Error.
func (c *Client) Search(ctx context.Context, tenant string, q *engine.Query) (*engine.Response, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("solr: marshal query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/query", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.coreName(tenant)))

	resp, err := c.http.Post(ctx, endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, &engine.Error{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		c.logger.ErrorContext(ctx, "solr query failed",
			slog.String("tenant", tenant),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &engine.Error{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out engine.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &engine.Error{Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.DebugContext(ctx, "solr query executed",
		slog.String("tenant", tenant),
		slog.Int("status", resp.StatusCode),
	)

	return &out, nil
}

// Ping checks that the Solr node answers on its admin ping handler.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/admin/info/system?wt=json"

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("solr ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("solr ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}
