// Package registry is the HTTP client for the population registry.
//
// Person lookups are cached for a bounded TTL when a Cache is configured.
// Roster lookups are never cached: the roster is what tells a caseworker the
// registry has changed.
package registry

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
	"time"

	"grunnlag/pkg/platform/circuit"
	"grunnlag/pkg/platform/sentinel"
)

// Cache stores person lookups. Find returns sentinel.ErrNotFound on a miss.
type Cache interface {
	FindPerson(ctx context.Context, key PersonKey) (*PersonSvar, error)
	SavePerson(ctx context.Context, key PersonKey, svar *PersonSvar) error
}

// PersonKey identifies one cached person lookup.
type PersonKey struct {
	Fnr     string
	Rolle   string
	SakType string
}

func (k PersonKey) String() string {
	return k.SakType + ":" + k.Rolle + ":" + k.Fnr
}

// Client calls the registry over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	logger     *slog.Logger
	metrics    *Metrics
	breaker    *circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithCache(cache Cache) Option {
	return func(cl *Client) {
		cl.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// WithBreaker fails calls fast while the registry keeps failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

// NewClient creates a client for the registry at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HentPersongalleri fetches the registry roster around soeker. Returns nil,
// nil when the registry has no roster for the soeker.
func (c *Client) HentPersongalleri(ctx context.Context, soeker, sakType string, innsender *string) (*PersongalleriSvar, error) {
	var svar PersongalleriSvar
	err := c.post(ctx, "persongalleri", "/api/persongalleri", persongalleriForespoersel{
		Soeker:    soeker,
		SakType:   sakType,
		Innsender: innsender,
	}, &svar)
	if GetCategory(err) == ErrorNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &svar, nil
}

// HentPerson fetches the person document for fnr in rolle. A cache hit skips
// the registry; cache failures are logged and never fail the lookup.
func (c *Client) HentPerson(ctx context.Context, fnr, rolle, sakType string) (*PersonSvar, error) {
	key := PersonKey{Fnr: fnr, Rolle: rolle, SakType: sakType}
	if c.cache != nil {
		cached, err := c.cache.FindPerson(ctx, key)
		switch {
		case err == nil:
			c.metrics.IncCache("hit")
			return cached, nil
		case errors.Is(err, sentinel.ErrNotFound):
			c.metrics.IncCache("miss")
		default:
			c.metrics.IncCache("error")
			c.logger.WarnContext(ctx, "registry cache read failed", "error", err)
		}
	}

	var svar PersonSvar
	if err := c.post(ctx, "person", "/api/person", personForespoersel{Fnr: fnr, Rolle: rolle, SakType: sakType}, &svar); err != nil {
		return nil, err
	}
	if len(svar.Dokument) == 0 || !json.Valid(svar.Dokument) {
		return nil, NewProviderError(ErrorBadData, "person", "person document missing or invalid", nil)
	}
	if svar.Fnr == "" {
		svar.Fnr = fnr
	}
	if svar.Rolle == "" {
		svar.Rolle = rolle
	}

	if c.cache != nil {
		if err := c.cache.SavePerson(ctx, key, &svar); err != nil {
			c.logger.WarnContext(ctx, "registry cache write failed", "error", err)
		}
	}
	return &svar, nil
}

// Health calls the registry's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/internal/isalive", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewProviderError(categoryForTransport(err), "health", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewProviderError(categoryForStatus(resp.StatusCode), "health", resp.Status, nil)
	}
	return nil
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	if c.breaker != nil && !c.breaker.Allow() {
		err := NewProviderError(ErrorProviderOutage, operation, "circuit open", nil)
		c.metrics.ObserveRequest(operation, ErrorProviderOutage, false, 0)
		return err
	}
	start := time.Now()
	err := c.doPost(ctx, operation, path, body, out)
	c.metrics.ObserveRequest(operation, GetCategory(err), err == nil, time.Since(start))
	c.recordOutcome(ctx, err)
	return err
}

// recordOutcome feeds the breaker. Only retryable failures count against the
// registry; an answer such as not found means it is up.
func (c *Client) recordOutcome(ctx context.Context, err error) {
	if c.breaker == nil {
		return
	}
	if err != nil && IsRetryable(err) {
		if c.breaker.RecordFailure() {
			c.logger.WarnContext(ctx, "registry circuit opened", "breaker", c.breaker.Name(), "error", err)
		}
		return
	}
	if c.breaker.RecordSuccess() {
		c.logger.InfoContext(ctx, "registry circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *Client) doPost(ctx context.Context, operation, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewProviderError(ErrorInternal, operation, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewProviderError(ErrorInternal, operation, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewProviderError(categoryForTransport(err), operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewProviderError(categoryForStatus(resp.StatusCode), operation,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), errors.New(strings.TrimSpace(string(snippet))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(ErrorBadData, operation, "decode response", err)
	}
	return nil
}
