package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LineItem is one manifest entry. UnitAmount is in minor currency units.
type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

type SessionRequest struct {
	LineItems         []LineItem `json:"line_items"`
	Currency          string     `json:"currency"`
	SuccessURL        string     `json:"success_url"`
	CancelURL         string     `json:"cancel_url"`
	ClientReferenceID string     `json:"client_reference_id"`
}

// Session is the hosted checkout page created by the provider.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client creates hosted checkout sessions. Calls go through a circuit
// breaker and are never retried.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuitbreaker.Breaker[*Session]
	log     *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[*Session](circuitbreaker.DefaultSettings("checkout-collaborator"), log),
		log:     log,
	}
}

// CreateSession asks the collaborator for a hosted checkout page. Every
// failure is reported as domain.ErrCheckoutUnavailable.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	session, err := c.breaker.Execute(func() (*Session, error) {
		return c.createSession(ctx, req)
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			c.log.WarnContext(ctx, "checkout collaborator circuit open", "error", err)
		} else {
			c.log.ErrorContext(ctx, "checkout collaborator call failed", "error", err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCheckoutUnavailable, err)
	}
	return session, nil
}

func (c *Client) createSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("response without session id or url")
	}
	return &session, nil
}

// MinorUnits converts a decimal amount to cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
