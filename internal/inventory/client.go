package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"medrestock/internal/config"
	"medrestock/internal/domain"
)

const maxErrorBody = 4 << 10

// Client talks JSON to the inventory service. Every call goes through one
// circuit breaker; rejections (4xx) do not count against it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*response]
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

type response struct {
	status int
	body   []byte
}

func New(cfg config.InventoryConfig, bcfg config.BreakerConfig, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "inventory",
		MaxRequests: bcfg.MaxRequests,
		Interval:    bcfg.Interval,
		Timeout:     bcfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bcfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			var rej *RemoteRejection
			return err == nil || errors.As(err, &rej) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// BreakerState reports the breaker state for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) LowStockMedications(ctx context.Context) ([]domain.Medication, error) {
	var out []domain.Medication
	if err := c.do(ctx, "list low-stock medications", http.MethodGet, "/medications/low-stock", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RestockOrders(ctx context.Context) ([]domain.RestockOrder, error) {
	var out []domain.RestockOrder
	if err := c.do(ctx, "list restock orders", http.MethodGet, "/restock-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRestockOrder(ctx context.Context, o domain.RestockOrder) (*domain.RestockOrder, error) {
	var out domain.RestockOrder
	if err := c.do(ctx, "create restock order", http.MethodPost, "/restock-orders", o, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type completePatch struct {
	ID          string             `json:"id"`
	IsDelivered bool               `json:"isDelivered"`
	Status      domain.OrderStatus `json:"status"`
}

// CompleteRestockOrder sends the whole transition in one request so status
// and isDelivered never diverge on the server.
func (c *Client) CompleteRestockOrder(ctx context.Context, id string) (*domain.RestockOrder, error) {
	patch := completePatch{ID: id, IsDelivered: true, Status: domain.OrderStatusCompleted}
	var out domain.RestockOrder
	path := "/restock-orders/" + url.PathEscape(id)
	if err := c.do(ctx, "complete restock order", http.MethodPatch, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		payload = b
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, op, method, path, payload)
	})
	if err != nil {
		var rej *RemoteRejection
		if errors.As(err, &rej) {
			c.logger.Debug("inventory rejected request",
				zap.String("op", op),
				zap.Int("status", rej.StatusCode),
				zap.String("message", rej.Message),
			)
			return rej
		}
		var te *TransportError
		if !errors.As(err, &te) {
			// open or half-open breaker
			te = &TransportError{Op: op, Err: err}
		}
		c.logger.Warn("inventory request failed",
			zap.String("op", op),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return te
	}

	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload []byte) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case res.StatusCode >= 500:
		return nil, &TransportError{Op: op, Err: fmt.Errorf("status %d: %s", res.StatusCode, errorMessage(res.StatusCode, data))}
	case res.StatusCode >= 300:
		return nil, &RemoteRejection{Op: op, StatusCode: res.StatusCode, Message: errorMessage(res.StatusCode, data)}
	}
	return &response{status: res.StatusCode, body: data}, nil
}

// errorMessage pulls {"error": "..."} out of a failed response, falling back
// to the raw body and then the status text.
func errorMessage(status int, body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(status)
}
