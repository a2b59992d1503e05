package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

// Client talks to the platform's callable functions. The platform is opaque:
// payloads go out as {"data": ...}, results come back as {"result": ...} and
// error messages are surfaced verbatim to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type callableError struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type callableEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *callableError  `json:"error"`
}

// call invokes one named function. out may be nil when the result is ignored.
func (c *Client) call(ctx context.Context, name string, payload, out any) error {
	body, err := json.Marshal(map[string]any{"data": payload})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("call %s: read response: %w", name, err)
	}

	var envelope callableEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("call %s: unexpected response (status %d)", name, resp.StatusCode)
	}
	if envelope.Error != nil {
		return errors.New(envelope.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call %s: status %d", name, resp.StatusCode)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("call %s: decode result: %w", name, err)
		}
	}
	return nil
}

type OrderItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"priceCents"`
}

type Pickup struct {
	MallID string `json:"mallId,omitempty"`
	Table  string `json:"table,omitempty"`
}

type Payment struct {
	Method   string `json:"method"`
	IntentID string `json:"intentId,omitempty"`
	CardID   string `json:"cardId,omitempty"`
}

type CreateOrderInput struct {
	UID           string      `json:"uid"`
	Nome          string      `json:"nome,omitempty"`
	StoreID       string      `json:"storeId"`
	Items         []OrderItem `json:"items"`
	SubtotalCents int64       `json:"subtotalCents"`
	TotalCents    int64       `json:"totalCents"`
	Pickup        Pickup      `json:"pickup"`
	Payment       Payment     `json:"payment"`
}

// CreateOrder creates an order upstream and returns its key.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (string, error) {
	var result struct {
		OrderID string `json:"orderId"`
	}
	if err := c.call(ctx, "createOrder", in, &result); err != nil {
		return "", err
	}
	if result.OrderID == "" {
		return "", errors.New("order created without an id")
	}
	return result.OrderID, nil
}

// MallInfo is the venue record behind a store, used by the bypass table path.
type MallInfo struct {
	MallID  string `json:"mallId"`
	StoreID string `json:"storeId"`
	Name    string `json:"name,omitempty"`
}

// MallLookup resolves the parent venue of a store.
func (c *Client) MallLookup(ctx context.Context, storeID string) (MallInfo, error) {
	var result MallInfo
	err := c.call(ctx, "mallLookup", map[string]string{"storeId": storeID}, &result)
	return result, err
}

// CatalogFeed fetches the raw stores document. The shape varies by upstream
// vintage (flat array, keyed map, nested categories); the catalog package
// normalizes it.
func (c *Client) CatalogFeed(ctx context.Context) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.call(ctx, "catalogFeed", map[string]string{}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MenuFeed fetches one store's raw menu document, same caveats as CatalogFeed.
func (c *Client) MenuFeed(ctx context.Context, storeID string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.call(ctx, "menuFeed", map[string]string{"storeId": storeID}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListCards returns the user's saved card metadata. Never PAN or CVV.
func (c *Client) ListCards(ctx context.Context, uid string) ([]domain.UserCard, error) {
	var result struct {
		Cards []domain.UserCard `json:"cards"`
	}
	if err := c.call(ctx, "listCards", map[string]string{"uid": uid}, &result); err != nil {
		return nil, err
	}
	return result.Cards, nil
}

// UpsertProfile is a best-effort side-channel sync: failures are logged,
// never surfaced, and the primary flow does not depend on it.
func (c *Client) UpsertProfile(ctx context.Context, uid, nome string) {
	err := c.call(ctx, "upsertProfile", map[string]string{"uid": uid, "nome": nome}, nil)
	if err != nil && c.logger != nil {
		c.logger.Printf("backend: profile sync failed for %s: %v", uid, err)
	}
}
