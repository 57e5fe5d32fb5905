package billing

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

	"github.com/hashicorp/go-retryablehttp"

	"readiq.app/api/core/config"
	"readiq.app/api/internal/model"
)

var ErrNotConfigured = errors.New("billing provider not configured")

// Client talks to the billing provider (Autumn).
type Client interface {
	CheckFeatureUsage(ctx context.Context, customerID, featureID string) (*model.FeatureUsage, error)
	Attach(ctx context.Context, in AttachInput) (*AttachResult, error)
}

type AttachInput struct {
	CustomerID string
	ProductID  string
	SuccessURL string
}

type AttachResult struct {
	CheckoutURL string `json:"checkout_url"`
	CustomerID  string `json:"customer_id"`
	ProductID   string `json:"product_id"`
}

type autumnClient struct {
	baseURL   string
	secretKey string
	checks    *retryablehttp.Client
	attaches  *retryablehttp.Client
}

func NewClient(cfg config.BillingConfig) Client {
	return &autumnClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		checks:    newHTTPClient(cfg, 0),
		attaches:  newHTTPClient(cfg, cfg.MaxRetries),
	}
}

func newHTTPClient(cfg config.BillingConfig, retries int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.HTTPClient.Timeout = cfg.Timeout
	c.Logger = slog.Default().With("component", "readiq.billing")
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

type checkRequest struct {
	CustomerID string `json:"customer_id"`
	FeatureID  string `json:"feature_id"`
}

func (c *autumnClient) CheckFeatureUsage(ctx context.Context, customerID, featureID string) (*model.FeatureUsage, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}

	var usage model.FeatureUsage
	if err := c.post(ctx, c.checks, "/v1/check", checkRequest{CustomerID: customerID, FeatureID: featureID}, &usage); err != nil {
		return nil, fmt.Errorf("checking feature usage: %w", err)
	}
	return &usage, nil
}

type attachRequest struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	SuccessURL string `json:"success_url,omitempty"`
}

func (c *autumnClient) Attach(ctx context.Context, in AttachInput) (*AttachResult, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}

	var result AttachResult
	err := c.post(ctx, c.attaches, "/v1/attach", attachRequest{
		CustomerID: in.CustomerID,
		ProductID:  in.ProductID,
		SuccessURL: in.SuccessURL,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("attaching product: %w", err)
	}
	return &result, nil
}

func (c *autumnClient) post(ctx context.Context, client *retryablehttp.Client, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("billing provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
