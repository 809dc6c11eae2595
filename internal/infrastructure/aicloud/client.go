// Package aicloud is the HTTP adapter for the remote AI service. It performs
// no retries of its own: every failure surfaces as a typed error and the next
// wake-up decides what to do.
package aicloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"threadmind/internal/domain/tenant"
	"threadmind/internal/shared/config"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

// RegistrationResult is the payload of a successful tenant registration.
type RegistrationResult struct {
	APIKey       string `json:"api_key"`
	TenantID     string `json:"tenant_id"`
	Subscription struct {
		Status       string `json:"status"`
		Plan         string `json:"plan"`
		CreditsTotal int    `json:"credits_total"`
	} `json:"subscription"`
}

// SubmitResult reports what the embedding endpoint actually charged for one
// item. Charges are per item so partial batch failures stay billable.
type SubmitResult struct {
	CreditsConsumed int `json:"credits_consumed"`
	ChunksIndexed   int `json:"chunks_indexed"`
}

// GenerationRequest asks the cloud to produce one piece of content.
type GenerationRequest struct {
	TaskType string   `json:"task_type"`
	ForumIDs []uint   `json:"forum_ids,omitempty"`
	Style    string   `json:"style,omitempty"`
	Tone     string   `json:"tone,omitempty"`
	Quality  string   `json:"quality,omitempty"`
	Context  []string `json:"context,omitempty"`
}

// GenerationResult is one generated piece of content plus its cost.
type GenerationResult struct {
	Title           string `json:"title,omitempty"`
	Body            string `json:"body"`
	CreditsConsumed int    `json:"credits_consumed"`
}

// SubmitPayload is one item's embedding submission.
type SubmitPayload struct {
	ItemID         uint     `json:"item_id"`
	Chunks         []string `json:"chunks"`
	HasImage       bool     `json:"has_image"`
	IndexImage     bool     `json:"index_image"`
	ContentHash    string   `json:"content_hash"`
	ChunkSize      int      `json:"chunk_size"`
	OverlapPercent int      `json:"overlap_percent"`
}

// ForumIndexCount is the per-forum indexed item count from the cloud side.
type ForumIndexCount struct {
	ForumID uint `json:"forum_id"`
	Indexed int  `json:"indexed"`
}

// Client talks to the AI cloud. The API key is supplied per call because it
// lives encrypted at rest and is only decrypted at the call boundary.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Interface
}

func NewClient(cfg *config.AICloudConfig, log logger.Interface) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  log,
	}
}

// RegisterTenant creates the tenant on the cloud side.
func (c *Client) RegisterTenant(ctx context.Context, siteURL, contactEmail string) (*RegistrationResult, error) {
	body := map[string]string{"site_url": siteURL, "contact_email": contactEmail}
	var out RegistrationResult
	if err := c.do(ctx, http.MethodPost, "/tenants", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus fetches the authoritative account status.
func (c *Client) GetStatus(ctx context.Context, apiKey, tenantID string) (*tenant.AccountStatus, error) {
	var out struct {
		TenantID         string   `json:"tenant_id"`
		Status           string   `json:"status"`
		Plan             string   `json:"plan"`
		CreditsRemaining int      `json:"credits_remaining"`
		CreditsTotal     int      `json:"credits_total"`
		Features         []string `json:"features"`
	}
	if err := c.do(ctx, http.MethodGet, "/tenants/"+tenantID, apiKey, nil, &out); err != nil {
		return nil, err
	}
	return &tenant.AccountStatus{
		TenantID:         out.TenantID,
		Status:           tenant.SubscriptionStatus(out.Status),
		Plan:             tenant.Plan(out.Plan),
		CreditsRemaining: out.CreditsRemaining,
		CreditsTotal:     out.CreditsTotal,
		Features:         out.Features,
	}, nil
}

// Disconnect tells the cloud the installation is detaching.
func (c *Client) Disconnect(ctx context.Context, apiKey, tenantID, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/tenants/"+tenantID+"/disconnect", apiKey, body, nil)
}

// SubmitItem submits one item's chunks for embedding.
func (c *Client) SubmitItem(ctx context.Context, apiKey string, payload SubmitPayload) (*SubmitResult, error) {
	var out SubmitResult
	if err := c.do(ctx, http.MethodPost, "/index/items", apiKey, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearAll wipes the cloud-side vector index for this tenant.
func (c *Client) ClearAll(ctx context.Context, apiKey string) error {
	return c.do(ctx, http.MethodDelete, "/index", apiKey, nil, nil)
}

// IndexedCountsByForum returns the cloud's view of what is indexed.
func (c *Client) IndexedCountsByForum(ctx context.Context, apiKey string) ([]ForumIndexCount, error) {
	var out []ForumIndexCount
	if err := c.do(ctx, http.MethodGet, "/index/counts", apiKey, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateContent asks the cloud for one generated topic/reply/tag set.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, req GenerationRequest) (*GenerationResult, error) {
	var out GenerationResult
	if err := c.do(ctx, http.MethodPost, "/generate", apiKey, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, apiKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request body").WithCause(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewInternalError("failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnw("ai cloud request failed", "method", method, "path", path, "error", err)
		return apperrors.NewTransportError("AI cloud request failed").WithCause(err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("ai cloud request",
		"method", method, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewTransportError("failed to decode AI cloud response").WithCause(err)
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &payload)
	msg := payload.Message
	if msg == "" {
		msg = fmt.Sprintf("AI cloud returned status %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewAuthError(msg)
	case http.StatusPaymentRequired:
		return apperrors.NewInsufficientCreditsError(msg)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(msg)
	default:
		return apperrors.NewTransportError(msg)
	}
}
