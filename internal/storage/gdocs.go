package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

// DefaultDocsURL is the Google Docs API endpoint.
const DefaultDocsURL = "https://docs.googleapis.com"

// GoogleDocsOptions configures the Google Docs client.
type GoogleDocsOptions struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	MaxBackoff time.Duration
	Logger     *slog.Logger
}

// GoogleDocs talks to the Google Docs REST API with a static bearer token.
// Rate-limited calls (HTTP 429) are retried with exponential backoff.
type GoogleDocs struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	maxBackoff time.Duration
	log        *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

var _ Provider = (*GoogleDocs)(nil)

// NewGoogleDocs creates a client.
func NewGoogleDocs(opts GoogleDocsOptions) *GoogleDocs {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultDocsURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &GoogleDocs{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		maxBackoff: opts.MaxBackoff,
		log:        opts.Logger,
		sleep:      sleepContext,
	}
}

// LoadToken returns accessToken, or reads the token from tokenFile: a
// JSON object with a "token" or "access_token" key.
func LoadToken(accessToken, tokenFile string) (string, error) {
	if accessToken != "" {
		return accessToken, nil
	}
	if tokenFile == "" {
		return "", fmt.Errorf("storage: no access token or token file configured")
	}
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("storage: read token file: %w", err)
	}
	var tok struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("storage: decode token file: %w", err)
	}
	if tok.Token != "" {
		return tok.Token, nil
	}
	if tok.AccessToken != "" {
		return tok.AccessToken, nil
	}
	return "", fmt.Errorf("storage: token file %s has no token", tokenFile)
}

// Get fetches a document.
func (c *GoogleDocs) Get(ctx context.Context, docID string) (*models.Document, error) {
	var doc models.Document
	if err := c.call(ctx, http.MethodGet, c.docURL(docID, ""), nil, &doc); err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", docID, err)
	}
	return &doc, nil
}

// BatchUpdate sends a batchUpdate request.
func (c *GoogleDocs) BatchUpdate(ctx context.Context, docID string, req models.BatchUpdateRequest) (*models.BatchUpdateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal batch: %w", err)
	}
	var resp models.BatchUpdateResponse
	if err := c.call(ctx, http.MethodPost, c.docURL(docID, ":batchUpdate"), body, &resp); err != nil {
		return nil, fmt.Errorf("storage: batch update %s: %w", docID, err)
	}
	return &resp, nil
}

func (c *GoogleDocs) docURL(docID, suffix string) string {
	return c.baseURL + "/v1/documents/" + url.PathEscape(docID) + suffix
}

// call performs one API call, retrying while the server rate-limits us.
func (c *GoogleDocs) call(ctx context.Context, method, u string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		err := c.do(ctx, method, u, body, out)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= c.maxRetries {
			return fmt.Errorf("%w after %d retries: %v", apperr.ErrRateLimited, attempt, err)
		}
		wait := Backoff(attempt, c.maxBackoff)
		c.log.Warn("rate limited, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", c.maxRetries),
			slog.String("wait", wait.String()),
			slog.Int("status", http.StatusTooManyRequests),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *GoogleDocs) do(ctx context.Context, method, u string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := string(respBody)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return &RetryableError{StatusCode: resp.StatusCode, Message: msg}
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("status %d: %s: %w", resp.StatusCode, msg, apperr.ErrNotFound)
		case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "revision"):
			return fmt.Errorf("status %d: %s: %w", resp.StatusCode, msg, apperr.ErrConflict)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
