package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"
)

const userAgent = "crmsync/1.0"

// HTTPClient is the HTTP adapter behind the Client interface. The token is
// the integration's decrypted API credential, resolved once at run start.
type HTTPClient struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
	token   string
}

func NewHTTPClient(baseURL, token string, log *slog.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &HTTPClient{
		client:  client,
		log:     log.With(slog.String("component", "crm_client")),
		baseURL: baseURL,
		token:   token,
	}
}

func (h *HTTPClient) Count(ctx context.Context, entityType string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	path := fmt.Sprintf("/api/v1/%s/count", url.PathEscape(entityType))
	if err := h.get(ctx, path, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (h *HTTPClient) FetchPage(ctx context.Context, entityType string, page, pageSize int) ([]Record, error) {
	var out struct {
		Records []Record `json:"records"`
	}
	path := fmt.Sprintf("/api/v1/%s?page=%d&limit=%d", url.PathEscape(entityType), page, pageSize)
	if err := h.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

func (h *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("CRM unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode CRM response: %w", err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
