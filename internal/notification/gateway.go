// File: internal/notification/gateway.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the network boundary to the remote authoritative store. Every
// call is idempotent: fetches are pure reads, mark-read variants only ever
// set read=true, so out-of-order completion of concurrent calls is safe.
type Gateway interface {
	Fetch(ctx context.Context, ownerID uuid.UUID, forceRefresh bool) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []Category) error
	MarkScopedRead(ctx context.Context, subjectType SubjectType, subjectID uuid.UUID, categories []Category) (int64, error)
	// FetchBadgeCounts queries the canonical aggregate endpoint. This is the
	// only valid source for badge values; local counts are display-only.
	FetchBadgeCounts(ctx context.Context, ownerID uuid.UUID) (map[Surface]int, error)
}

// HTTPGateway implements Gateway against the remote store's REST API.
type HTTPGateway struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPGateway creates a new HTTP gateway.
func NewHTTPGateway(baseURL, apiToken string, timeout time.Duration, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("HTTPGateway"),
	}
}

// transientError marks a failure worth retrying (transport error or 5xx).
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (g *HTTPGateway) Fetch(ctx context.Context, ownerID uuid.UUID, forceRefresh bool) ([]Notification, error) {
	q := url.Values{}
	q.Set("owner_id", ownerID.String())
	if forceRefresh {
		q.Set("force", "true")
	}

	var payload struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := g.do(ctx, http.MethodGet, "/notifications?"+q.Encode(), nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch notifications for owner %s: %w", ownerID, err)
	}
	return payload.Notifications, nil
}

func (g *HTTPGateway) MarkRead(ctx context.Context, id uuid.UUID) error {
	path := fmt.Sprintf("/notifications/%s/read", id)
	if err := g.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}

func (g *HTTPGateway) MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []Category) error {
	body := map[string]interface{}{
		"owner_id":             ownerID,
		"excluding_categories": excluding,
	}
	if err := g.do(ctx, http.MethodPost, "/notifications/read-all", body, nil); err != nil {
		return fmt.Errorf("failed to mark all notifications read for owner %s: %w", ownerID, err)
	}
	return nil
}

func (g *HTTPGateway) MarkScopedRead(ctx context.Context, subjectType SubjectType, subjectID uuid.UUID, categories []Category) (int64, error) {
	body := map[string]interface{}{
		"subject_type": subjectType,
		"subject_id":   subjectID,
		"categories":   categories,
	}
	var payload struct {
		AffectedCount int64 `json:"affected_count"`
	}
	if err := g.do(ctx, http.MethodPost, "/notifications/read-scoped", body, &payload); err != nil {
		return 0, fmt.Errorf("failed to mark scoped notifications read for %s %s: %w", subjectType, subjectID, err)
	}
	return payload.AffectedCount, nil
}

func (g *HTTPGateway) FetchBadgeCounts(ctx context.Context, ownerID uuid.UUID) (map[Surface]int, error) {
	q := url.Values{}
	q.Set("owner_id", ownerID.String())

	var payload struct {
		Counts map[Surface]int `json:"counts"`
	}
	if err := g.do(ctx, http.MethodGet, "/notifications/badge-counts?"+q.Encode(), nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch badge counts for owner %s: %w", ownerID, err)
	}
	return payload.Counts, nil
}

// do issues a single API call with exponential backoff on transient failures.
// 4xx responses are permanent and returned immediately.
func (g *HTTPGateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	operation := func() error {
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if g.apiToken != "" {
			req.Header.Set("Authorization", "Bearer "+g.apiToken)
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return &transientError{err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &transientError{err: fmt.Errorf("remote store returned %s", resp.Status)}
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("remote store rejected request: %s", resp.Status))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		g.logger.Warn("Transient remote store failure, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("next_attempt_in", next),
			zap.Error(err),
		)
	})
	return err
}
