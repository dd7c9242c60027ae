// Package opengov implements the client for the data.gov.in mandi price
// feed: a paginated JSON resource fetched with bounded retry and a fixed
// inter-page pause.
package opengov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/agrimatrix/mandi-prices/internal/config"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// Client fetches mandi price records from the data.gov.in resource endpoint.
// It holds no local state beyond configuration; every method is purely a
// function of the remote feed.
type Client struct {
	cfg        config.OpenGovConfig
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from the feed configuration.
func NewClient(cfg config.OpenGovConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "opengov"),
	}
}

// FetchPage fetches one page of records. Transport errors and non-2xx
// responses are retried up to the configured attempt count with a fixed
// delay; after exhaustion the last error is wrapped in a terminal
// *domain.FetchError.
func (c *Client) FetchPage(ctx context.Context, limit, offset int) (*Page, error) {
	var page *Page

	attempt := 0
	operation := func() error {
		attempt++
		c.log.DebugContext(ctx, "fetching page",
			slog.Int("offset", offset),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.cfg.RetryAttempts),
		)

		p, err := c.fetchPageOnce(ctx, limit, offset)
		if err != nil {
			c.log.WarnContext(ctx, "page fetch attempt failed",
				slog.Int("offset", offset),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return err
		}

		page = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.cfg.RetryDelay),
			uint64(c.cfg.RetryAttempts-1),
		),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		c.log.ErrorContext(ctx, "page fetch failed after all attempts",
			slog.Int("offset", offset),
			slog.String("error", err.Error()),
		)
		return nil, &domain.FetchError{Offset: offset, LastErr: err}
	}

	return page, nil
}

// fetchPageOnce performs a single request without retry.
func (c *Client) fetchPageOnce(ctx context.Context, limit, offset int) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("opengov: create request: %w", err)
	}

	q := url.Values{}
	q.Set("api-key", c.cfg.APIKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opengov: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("opengov: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("opengov: read body: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, fmt.Errorf("opengov: decode json: %w", err)
	}

	return &Page{
		Records:         api.Records,
		Total:           api.Total,
		SourceUpdatedAt: api.UpdatedDate,
	}, nil
}

// FetchAll fetches every page of the feed at advancing offsets. It stops when
// a page comes back short, empty, or the cumulative count reaches the
// reported total. Any page failure aborts the whole fetch: no partial result
// is ever returned. A fixed pause between successful pages bounds the
// request rate.
func (c *Client) FetchAll(ctx context.Context) (*FetchResult, error) {
	result := &FetchResult{}

	for offset := 0; ; offset += c.cfg.BatchSize {
		page, err := c.FetchPage(ctx, c.cfg.BatchSize, offset)
		if err != nil {
			return nil, err
		}

		result.Records = append(result.Records, page.Records...)
		result.Total = page.Total
		if page.SourceUpdatedAt != "" {
			result.SourceUpdatedAt = page.SourceUpdatedAt
		}

		c.log.InfoContext(ctx, "page fetched",
			slog.Int("offset", offset),
			slog.Int("count", len(page.Records)),
			slog.Int("fetched", len(result.Records)),
			slog.Int("total", page.Total),
		)

		if len(page.Records) == 0 || len(page.Records) < c.cfg.BatchSize {
			break
		}
		if result.Total > 0 && len(result.Records) >= result.Total {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PageDelay):
		}
	}

	return result, nil
}
