package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/goker-dev/ledger/pkg/retrier"
)

// maxItemsPerRequest is the hard page size of the Hyperliquid info API.
const maxItemsPerRequest = 500

// ErrUpstream marks a failed Hyperliquid info request. The web layer maps it
// to a gateway error.
var ErrUpstream = errors.New("hyperliquid info request failed")

// InfoClient is a client for the Hyperliquid /info POST endpoint. History
// requests are paginated internally; callers always receive the fully
// materialized, time-ascending list. Records stay raw (map[string]any) so the
// normalizer decides what is well-formed.
type InfoClient struct {
	httpClient *http.Client
	baseURL    string
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewInfoClient creates a new InfoClient instance.
func NewInfoClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...retrier.Option) *InfoClient {
	return &InfoClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		retrier:    retrier.New(opts...),
		logger:     logger,
	}
}

// Fills returns all trade fills for a wallet from since (milliseconds, 0 for
// all history) to now.
func (c *InfoClient) Fills(ctx context.Context, wallet string, since int64) ([]map[string]any, error) {
	return c.fetchPaginated(ctx, "userFills", wallet, since)
}

// Funding returns all funding payments for a wallet from since to now.
func (c *InfoClient) Funding(ctx context.Context, wallet string, since int64) ([]map[string]any, error) {
	return c.fetchPaginated(ctx, "userFunding", wallet, since)
}

// UserState returns the current clearinghouse state snapshot for a wallet
// (open positions with exchange-reported unrealized PnL).
func (c *InfoClient) UserState(ctx context.Context, wallet string) (map[string]any, error) {
	var state map[string]any
	err := c.post(ctx, map[string]any{"type": "clearinghouseState", "user": wallet}, &state)
	return state, err
}

// AllMids returns the current mid price for every listed asset.
func (c *InfoClient) AllMids(ctx context.Context) (map[string]any, error) {
	var mids map[string]any
	err := c.post(ctx, map[string]any{"type": "allMids"}, &mids)
	return mids, err
}

// fetchPaginated walks pages sequentially: each page's lower bound is the
// previous page's last timestamp + 1, so the boundary record is not fetched
// twice. A page shorter than the page size is the last one.
func (c *InfoClient) fetchPaginated(ctx context.Context, requestType, wallet string, since int64) ([]map[string]any, error) {
	var all []map[string]any
	startTime := since

	for {
		payload := map[string]any{"type": requestType, "user": wallet}
		if startTime > 0 {
			payload["startTime"] = startTime
		}

		var page []map[string]any
		if err := c.post(ctx, payload, &page); err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		lastTimestamp, tsErr := cast.ToInt64E(page[len(page)-1]["time"])
		all = append(all, page...)

		if len(page) < maxItemsPerRequest {
			break
		}
		if tsErr != nil {
			break
		}
		startTime = lastTimestamp + 1
	}

	c.logger.Debug("fetched paginated records",
		zap.String("type", requestType),
		zap.Int("count", len(all)))

	return all, nil
}

// post sends one info request, retrying transport failures and server errors
// with backoff. Client errors (4xx) are not retried.
func (c *InfoClient) post(ctx context.Context, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal info request")
	}

	return c.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return retrier.Permanent(errors.Wrap(err, "build info request"))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(ErrUpstream, err.Error())
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			text, _ := io.ReadAll(resp.Body)
			wrapped := errors.Wrapf(ErrUpstream, "status %d: %s", resp.StatusCode, string(text))
			if resp.StatusCode >= http.StatusInternalServerError {
				return wrapped
			}
			return retrier.Permanent(wrapped)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retrier.Permanent(errors.Wrap(ErrUpstream, err.Error()))
		}
		return nil
	})
}
