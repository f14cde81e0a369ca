// Package indexer pushes settlement events to an external indexing service.
//
// The publisher (Publisher) talks to the indexer's ingest API:
//   - Publish: POST /events — deliver one settlement event envelope
//
// Every request is rate-limited via a token bucket and automatically retried
// on 5xx errors. Delivery is best-effort: the clearinghouse never blocks on
// the indexer, and a failed delivery is logged and dropped rather than
// replayed (the indexer can rebuild from persisted ledger snapshots).
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"options-clearinghouse/pkg/types"
)

// Publisher delivers settlement events to the indexer ingest endpoint.
// It wraps a resty HTTP client with rate limiting and retry.
type Publisher struct {
	http   *resty.Client // HTTP client with retry + base URL
	rl     *TokenBucket  // ingest-endpoint rate limiting
	dryRun bool          // when true, Publish logs instead of calling HTTP
	logger *slog.Logger
}

// NewPublisher creates an event publisher with rate limiting and retry.
func NewPublisher(baseURL string, dryRun bool, logger *slog.Logger) *Publisher {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Publisher{
		http:   httpClient,
		rl:     NewTokenBucket(100, 20),
		dryRun: dryRun,
		logger: logger.With("component", "indexer"),
	}
}

// Publish delivers one event envelope to the indexer.
func (p *Publisher) Publish(ctx context.Context, evt types.Event) error {
	if p.dryRun {
		p.logger.Info("DRY-RUN: would publish event", "type", string(evt.Type))
		return nil
	}
	if err := p.rl.Wait(ctx); err != nil {
		return err
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(evt).
		Post("/events")
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("publish event: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Run pumps the settlement event stream into the indexer until the context
// is cancelled or the channel closes. Failed deliveries are logged and
// dropped.
func (p *Publisher) Run(ctx context.Context, events <-chan types.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := p.Publish(ctx, evt); err != nil {
				p.logger.Warn("event delivery failed", "type", string(evt.Type), "error", err)
			}
		}
	}
}
