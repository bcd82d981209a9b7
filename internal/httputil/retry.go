// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying HTTP round trip shared by the
// backend client.
package httputil

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 3

// Policy configures DoWithRetry.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero selects the default (3); a negative value disables retries.
	MaxRetries int

	// Transient also retries transport errors and 502/503/504 responses.
	// HTTP 429 is always retried.
	Transient bool

	// Logger receives one debug entry per retry. Nil disables logging.
	Logger *zap.Logger
}

// DoWithRetry executes an HTTP request and retries with exponential
// backoff. The delay starts at RetryBaseDelay and doubles each attempt.
//
// Requests with a body must be replayable (http.NewRequest sets GetBody for
// bytes and strings readers). On each retried response the body is drained
// and closed before sleeping. If the context is cancelled during a backoff
// wait the function returns ctx.Err(). After exhausting retries the last
// response, or the last transport error, is returned.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	maxRetries := p.MaxRetries
	switch {
	case maxRetries < 0:
		maxRetries = 0
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			if !p.Transient || attempt >= maxRetries || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil, err
			}
		} else {
			if !retryable(resp.StatusCode, p.Transient) || attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		fields := []zap.Field{
			zap.String("url", req.URL.String()),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else {
			fields = append(fields, zap.Int("status", resp.StatusCode))
		}
		logger.Debug("retrying request", fields...)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int, transient bool) bool {
	switch status {
	case http.StatusTooManyRequests:
		return true
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return transient
	default:
		return false
	}
}
