// Package kvutil provides helpers for NATS JetStream KeyValue buckets.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/tether/internal/backoff"
)

const defaultMaxRetries = 3

// retryPolicy spaces attempts when concurrent creators race on the same bucket.
var retryPolicy = backoff.New(10*time.Millisecond, 2, 200*time.Millisecond, 0)

// EnsureBucket creates the bucket described by cfg, or opens it when it already exists.
//
// Concurrent callers may race on creation; transient failures are retried up to
// maxRetries times (3 when maxRetries <= 0) with jittered backoff.
func EnsureBucket(
	ctx context.Context,
	js jetstream.JetStream,
	cfg jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var (
		lastErr error
		delay   time.Duration
	)

	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, cfg)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, openErr := js.KeyValue(ctx, cfg.Bucket)
			if openErr == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", openErr)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("ensure KV bucket %s: %w", cfg.Bucket, ctx.Err())
		}

		if attempt < maxRetries-1 {
			delay = retryPolicy.Next(delay)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("ensure KV bucket %s: %w", cfg.Bucket, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return nil, fmt.Errorf("ensure KV bucket %s after %d attempts: %w", cfg.Bucket, maxRetries, lastErr)
}
