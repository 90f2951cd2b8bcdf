package camunda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"catalog-lookup-workers/internal/common/logger"
)

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Delay returns the wait before the given retry attempt (0-based), doubling
// from BaseDelay and capped at MaxDelay.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := r.BaseDelay
	for i := 0; i < attempt && delay < r.MaxDelay; i++ {
		delay *= 2
	}
	if delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so RetryWithBackoff returns it without further attempts.
func Permanent(err error) error {
	return &permanentError{err: err}
}

// RetryWithBackoff runs operation until it succeeds, returns a Permanent
// error, MaxRetries attempts have failed, or ctx is done.
func RetryWithBackoff(ctx context.Context, rc *RetryConfig, log logger.Logger, operationName string, operation func(context.Context) error) error {
	if rc == nil {
		rc = DefaultRetryConfig
	}

	var err error
	for attempt := 0; attempt < rc.MaxRetries; attempt++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return fmt.Errorf("%s failed: %w", operationName, perm.err)
		}
		if attempt == rc.MaxRetries-1 {
			break
		}

		delay := rc.Delay(attempt)
		log.Warn(operationName+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt + 1,
			"maxRetries":  rc.MaxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt+1, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, rc.MaxRetries, err)
}

// Connect creates a Zeebe client and waits until the gateway answers a
// topology request. Transient failures are retried with backoff.
func Connect(ctx context.Context, cfg *ClientConfig, log logger.Logger) (zbc.Client, error) {
	if cfg.ConnectionTimeout == 0 {
		cfg.ConnectionTimeout = 10 * time.Second
	}

	var client zbc.Client
	err := RetryWithBackoff(ctx, cfg.RetryConfig, log, "zeebe connection", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.GatewayAddress,
			UsePlaintextConnection: cfg.UsePlaintextConnection,
		})
		if err != nil {
			return fmt.Errorf("failed to create Zeebe client: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(pingCtx); err != nil {
			_ = c.Close()
			if !IsRetryableZeebeError(err) {
				return Permanent(fmt.Errorf("zeebe gateway %s rejected topology request: %w", cfg.GatewayAddress, err))
			}
			return fmt.Errorf("failed to connect to Zeebe gateway at %s: %w", cfg.GatewayAddress, err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// HealthCheck sends a topology request with a short timeout.
func HealthCheck(ctx context.Context, client zbc.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// IsRetryableZeebeError reports whether err looks like a transient transport failure.
func IsRetryableZeebeError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
