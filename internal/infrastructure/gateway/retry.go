package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/config"
)

// RetryGatewayClient retries read-only calls (verification and refund status
// polls) on transient failures. Charge and refund submissions are never
// retried here: the caller owns those decisions because a resubmission can
// double-charge.
type RetryGatewayClient struct {
	inner      application.GatewayClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryGatewayClient(inner application.GatewayClient, cfg config.RetryConfig) *RetryGatewayClient {
	return &RetryGatewayClient{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelay) * time.Second,
		maxRetries: int(cfg.MaxRetries),
	}
}

var _ application.GatewayClient = (*RetryGatewayClient)(nil)

func (r *RetryGatewayClient) Charge(ctx context.Context, req application.CardCharge) (*application.ChargeResult, error) {
	return r.inner.Charge(ctx, req)
}

func (r *RetryGatewayClient) SubmitChallenge(ctx context.Context, req application.CardCharge, answer application.ChallengeAnswer) (*application.ChargeResult, error) {
	return r.inner.SubmitChallenge(ctx, req, answer)
}

func (r *RetryGatewayClient) ValidateOTP(ctx context.Context, otp, challengeToken string) (*application.ChargeResult, error) {
	return r.inner.ValidateOTP(ctx, otp, challengeToken)
}

func (r *RetryGatewayClient) VerifyTransaction(ctx context.Context, reference string) (*application.VerificationResult, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.VerificationResult, error) {
		return r.inner.VerifyTransaction(ctx, reference)
	})
}

func (r *RetryGatewayClient) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
	return r.inner.Refund(ctx, transactionID, amount, reason)
}

func (r *RetryGatewayClient) GetRefundStatus(ctx context.Context, providerRefundID string) (*application.RefundCallResult, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.RefundCallResult, error) {
		return r.inner.GetRefundStatus(ctx, providerRefundID)
	})
}

// Generic retry helper
func retry[T any](r *RetryGatewayClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrGatewayUnreachable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}
	return false
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGatewayClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
