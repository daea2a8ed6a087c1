package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Chain is the minimal surface of the model chain needed by callers; *Client
// implements it. Keeping it an interface makes handlers and the invoker
// mockable without touching the real API.
type Chain interface {
	Invoke(ctx context.Context, input string) (string, error)
}

// RetryPolicy makes the invoker's retry budget explicit and injectable, so
// retry tests run without real delays.
type RetryPolicy struct {
	MaxAttempts     int           // total attempts, including the first
	InitialInterval time.Duration // first backoff delay; doubles per attempt
	MaxInterval     time.Duration // backoff cap
}

// DefaultRetryPolicy is used when no overrides are configured: three attempts
// with exponential backoff starting at 500ms, capped at 5s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Invoker wraps a Chain call with the bounded retry policy. It never inspects
// the returned text; whether the output is usable is the coercer's concern.
type Invoker struct {
	chain  Chain
	policy RetryPolicy
}

// NewInvoker builds an invoker with the default policy, honoring the
// LLM_MAX_ATTEMPTS and LLM_RETRY_BASE_MS env overrides.
func NewInvoker(chain Chain) *Invoker {
	p := DefaultRetryPolicy
	if v := os.Getenv("LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.MaxAttempts = n
		}
	}
	if v := os.Getenv("LLM_RETRY_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.InitialInterval = time.Duration(n) * time.Millisecond
		}
	}
	return &Invoker{chain: chain, policy: p}
}

// NewInvokerWithPolicy builds an invoker with an explicit policy.
func NewInvokerWithPolicy(chain Chain, p RetryPolicy) *Invoker {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultRetryPolicy.MaxInterval
	}
	return &Invoker{chain: chain, policy: p}
}

// Invoke calls the chain, retrying transient failures until the attempt budget
// is exhausted. On success the model text is returned unmodified; an empty
// string is a valid output. After exhaustion the last error is returned wrapped
// in an attempt-count description instead of propagating raw.
func (inv *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = inv.policy.InitialInterval
	b.MaxInterval = inv.policy.MaxInterval
	b.MaxElapsedTime = 0 // bounded by attempts, not wall clock

	var out string
	op := func() error {
		text, err := inv.chain.Invoke(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(inv.policy.MaxAttempts-1)))
	if err != nil {
		return "", fmt.Errorf("model chain unavailable after %d attempts: %w", inv.policy.MaxAttempts, err)
	}
	return out, nil
}
