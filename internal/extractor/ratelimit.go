package extractor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket rate limiter.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter that allows n requests per second.
func NewRateLimiter(rps float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Wait blocks until the rate limiter allows another request.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// RateLimited wraps an LLM so every call waits on the limiter first.
// All pipeline stages share one limiter, so the request rate holds
// across extraction, analysis and summarization.
func RateLimited(llm LLM, limiter *RateLimiter) LLM {
	return &rateLimitedLLM{llm: llm, limiter: limiter}
}

type rateLimitedLLM struct {
	llm     LLM
	limiter *RateLimiter
}

func (r *rateLimitedLLM) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.llm.Generate(ctx, system, prompt, maxTokens)
}
