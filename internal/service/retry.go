package service

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy 有界指数退避：最多 maxAttempts 次，间隔从 initialDelay 起每次翻倍
type RetryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration

	// Retryable 为空时除 context 取消外的错误都重试
	Retryable func(error) bool
	// OnRetry 每次失败后（含最后一次）回调，attempt 从 1 开始
	OnRetry func(attempt int, err error)

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy 创建重试策略
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryPolicy{
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     30 * time.Second,
		sleep:        sleepContext,
	}
}

// Execute 执行 fn 直到成功、不可重试或次数用尽
func (r *RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := r.initialDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("canceled after %d attempts: %w", attempt, lastErr)
		}
		if r.Retryable != nil && !r.Retryable(err) {
			return fmt.Errorf("failed after %d attempts: %w", attempt, lastErr)
		}

		// 最后一次失败后不再等待
		if attempt < r.maxAttempts {
			if err := r.sleep(ctx, delay); err != nil {
				return fmt.Errorf("canceled after %d attempts: %w", attempt, lastErr)
			}
			delay *= 2
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", r.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
