package subscription

import (
	"context"
	"time"
)

const (
	retryStep  = 100 * time.Millisecond
	retryFloor = 3000 * time.Millisecond
)

// RetryDelay - задержка перед повторным подключением к брокеру: max(attempt*100ms, 3000ms)
func RetryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt) * retryStep
	if delay < retryFloor {
		return retryFloor
	}
	return delay
}

// sleep возвращает false, если контекст отменили раньше
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
