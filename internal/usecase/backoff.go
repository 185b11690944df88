package usecase

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff strategies accepted by NewBackOff.
const (
	BackOffConstant    = "constant"
	BackOffExponential = "exponential"
	BackOffZero        = "zero"
)

// NewBackOff builds the wait policy used between archive retries.
// The returned policy never stops on its own; the Retriever caps attempts.
func NewBackOff(strategy string, interval time.Duration) (backoff.BackOff, error) {
	switch strategy {
	case BackOffConstant, "":
		return backoff.NewConstantBackOff(interval), nil
	case BackOffExponential:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = interval
		b.MaxInterval = 8 * interval
		b.MaxElapsedTime = 0
		return b, nil
	case BackOffZero:
		return &backoff.ZeroBackOff{}, nil
	default:
		return nil, fmt.Errorf("unknown backoff strategy %q", strategy)
	}
}
