package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned by a Guard while its breaker is open. The
// upstream is not called.
var ErrUnavailable = errors.New("summarization temporarily unavailable")

type caller interface {
	Summarize(ctx context.Context, token string, body any) (Response, error)
}

// GuardConfig tunes the breaker of a Guard.
type GuardConfig struct {
	// Failures is the number of consecutive upstream failures that opens the
	// breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before one request is let
	// through again.
	Cooldown time.Duration
}

// Guard puts a circuit breaker in front of a Client for background callers
// such as the ingestion workflow. The relay uses the Client directly.
type Guard struct {
	next    caller
	breaker *gobreaker.CircuitBreaker
}

func NewGuard(next caller, cfg GuardConfig, logger *log.Logger) *Guard {
	if cfg.Failures == 0 {
		cfg.Failures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Guard{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "summarize-meeting",
			MaxRequests: 1,
			Timeout:     cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Failures
			},
			IsSuccessful: upstreamHealthy,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WithFields(log.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state changed")
			},
		}),
	}
}

// Summarize calls the wrapped client unless the breaker is open, in which
// case the error wraps ErrUnavailable.
func (g *Guard) Summarize(ctx context.Context, token string, body any) (Response, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Summarize(ctx, token, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(Response), nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guard) State() string {
	return g.breaker.State().String()
}

// Config gaps and client errors say nothing about the upstream's health.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return true
	}
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode < http.StatusInternalServerError
}
