package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

const systemPrompt = `You moderate public comments on a car fault diagnosis site.
Rate how acceptable the comment is for publication from 0 (spam, abuse, profanity, personal data) to 1 (helpful and on topic).
Answer with JSON only: {"score": <0..1>, "status": "pending" | "rejected", "reason": "<short reason>"}.`

// Provider sends one completion request to a language model.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Observer receives one call per scoring attempt.
type Observer interface {
	ObserveScore(provider, outcome string, duration time.Duration)
}

type Options struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	Observer        Observer
}

// Scorer wraps a Provider with a per-call timeout and a circuit breaker so an
// unhealthy provider fails fast instead of holding submissions open.
type Scorer struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	observer Observer
}

func NewScorer(provider Provider, opts Options) *Scorer {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "scorer-" + provider.Name(),
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
	}

	return &Scorer{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		timeout:  opts.Timeout,
		observer: opts.Observer,
	}
}

func (s *Scorer) Provider() string {
	return s.provider.Name()
}

func (s *Scorer) Score(ctx context.Context, text string) (*Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Complete(ctx, systemPrompt, text)
	})
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "breaker_open"
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		}
		s.observe(outcome, start)
		return nil, fmt.Errorf("scorer %s: %w", s.provider.Name(), err)
	}

	verdict, err := ParseVerdict(out.(string))
	if err != nil {
		s.observe("unparseable", start)
		return nil, fmt.Errorf("scorer %s: %w", s.provider.Name(), err)
	}

	s.observe("ok", start)
	return verdict, nil
}

func (s *Scorer) observe(outcome string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveScore(s.provider.Name(), outcome, time.Since(start))
	}
}
