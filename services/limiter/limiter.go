package limiter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Unlimited is reported as Remaining for action classes without a policy.
const Unlimited = -1

var ErrInvalidPolicy = errors.New("invalid rate limit policy")

type Policy struct {
	ActionClass string        `json:"action_class"`
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
	Description string        `json:"description,omitempty"`
}

type Result struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after"`
}

// Store keeps the ordered attempt timestamps of each key.
type Store interface {
	// Hit drops timestamps at or before now-window, appends now, refreshes the key TTL
	// to window and returns the remaining timestamps in ascending order.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error)
	Clear(ctx context.Context, key string) error
}

type Options struct {
	TimeProvider func() time.Time
}

// Limiter is a sliding-window counter keyed by (actionClass, identifier).
// Denied attempts are recorded too, so a client hammering a closed window keeps it closed.
type Limiter struct {
	store    Store
	now      func() time.Time
	mu       sync.RWMutex
	policies map[string]Policy
}

func New(store Store, opts *Options) *Limiter {
	l := &Limiter{
		store:    store,
		now:      time.Now,
		policies: make(map[string]Policy),
	}
	if opts != nil && opts.TimeProvider != nil {
		l.now = opts.TimeProvider
	}
	return l
}

// Configure registers or replaces the policy for an action class. Windows already
// stored are not resized, the new window applies from the next Check.
func (l *Limiter) Configure(p Policy) error {
	if p.ActionClass == "" || p.MaxRequests <= 0 || p.Window <= 0 {
		return fmt.Errorf("%w: %q max=%d window=%s", ErrInvalidPolicy, p.ActionClass, p.MaxRequests, p.Window)
	}
	l.mu.Lock()
	l.policies[p.ActionClass] = p
	l.mu.Unlock()
	return nil
}

func (l *Limiter) Policy(actionClass string) (Policy, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.policies[actionClass]
	return p, ok
}

func (l *Limiter) Policies() []Policy {
	l.mu.RLock()
	out := make([]Policy, 0, len(l.policies))
	for _, p := range l.policies {
		out = append(out, p)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ActionClass < out[j].ActionClass })
	return out
}

func (l *Limiter) Check(ctx context.Context, identifier, actionClass string) (Result, error) {
	policy, ok := l.Policy(actionClass)
	if !ok {
		return Result{Allowed: true, Limit: Unlimited, Remaining: Unlimited}, nil
	}

	now := l.now()
	stamps, err := l.store.Hit(ctx, Key(actionClass, identifier), now, policy.Window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", actionClass, err)
	}

	count := len(stamps)
	res := Result{
		Allowed:   count <= policy.MaxRequests,
		Limit:     policy.MaxRequests,
		Remaining: max(0, policy.MaxRequests-count),
		ResetAt:   now.Add(policy.Window),
	}
	if !res.Allowed {
		// The window reopens when the oldest counted attempt slides out of it.
		res.RetryAfter = stamps[0].Add(policy.Window).Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
	}
	return res, nil
}

func (l *Limiter) Reset(ctx context.Context, identifier, actionClass string) error {
	return l.store.Clear(ctx, Key(actionClass, identifier))
}

func Key(actionClass, identifier string) string {
	return "ratelimit:" + actionClass + ":" + identifier
}
