// Package poll re-runs a check on a fixed interval until it reports done.
package poll

import (
	"context"
	"time"
)

// Func performs one check. Returning done stops the poller. An error is
// reported and polling continues.
type Func func(ctx context.Context) (done bool, err error)

// Poller runs a Func on a ticker
type Poller struct {
	interval time.Duration
	onError  func(error)
}

// Option functions for configuration
type Option func(*Poller)

// WithInterval sets the check interval
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithOnError sets the callback for failed checks
func WithOnError(fn func(error)) Option {
	return func(p *Poller) {
		p.onError = fn
	}
}

// New creates a poller. The default interval is one second.
func New(opts ...Option) *Poller {
	p := &Poller{interval: time.Second}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		p.interval = time.Second
	}
	return p
}

// Run checks immediately and then on every tick. It returns nil once fn
// reports done, or ctx.Err() when the context ends first.
func (p *Poller) Run(ctx context.Context, fn Func) error {
	if p.check(ctx, fn) {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.check(ctx, fn) {
				return nil
			}
		}
	}
}

func (p *Poller) check(ctx context.Context, fn Func) bool {
	done, err := fn(ctx)
	if err != nil && ctx.Err() == nil && p.onError != nil {
		p.onError(err)
	}
	return done
}

// Until is shorthand for New(WithInterval(interval)).Run(ctx, fn)
func Until(ctx context.Context, interval time.Duration, fn Func) error {
	return New(WithInterval(interval)).Run(ctx, fn)
}
