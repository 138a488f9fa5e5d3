package browser

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests to the document source: a token bucket bounds
// navigations per minute and every navigation or click is followed by a
// randomized pause of base plus up to jitter.
type Pacer struct {
	limiter *rate.Limiter
	base    time.Duration
	jitter  time.Duration

	randN func(n int64) int64
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer. perMinute <= 0 disables the navigation limit.
func NewPacer(base, jitter time.Duration, perMinute int) *Pacer {
	p := &Pacer{
		base:   base,
		jitter: jitter,
		randN:  rand.Int64N,
		sleep:  sleepContext,
	}
	if perMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return p
}

// NoPacer returns a pacer that never waits
func NoPacer() *Pacer {
	return NewPacer(0, 0, 0)
}

// Delay returns the next politeness pause
func (p *Pacer) Delay() time.Duration {
	if p.jitter <= 0 {
		return p.base
	}
	return p.base + time.Duration(p.randN(int64(p.jitter)+1))
}

// BeforeNavigate blocks until the navigation budget allows another request
func (p *Pacer) BeforeNavigate(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Pause sleeps for the politeness delay or until ctx is done
func (p *Pacer) Pause(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
