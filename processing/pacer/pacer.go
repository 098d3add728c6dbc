// Package pacer decides on which captured frames a detection pass runs.
//
// The capture loop calls Update once per frame. Elapsed time is accumulated
// and a Fire is returned whenever a full inference interval has built up.
// Overshoot past the interval is carried into the next cycle so the long-run
// fire rate converges on the target rate, but a single Update never yields
// more than one Fire: a slow caller gets one detection, not a backlog.
package pacer

import (
	"errors"
	"time"
)

type Decision int

const (
	NoFire Decision = iota
	Fire
)

func (d Decision) String() string {
	if d == Fire {
		return "fire"
	}
	return "no-fire"
}

// epsilon keeps RenderFPS finite when two frames share a timestamp.
const epsilon = 1e-6

var ErrInterval = errors.New("pacer: interval must be positive")

// Pacer is not safe for concurrent use; it belongs to the capture loop.
type Pacer struct {
	interval time.Duration

	acc      time.Duration
	prev     time.Time
	lastFire time.Time
	lastDt   time.Duration

	started  bool
	hasDelta bool
	fired    bool
	fires    uint64
}

func New(interval time.Duration) (*Pacer, error) {
	if interval <= 0 {
		return nil, ErrInterval
	}
	return &Pacer{interval: interval}, nil
}

// NewFromFPS is New with the interval given as a target rate.
func NewFromFPS(fps float64) (*Pacer, error) {
	if fps <= 0 {
		return nil, ErrInterval
	}
	return New(time.Duration(float64(time.Second) / fps))
}

// Update advances the pacer to now and reports whether this frame should be
// sent to the detector. The first call only records the timestamp.
// After every call the accumulator is in [0, interval).
func (p *Pacer) Update(now time.Time) Decision {
	if !p.started {
		p.started = true
		p.prev = now
		p.lastDt = 0
		return NoFire
	}

	dt := now.Sub(p.prev)
	p.prev = now
	if dt < 0 {
		// clock went backwards; treat as a zero-length frame
		dt = 0
	}
	p.lastDt = dt
	p.hasDelta = true
	p.acc += dt

	if p.acc < p.interval {
		return NoFire
	}

	p.acc %= p.interval
	p.lastFire = now
	p.fired = true
	p.fires++
	return Fire
}

// Reset forgets all timing state, as at loop start.
func (p *Pacer) Reset() {
	*p = Pacer{interval: p.interval}
}

func (p *Pacer) Interval() time.Duration { return p.interval }

// Accumulated is the time carried toward the next fire.
func (p *Pacer) Accumulated() time.Duration { return p.acc }

// LastDelta is the clamped elapsed time seen by the most recent Update.
func (p *Pacer) LastDelta() time.Duration { return p.lastDt }

func (p *Pacer) Fires() uint64 { return p.fires }

// RenderFPS is the instantaneous frame rate implied by dt.
func RenderFPS(dt time.Duration) float64 {
	return 1 / (dt.Seconds() + epsilon)
}

// RenderFPS is the instantaneous frame rate of the most recent Update, or 0
// until two Updates have produced a frame interval.
func (p *Pacer) RenderFPS() float64 {
	if !p.hasDelta {
		return 0
	}
	return RenderFPS(p.lastDt)
}

// TargetFPS is the configured inference rate.
func (p *Pacer) TargetFPS() float64 {
	return 1 / p.interval.Seconds()
}

// Staleness is how long ago the last Fire happened. ok is false before the
// first Fire.
func (p *Pacer) Staleness(now time.Time) (age time.Duration, ok bool) {
	if !p.fired {
		return 0, false
	}
	age = now.Sub(p.lastFire)
	if age < 0 {
		age = 0
	}
	return age, true
}

// StalenessMillis is Staleness in milliseconds, or -1 before the first Fire.
func (p *Pacer) StalenessMillis(now time.Time) float64 {
	age, ok := p.Staleness(now)
	if !ok {
		return -1
	}
	return age.Seconds() * 1000
}
