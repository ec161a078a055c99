package route

import "time"

// Backoff is an exponential delay schedule between attempts.
type Backoff struct {
	// Initial is the delay before the second attempt.
	Initial time.Duration `json:"initial" yaml:"initial" toml:"initial"`

	// Multiplier grows the delay each attempt. Values below 1 are
	// clamped to 1.
	Multiplier float64 `json:"multiplier" yaml:"multiplier" toml:"multiplier"`

	// Max caps the delay. Zero means uncapped.
	Max time.Duration `json:"max" yaml:"max" toml:"max"`
}

// DefaultPrimaryBackoff is the retry schedule for the primary backend.
var DefaultPrimaryBackoff = Backoff{
	Initial:    250 * time.Millisecond,
	Multiplier: 2.0,
	Max:        5 * time.Second,
}

// DefaultFallbackBackoff is the delay schedule before fallback attempts.
var DefaultFallbackBackoff = Backoff{
	Initial:    500 * time.Millisecond,
	Multiplier: 2.0,
	Max:        5 * time.Second,
}

// Delay returns the wait before the given attempt. Attempt numbering is
// 1-based; the first attempt never waits.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 1 || b.Initial <= 0 {
		return 0
	}

	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := b.Initial
	for i := 2; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}
