package export

import (
	"sync"
	"time"

	"github.com/lehigh-university-libraries/coursemarketer/internal/clock"
)

// AckWindow is how long a "copied" acknowledgement stays visible
const AckWindow = 2 * time.Second

// Ack is a transient "copied" acknowledgement
type Ack struct {
	mu    sync.Mutex
	clock clock.Clock
	at    time.Time
}

func NewAck(c clock.Clock) *Ack {
	if c == nil {
		c = clock.Real{}
	}
	return &Ack{clock: c}
}

// Mark records a copy
func (a *Ack) Mark() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.at = a.clock.Now()
}

// Copied reports whether a copy happened within the last AckWindow
func (a *Ack) Copied() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.at.IsZero() {
		return false
	}
	return a.clock.Now().Sub(a.at) < AckWindow
}
