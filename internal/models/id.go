package models

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// PaymentIDPattern matches ids produced by IDGenerator.
var PaymentIDPattern = regexp.MustCompile(`^pay_.+_[0-9]+$`)

// IDGenerator issues pay_<clientId>_<epochMillis> ids. The numeric suffix is
// strictly increasing per generator: when the clock has not moved past the
// last issued value the suffix is last+1.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a new id for clientID together with the creation time.
func (g *IDGenerator) Next(clientID string) (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	millis := now.UnixMilli()
	if millis <= g.last {
		millis = g.last + 1
	}
	g.last = millis

	return fmt.Sprintf("pay_%s_%d", clientID, millis), now
}
