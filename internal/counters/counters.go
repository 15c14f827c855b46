// Package counters provides concurrent-safe accumulated torrent statistics.
package counters

import "sync/atomic"

type counterName int

const (
	BytesDownloaded counterName = iota
	BytesUploaded
	ActiveTime   // seconds
	FinishedTime // seconds
	SeedingTime  // seconds
)

// Counters is a fixed set of atomically updated integers.
type Counters [5]int64

// New returns Counters seeded with the given values.
func New(dl, ul, active, finished, seeding int64) Counters {
	var c Counters
	c.Incr(BytesDownloaded, dl)
	c.Incr(BytesUploaded, ul)
	c.Incr(ActiveTime, active)
	c.Incr(FinishedTime, finished)
	c.Incr(SeedingTime, seeding)
	return c
}

// Incr adds value to the named counter.
func (c *Counters) Incr(name counterName, value int64) {
	atomic.AddInt64(&c[name], value)
}

// Read returns the current value of the named counter.
func (c *Counters) Read(name counterName) int64 {
	return atomic.LoadInt64(&c[name])
}
