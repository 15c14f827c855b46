// Package announcer schedules announces to a single tracker.
//
// Unlike a background loop, an Announcer does not own a goroutine. The
// session ticks it with the current time and the Announcer decides when the
// next announce is due, applying the tracker's interval on success and an
// exponential backoff on failure.
package announcer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v3"

	"github.com/cenkalti/brook/internal/logger"
	"github.com/cenkalti/brook/internal/tracker"
)

// Status of the tracker from the client's point of view.
type Status int

// Announcer statuses.
const (
	NotContactedYet Status = iota
	Working
	NotWorking
)

// Announcer announces a torrent to a single tracker on a schedule.
type Announcer struct {
	Tracker      tracker.Tracker
	HasAnnounced bool

	status       Status
	numWant      int
	interval     time.Duration
	minInterval  time.Duration
	seeders      int
	leechers     int
	downloaded   int
	lastError    *AnnounceError
	log          logger.Logger
	backoff      backoff.BackOff
	backoffScale float64
	nextAnnounce time.Time
	lastAnnounce time.Time
}

// New returns a new Announcer for trk. backoffScale stretches or shrinks the
// retry delays after failed announces. Values below or equal to zero mean no
// scaling.
func New(trk tracker.Tracker, numWant int, minInterval time.Duration, backoffScale float64, l logger.Logger) *Announcer {
	if backoffScale <= 0 {
		backoffScale = 1
	}
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     5 * time.Second,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         30 * time.Minute,
		MaxElapsedTime:      0, // never stop
		Clock:               backoff.SystemClock,
	}
	bo.Reset()
	return &Announcer{
		Tracker:      trk,
		status:       NotContactedYet,
		numWant:      numWant,
		minInterval:  minInterval,
		log:          l,
		backoff:      bo,
		backoffScale: backoffScale,
	}
}

// ShouldAnnounce reports whether an announce is due at now. A tracker that
// has never been contacted is always due.
func (a *Announcer) ShouldAnnounce(now time.Time) bool {
	if !a.HasAnnounced && a.status == NotContactedYet {
		return true
	}
	return !now.Before(a.nextAnnounce)
}

// NextAnnounce returns the time the next regular announce is due.
func (a *Announcer) NextAnnounce() time.Time {
	return a.nextAnnounce
}

// Announce makes a single announce and reschedules the next one based on the
// outcome. Event overrides the regular announce cadence and is sent
// immediately.
func (a *Announcer) Announce(ctx context.Context, torrent tracker.Torrent, event tracker.Event, now time.Time) (*tracker.AnnounceResponse, error) {
	numWant := a.numWant
	if event == tracker.EventStopped || event == tracker.EventCompleted {
		numWant = 0
	}
	req := tracker.AnnounceRequest{
		Torrent: torrent,
		Event:   event,
		NumWant: numWant,
	}
	resp, err := a.Tracker.Announce(ctx, req)
	a.lastAnnounce = now
	if err != nil {
		a.handleError(err, now)
		return nil, err
	}
	a.status = Working
	a.HasAnnounced = true
	a.lastError = nil
	a.seeders = int(resp.Seeders)
	a.leechers = int(resp.Leechers)
	a.downloaded = int(resp.Downloaded)
	a.interval = resp.Interval
	if resp.MinInterval > 0 {
		a.minInterval = resp.MinInterval
	}
	if a.interval < a.minInterval {
		a.interval = a.minInterval
	}
	a.backoff.Reset()
	a.nextAnnounce = now.Add(a.interval)
	return resp, nil
}

func (a *Announcer) handleError(err error, now time.Time) {
	if err == context.Canceled {
		return
	}
	a.status = NotWorking
	a.lastError = newAnnounceError(err)
	if a.lastError.Unknown {
		a.log.Errorln("announce error:", a.lastError.ErrorWithType())
	} else {
		a.log.Debugln("announce error:", a.lastError.Err.Error())
	}
	if terr, ok := a.lastError.Err.(*tracker.Error); ok && terr.RetryIn > 0 {
		a.nextAnnounce = now.Add(terr.RetryIn)
		return
	}
	delay := a.backoff.NextBackOff()
	if a.backoffScale != 1 {
		delay = time.Duration(float64(delay) * a.backoffScale)
	}
	a.nextAnnounce = now.Add(delay)
}

// Stats about the tracker.
type Stats struct {
	Status   Status
	Error    *AnnounceError
	Seeders  int
	Leechers int
}

// Stats returns statistics about the tracker.
func (a *Announcer) Stats() Stats {
	return Stats{
		Status:   a.status,
		Error:    a.lastError,
		Seeders:  a.seeders,
		Leechers: a.leechers,
	}
}
