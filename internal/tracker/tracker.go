// Package tracker provides the announce interface and types shared by
// tracker clients.
package tracker

import (
	"context"
	"net/netip"
	"time"
)

// Tracker announces a torrent to a tracker.
// Announce is called periodically with the interval returned in the last
// AnnounceResponse, and on lifecycle events.
type Tracker interface {
	Announce(ctx context.Context, req AnnounceRequest) (*AnnounceResponse, error)

	// URL of the tracker.
	URL() string
}

// AnnounceRequest is a single announce to one tracker.
type AnnounceRequest struct {
	Torrent Torrent
	Event   Event
	NumWant int
}

// AnnounceResponse is the tracker's reply to an announce.
type AnnounceResponse struct {
	Interval       time.Duration
	MinInterval    time.Duration
	Leechers       int32
	Seeders        int32
	Downloaded     int32
	WarningMessage string
	Peers          []netip.AddrPort
}

// Error is a failure reason sent by the tracker in an announce response.
type Error struct {
	FailureReason string
	RetryIn       time.Duration
}

func (e *Error) Error() string { return e.FailureReason }
