package announcer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cenkalti/brook/internal/logger"
	"github.com/cenkalti/brook/internal/tracker"
)

type fakeTracker struct {
	resp     *tracker.AnnounceResponse
	err      error
	requests []tracker.AnnounceRequest
}

func (f *fakeTracker) Announce(ctx context.Context, req tracker.AnnounceRequest) (*tracker.AnnounceResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTracker) URL() string { return "http://tracker.example/announce" }

func newTestAnnouncer(trk tracker.Tracker) *Announcer {
	return New(trk, 50, time.Minute, 1, logger.New("test announcer"))
}

func TestShouldAnnounceInitially(t *testing.T) {
	a := newTestAnnouncer(&fakeTracker{})
	assert.True(t, a.ShouldAnnounce(time.Now()))
}

func TestAnnounceSuccess(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trk := &fakeTracker{resp: &tracker.AnnounceResponse{
		Interval: 30 * time.Minute,
		Seeders:  5,
		Leechers: 10,
	}}
	a := newTestAnnouncer(trk)
	resp, err := a.Announce(context.Background(), tracker.Torrent{}, tracker.EventStarted, now)
	require.NoError(t, err)
	assert.Equal(t, int32(5), resp.Seeders)
	assert.True(t, a.HasAnnounced)

	stats := a.Stats()
	assert.Equal(t, Working, stats.Status)
	assert.Equal(t, 5, stats.Seeders)
	assert.Equal(t, 10, stats.Leechers)
	assert.Nil(t, stats.Error)

	assert.Equal(t, now.Add(30*time.Minute), a.NextAnnounce())
	assert.False(t, a.ShouldAnnounce(now.Add(29*time.Minute)))
	assert.True(t, a.ShouldAnnounce(now.Add(30*time.Minute)))

	require.Len(t, trk.requests, 1)
	assert.Equal(t, tracker.EventStarted, trk.requests[0].Event)
	assert.Equal(t, 50, trk.requests[0].NumWant)
}

func TestAnnounceMinIntervalClamp(t *testing.T) {
	now := time.Now()
	trk := &fakeTracker{resp: &tracker.AnnounceResponse{
		Interval:    10 * time.Second,
		MinInterval: 5 * time.Minute,
	}}
	a := newTestAnnouncer(trk)
	_, err := a.Announce(context.Background(), tracker.Torrent{}, tracker.EventNone, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), a.NextAnnounce())
}

func TestAnnounceFailureBacksOff(t *testing.T) {
	now := time.Now()
	trk := &fakeTracker{err: errors.New("boom")}
	a := newTestAnnouncer(trk)
	_, err := a.Announce(context.Background(), tracker.Torrent{}, tracker.EventNone, now)
	require.Error(t, err)

	stats := a.Stats()
	assert.Equal(t, NotWorking, stats.Status)
	require.NotNil(t, stats.Error)
	assert.True(t, stats.Error.Unknown)
	assert.False(t, a.HasAnnounced)

	// First retry is due within the randomized initial backoff window.
	delay := a.NextAnnounce().Sub(now)
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, 10*time.Second)
}

func TestAnnounceFailureRetryIn(t *testing.T) {
	now := time.Now()
	trk := &fakeTracker{err: &tracker.Error{FailureReason: "come back later", RetryIn: time.Hour}}
	a := newTestAnnouncer(trk)
	_, err := a.Announce(context.Background(), tracker.Torrent{}, tracker.EventNone, now)
	require.Error(t, err)
	assert.Equal(t, now.Add(time.Hour), a.NextAnnounce())

	stats := a.Stats()
	require.NotNil(t, stats.Error)
	assert.False(t, stats.Error.Unknown)
	assert.Equal(t, "announce error: come back later", stats.Error.Message)
}

func TestStoppedEventSendsNoNumWant(t *testing.T) {
	trk := &fakeTracker{resp: &tracker.AnnounceResponse{Interval: time.Minute}}
	a := newTestAnnouncer(trk)
	_, err := a.Announce(context.Background(), tracker.Torrent{}, tracker.EventStopped, time.Now())
	require.NoError(t, err)
	require.Len(t, trk.requests, 1)
	assert.Equal(t, 0, trk.requests[0].NumWant)
}

func TestAnnounceErrorClassification(t *testing.T) {
	e := newAnnounceError(&net.DNSError{Err: "no such host", Name: "tracker.example"})
	assert.False(t, e.Unknown)
	assert.Equal(t, "host not found: tracker.example", e.Message)

	e = newAnnounceError(&tracker.Error{FailureReason: "unregistered torrent"})
	assert.False(t, e.Unknown)

	e = newAnnounceError(errors.New("weird"))
	assert.True(t, e.Unknown)
	assert.Equal(t, "unknown error in announce", e.Message)
}
