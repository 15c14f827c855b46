package httptracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cenkalti/brook/internal/tracker"
)

func newTestTracker(t *testing.T, handler http.HandlerFunc) *HTTPTracker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL + "/announce")
	require.NoError(t, err)
	return New(u, srv.Client())
}

func testRequest() tracker.AnnounceRequest {
	return tracker.AnnounceRequest{
		Torrent: tracker.Torrent{
			InfoHash:  [20]byte{1, 2, 3},
			PeerID:    [20]byte{4, 5, 6},
			Port:      6881,
			BytesLeft: 100,
		},
		Event:   tracker.EventStarted,
		NumWant: 50,
	}
}

func TestAnnounceCompactPeers(t *testing.T) {
	var gotQuery url.Values
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		// interval 120, complete 3, incomplete 7, one peer 1.2.3.4:257
		_, _ = w.Write([]byte("d8:completei3e10:incompletei7e8:intervali120e5:peers6:\x01\x02\x03\x04\x01\x01e"))
	})
	resp, err := trk.Announce(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, resp.Interval)
	assert.Equal(t, int32(3), resp.Seeders)
	assert.Equal(t, int32(7), resp.Leechers)
	require.Len(t, resp.Peers, 1)
	assert.Equal(t, netip.MustParseAddrPort("1.2.3.4:257"), resp.Peers[0])

	assert.Equal(t, "started", gotQuery.Get("event"))
	assert.Equal(t, "1", gotQuery.Get("compact"))
	assert.Equal(t, "6881", gotQuery.Get("port"))
	assert.Equal(t, "100", gotQuery.Get("left"))
	assert.Equal(t, "50", gotQuery.Get("numwant"))
}

func TestAnnounceDictionaryPeers(t *testing.T) {
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d8:intervali60e5:peersld2:ip7:5.6.7.84:porti6881eeee"))
	})
	resp, err := trk.Announce(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Peers, 1)
	assert.Equal(t, netip.MustParseAddrPort("5.6.7.8:6881"), resp.Peers[0])
}

func TestAnnounceIPv6Peers(t *testing.T) {
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		peer6 := make([]byte, 18)
		peer6[15] = 1 // ::1
		peer6[16] = 0x1a
		peer6[17] = 0xe1 // port 6881
		_, _ = w.Write([]byte("d8:intervali60e6:peers618:" + string(peer6) + "e"))
	})
	resp, err := trk.Announce(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Peers, 1)
	assert.Equal(t, netip.MustParseAddrPort("[::1]:6881"), resp.Peers[0])
}

func TestAnnounceFailureReason(t *testing.T) {
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d14:failure reason9:not found8:retry in1:5e"))
	})
	_, err := trk.Announce(context.Background(), testRequest())
	var terr *tracker.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "not found", terr.FailureReason)
	assert.Equal(t, 5*time.Minute, terr.RetryIn)
}

func TestAnnounceStatusError(t *testing.T) {
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	_, err := trk.Announce(context.Background(), testRequest())
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)
}

func TestAnnounceTrackerID(t *testing.T) {
	var gotTrackerID string
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		gotTrackerID = r.URL.Query().Get("trackerid")
		_, _ = w.Write([]byte("d8:intervali60e10:tracker id3:abce"))
	})
	_, err := trk.Announce(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "", gotTrackerID)

	_, err = trk.Announce(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "abc", gotTrackerID)
}

func TestAnnounceContextCancel(t *testing.T) {
	trk := newTestTracker(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := trk.Announce(ctx, testRequest())
	assert.Error(t, err)
}
