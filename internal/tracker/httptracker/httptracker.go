// Package httptracker provides an HTTP tracker client.
package httptracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"time"

	"github.com/zeebo/bencode"

	"github.com/cenkalti/brook/internal/logger"
	"github.com/cenkalti/brook/internal/tracker"
)

// HTTPTracker announces to an HTTP tracker URL.
type HTTPTracker struct {
	rawURL    string
	url       *url.URL
	log       logger.Logger
	http      *http.Client
	trackerID string
}

// New returns a new HTTPTracker that announces to u.
func New(u *url.URL, client *http.Client) *HTTPTracker {
	return &HTTPTracker{
		rawURL: u.String(),
		url:    u,
		log:    logger.New("tracker " + u.String()),
		http:   client,
	}
}

// URL of the tracker.
func (t *HTTPTracker) URL() string {
	return t.rawURL
}

// StatusError is returned when the tracker replies with a non-200 status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status: %d body: %q", e.Code, e.Body)
}

type announceResponse struct {
	FailureReason  string             `bencode:"failure reason"`
	RetryIn        string             `bencode:"retry in"`
	WarningMessage string             `bencode:"warning message"`
	Interval       int32              `bencode:"interval"`
	MinInterval    int32              `bencode:"min interval"`
	TrackerID      string             `bencode:"tracker id"`
	Complete       int32              `bencode:"complete"`
	Incomplete     int32              `bencode:"incomplete"`
	Downloaded     int32              `bencode:"downloaded"`
	Peers          bencode.RawMessage `bencode:"peers"`
	Peers6         bencode.RawMessage `bencode:"peers6"`
}

// Announce makes a single announce request and parses the reply.
func (t *HTTPTracker) Announce(ctx context.Context, req tracker.AnnounceRequest) (*tracker.AnnounceResponse, error) {
	q := url.Values{}
	q.Set("info_hash", string(req.Torrent.InfoHash[:]))
	q.Set("peer_id", string(req.Torrent.PeerID[:]))
	q.Set("port", strconv.Itoa(req.Torrent.Port))
	q.Set("uploaded", strconv.FormatInt(req.Torrent.BytesUploaded, 10))
	q.Set("downloaded", strconv.FormatInt(req.Torrent.BytesDownloaded, 10))
	q.Set("left", strconv.FormatInt(req.Torrent.BytesLeft, 10))
	q.Set("compact", "1")
	q.Set("no_peer_id", "1")
	q.Set("numwant", strconv.Itoa(req.NumWant))
	if req.Event != tracker.EventNone {
		q.Set("event", req.Event.String())
	}
	if t.trackerID != "" {
		q.Set("trackerid", t.trackerID)
	}

	u := *t.url
	if u.RawQuery != "" {
		u.RawQuery += "&" + q.Encode()
	} else {
		u.RawQuery = q.Encode()
	}
	t.log.Debugf("making request to: %q", u.String())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	var response announceResponse
	if err = bencode.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}
	return t.parseResponse(&response)
}

func (t *HTTPTracker) parseResponse(response *announceResponse) (*tracker.AnnounceResponse, error) {
	if response.FailureReason != "" {
		retryIn, _ := strconv.Atoi(response.RetryIn)
		return nil, &tracker.Error{
			FailureReason: response.FailureReason,
			RetryIn:       time.Duration(retryIn) * time.Minute,
		}
	}
	if response.WarningMessage != "" {
		t.log.Warning(response.WarningMessage)
	}
	if response.TrackerID != "" {
		t.trackerID = response.TrackerID
	}

	// Peers may be in binary or dictionary model.
	peers, err := parsePeers(response.Peers, tracker.DecodePeersCompact)
	if err != nil {
		return nil, err
	}
	peers6, err := parsePeers(response.Peers6, tracker.DecodePeersCompact6)
	if err != nil {
		return nil, err
	}

	return &tracker.AnnounceResponse{
		Interval:       time.Duration(response.Interval) * time.Second,
		MinInterval:    time.Duration(response.MinInterval) * time.Second,
		Leechers:       response.Incomplete,
		Seeders:        response.Complete,
		Downloaded:     response.Downloaded,
		WarningMessage: response.WarningMessage,
		Peers:          append(peers, peers6...),
	}, nil
}

func parsePeers(raw bencode.RawMessage, compact func([]byte) ([]netip.AddrPort, error)) ([]netip.AddrPort, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == 'l' {
		return parsePeersDictionary(raw)
	}
	var b []byte
	if err := bencode.DecodeBytes(raw, &b); err != nil {
		return nil, err
	}
	return compact(b)
}

func parsePeersDictionary(b bencode.RawMessage) ([]netip.AddrPort, error) {
	var peers []struct {
		IP   string `bencode:"ip"`
		Port uint16 `bencode:"port"`
	}
	err := bencode.DecodeBytes(b, &peers)
	if err != nil {
		return nil, err
	}
	addrs := make([]netip.AddrPort, 0, len(peers))
	for _, p := range peers {
		addr, err := netip.ParseAddr(p.IP)
		if err != nil {
			continue
		}
		addrs = append(addrs, netip.AddrPortFrom(addr, p.Port))
	}
	return addrs, nil
}
