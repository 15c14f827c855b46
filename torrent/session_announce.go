package torrent

import (
	"context"
	"net/netip"
	"sort"
	"time"

	"github.com/cenkalti/brook/internal/counters"
	"github.com/cenkalti/brook/internal/tracker"
)

// announceAll sends due announces for every active torrent. Checking and
// paused torrents never announce. Callers must hold the session mutex.
func (s *Session) announceAll(now time.Time) {
	torrents := make([]*Torrent, 0, len(s.torrents))
	for _, t := range s.torrents {
		torrents = append(torrents, t)
	}
	// Alerts follow class order, then queue position.
	sort.SliceStable(torrents, func(i, j int) bool {
		ci, cj := torrents[i].queueClass(), torrents[j].queueClass()
		if ci != cj {
			return ci < cj
		}
		return torrents[i].queuePos < torrents[j].queuePos
	})
	for _, t := range torrents {
		if t.paused() || !t.checked || t.state.isChecking() {
			continue
		}
		s.announceTorrent(t, now)
	}
}

func (s *Session) announceTorrent(t *Torrent, now time.Time) {
	for _, a := range t.announcers {
		if !a.ShouldAnnounce(now) {
			continue
		}
		event := tracker.EventNone
		if !a.HasAnnounced {
			event = tracker.EventStarted
		}
		s.emitAlert(TrackerAnnounceAlert{
			baseAlert:  baseAlert{time: now, torrentID: t.id},
			TrackerURL: a.Tracker.URL(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), s.config.TrackerHTTPTimeout)
		resp, err := a.Announce(ctx, t.trackerTorrent(), event, now)
		cancel()
		if err != nil {
			continue
		}
		t.numComplete = int(resp.Seeders)
		t.numIncomplete = int(resp.Leechers)
		if resp.Downloaded > 0 {
			t.numDownloaded = int(resp.Downloaded)
		}
		if resp.Seeders > 0 {
			t.lastSeenComplete = now
		}
		t.addPeers(resp.Peers)
	}
}

// announceStopped tells trackers that were told about the torrent that it is
// leaving the swarm. Callers must hold the session mutex.
func (s *Session) announceStopped(t *Torrent, now time.Time) {
	for _, a := range t.announcers {
		if !a.HasAnnounced {
			continue
		}
		s.emitAlert(TrackerAnnounceAlert{
			baseAlert:  baseAlert{time: now, torrentID: t.id},
			TrackerURL: a.Tracker.URL(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), s.config.TrackerStoppedEventTimeout)
		_, _ = a.Announce(ctx, t.trackerTorrent(), tracker.EventStopped, now)
		cancel()
	}
}

func (t *Torrent) trackerTorrent() tracker.Torrent {
	return tracker.Torrent{
		BytesUploaded:   t.counters.Read(counters.BytesUploaded),
		BytesDownloaded: t.counters.Read(counters.BytesDownloaded),
		BytesLeft:       t.bytesLeft(),
		InfoHash:        t.infoHash,
		PeerID:          t.peerID,
		Port:            t.port,
	}
}

func (t *Torrent) bytesLeft() int64 {
	if t.info == nil {
		return 0
	}
	if t.isFinished() {
		return 0
	}
	left := t.info.TotalLength - int64(t.have.Count())*int64(t.info.PieceLength)
	if left < 0 {
		left = 0
	}
	return left
}

const maxKnownPeers = 1000

func (t *Torrent) addPeers(peers []netip.AddrPort) {
	for _, p := range peers {
		if len(t.peers) >= maxKnownPeers {
			return
		}
		if t.hasPeer(p) {
			continue
		}
		t.peers = append(t.peers, p)
	}
}

func (t *Torrent) hasPeer(p netip.AddrPort) bool {
	for _, q := range t.peers {
		if q == p {
			return true
		}
	}
	for _, q := range t.bannedPeers {
		if q == p {
			return true
		}
	}
	return false
}
