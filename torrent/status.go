package torrent

import (
	"encoding/hex"
	"time"

	"github.com/cenkalti/brook/internal/counters"
)

// Status is a snapshot of the torrent's observable state.
type Status struct {
	ID            string
	Name          string
	InfoHash      string
	State         string
	Paused        bool
	AutoManaged   bool
	Finished      bool
	Seeding       bool
	QueuePosition int64

	BytesDownloaded int64
	BytesUploaded   int64
	BytesLeft       int64
	DownloadSpeed   int
	UploadSpeed     int

	NumPeers      int
	NumComplete   int
	NumIncomplete int

	AddedAt     time.Time
	CompletedAt time.Time

	UploadLimit   int64
	DownloadLimit int64

	Trackers []string
	Error    string
}

// Status returns a snapshot of the torrent's observable state.
func (t *Torrent) Status() Status {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	st := Status{
		ID:            t.id,
		Name:          t.name,
		InfoHash:      hex.EncodeToString(t.infoHash[:]),
		State:         t.state.String(),
		Paused:        t.paused(),
		AutoManaged:   t.autoManaged(),
		Finished:      t.isFinished(),
		Seeding:       t.isSeeding(),
		QueuePosition: t.queuePos,

		BytesDownloaded: t.counters.Read(counters.BytesDownloaded),
		BytesUploaded:   t.counters.Read(counters.BytesUploaded),
		BytesLeft:       t.bytesLeft(),
		DownloadSpeed:   int(t.downloadRate()),
		UploadSpeed:     int(t.uploadRate()),

		NumPeers:      len(t.peers),
		NumComplete:   t.numComplete,
		NumIncomplete: t.numIncomplete,

		AddedAt: t.addedTime,

		UploadLimit:   t.uploadLimit,
		DownloadLimit: t.downloadLimit,

		Trackers: t.trackers,
	}
	if !t.completedTime.IsZero() {
		st.CompletedAt = t.completedTime
	}
	if t.lastError != nil {
		st.Error = t.lastError.Error()
	}
	return st
}
