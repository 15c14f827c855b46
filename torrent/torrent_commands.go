package torrent

import (
	"errors"
	"time"

	"github.com/cenkalti/brook/resumedata"
)

// Pause force stops the torrent. The torrent leaves the managed queue and
// stays paused until Resume or SetAutoManaged is called.
func (t *Torrent) Pause() {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	now := time.Now()
	t.setAutoManaged(false)
	s.pauseTorrent(t, now)
}

// Resume force starts the torrent. The torrent leaves the managed queue and
// runs regardless of the slot limits.
func (t *Torrent) Resume() {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	now := time.Now()
	t.setAutoManaged(false)
	if !t.checked {
		s.checkTorrent(t, now)
	}
	s.resumeTorrent(t, now)
}

// SetAutoManaged hands the torrent over to the queue manager, or takes it
// back. A torrent handed over keeps its paused flag until the next queue
// management pass decides otherwise.
func (t *Torrent) SetAutoManaged(v bool) {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	t.setAutoManaged(v)
	if v && s.timersStarted {
		s.autoManage(time.Now())
	}
}

// SetUploadLimit sets the upload rate limit in bytes per second. Zero or
// negative means unlimited.
func (t *Torrent) SetUploadLimit(bytesPerSecond int64) {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	t.uploadLimit = bytesPerSecond
}

// SetDownloadLimit sets the download rate limit in bytes per second. Zero or
// negative means unlimited. The limit also throttles file checking reads.
func (t *Torrent) SetDownloadLimit(bytesPerSecond int64) {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	t.downloadLimit = bytesPerSecond
	t.applyDownloadLimit()
}

// WriteResumeData snapshots the torrent through the resume data codec,
// stores the blob in the session database and posts a SaveResumeDataAlert
// carrying the encoded bytes.
func (t *Torrent) WriteResumeData() error {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	data := resumedata.WriteBuf(t.resumeData())
	err := s.resumer.Write(t.id, data)
	if err != nil {
		return err
	}
	s.emitAlert(SaveResumeDataAlert{
		baseAlert: baseAlert{time: time.Now(), torrentID: t.id},
		Data:      data,
	})
	return nil
}

// WriteTorrent returns the torrent file bytes rebuilt from the torrent's
// metadata. The info dictionary is passed through verbatim, so the file
// keeps the original info hash.
func (t *Torrent) WriteTorrent() ([]byte, error) {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	if len(t.rawInfo) == 0 {
		return nil, errors.New("torrent has no metadata yet")
	}
	return resumedata.WriteTorrent(t.resumeData()).Bencode(), nil
}
