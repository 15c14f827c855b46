package torrent

import (
	"encoding/base64"
	"io"
	"time"

	"github.com/gofrs/uuid"

	"github.com/cenkalti/brook/internal/metainfo"
	"github.com/cenkalti/brook/resumedata"
)

// AddTorrentOptions contains options for adding a new torrent.
type AddTorrentOptions struct {
	// Directory to store the files. Defaults to the session data dir.
	SavePath string
	// Add the torrent in paused state.
	Paused bool
	// Let the queue manager start and stop the torrent.
	AutoManaged bool
	// Force stop the torrent once its files are checked and complete.
	StopWhenReady bool
}

// AddTorrent parses a torrent file from r and adds it to the session.
func (s *Session) AddTorrent(r io.Reader, opts *AddTorrentOptions) (*Torrent, error) {
	if opts == nil {
		opts = &AddTorrentOptions{}
	}
	mi, err := metainfo.New(r)
	if err != nil {
		return nil, err
	}
	var trackers []string
	var tiers []int
	for tier, urls := range mi.AnnounceList {
		for _, u := range urls {
			trackers = append(trackers, u)
			tiers = append(tiers, tier)
		}
	}
	p := &resumedata.Params{
		Info:         mi.Info.Bytes,
		Name:         mi.Info.Name,
		Comment:      mi.Comment,
		CreationDate: mi.CreationDate,
		CreatedBy:    mi.CreatedBy,
		Trackers:     trackers,
		TrackerTiers: tiers,
		URLSeeds:     mi.URLList,
		HTTPSeeds:    mi.HTTPSeeds,
		InfoHash:     mi.Info.Hash,
		SavePath:     opts.SavePath,
		Flags:        optionFlags(opts),
	}
	if mi.Info.MetaVersion == 2 {
		p.InfoHash2 = mi.Info.HashV2
	}
	return s.AddParams(p)
}

func optionFlags(opts *AddTorrentOptions) resumedata.Flags {
	flags := resumedata.FlagApplyIPFilter
	if opts.Paused {
		flags = flags.With(resumedata.FlagPaused)
	}
	if opts.AutoManaged {
		flags = flags.With(resumedata.FlagAutoManaged)
	}
	if opts.StopWhenReady {
		flags = flags.With(resumedata.FlagStopWhenReady)
	}
	return flags
}

// AddParams adds a torrent from a complete parameters record, usually read
// back from resume data.
func (s *Session) AddParams(p *resumedata.Params) (*Torrent, error) {
	id, err := newTorrentID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	t, err := s.addParams(id, p, now, true)
	if err != nil {
		return nil, err
	}
	s.m.Lock()
	defer s.m.Unlock()
	err = s.writeResumeData(t)
	if err != nil {
		t.close()
		delete(s.torrents, t.id)
		return nil, err
	}
	return t, nil
}

func newTorrentID() (string, error) {
	u1, err := uuid.NewV1()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(u1[:]), nil
}

func (s *Session) addParams(id string, p *resumedata.Params, now time.Time, trigger bool) (*Torrent, error) {
	if p.SavePath == "" {
		p.SavePath = s.config.DataDir
	}
	t, err := s.newTorrent(id, p, now)
	if err != nil {
		return nil, err
	}
	s.m.Lock()
	defer s.m.Unlock()
	t.queuePos = s.nextQueuePos
	s.nextQueuePos++
	s.torrents[id] = t
	s.emitAlert(TorrentAddedAlert{
		baseAlert: baseAlert{time: now, torrentID: id},
		Name:      t.name,
	})
	s.handleAdded(t, now)
	if trigger && s.timersStarted {
		s.autoManage(now)
	}
	return t, nil
}

// handleAdded advances torrents that the queue manager will not touch.
// Callers must hold the session mutex.
func (s *Session) handleAdded(t *Torrent, now time.Time) {
	if t.autoManaged() {
		// The next queue management pass picks it up from the
		// checking queue.
		return
	}
	if t.paused() {
		// A stopped torrent still validates its resume data, but it
		// must not advance far enough to find out it is a seed.
		t.setState(now, CheckingResumeData)
		return
	}
	// Force started: check and run outside the queue.
	s.checkTorrent(t, now)
}

// RemoveTorrent removes the torrent from the session and deletes its resume
// data. Downloaded files are kept.
func (s *Session) RemoveTorrent(id string) error {
	s.m.Lock()
	defer s.m.Unlock()
	t, ok := s.torrents[id]
	if !ok {
		return nil
	}
	t.close()
	delete(s.torrents, id)
	return s.resumer.Remove(id)
}
