package torrent

import (
	"crypto/rand"
	"net/netip"
	"net/url"
	"time"

	"github.com/juju/ratelimit"
	"github.com/rcrowley/go-metrics"

	"github.com/cenkalti/brook/internal/announcer"
	"github.com/cenkalti/brook/internal/bitfield"
	"github.com/cenkalti/brook/internal/counters"
	"github.com/cenkalti/brook/internal/logger"
	"github.com/cenkalti/brook/internal/metainfo"
	"github.com/cenkalti/brook/internal/stringutil"
	"github.com/cenkalti/brook/internal/tracker/httptracker"
	"github.com/cenkalti/brook/resumedata"
)

var peerIDPrefix = []byte("-BK0001-")

// Torrent is a torrent managed by a Session. All exported methods are safe
// to call from multiple goroutines.
type Torrent struct {
	session *Session
	id      string
	name    string
	log     logger.Logger

	infoHash  [20]byte
	infoHash2 [32]byte
	peerID    [20]byte
	port      int

	rawInfo []byte
	info    *metainfo.Info

	comment      string
	creationDate int64
	createdBy    string

	flags resumedata.Flags
	state State

	// Position in the torrent's queue class. Lower means higher priority.
	queuePos int64

	savePath        string
	storageAllocate bool

	have       bitfield.BitField
	verified   bitfield.BitField
	unfinished []resumedata.UnfinishedPiece
	// File check has completed at least once. Until then the torrent
	// occupies the checking queue.
	checked bool

	filePriorities  []byte
	piecePriorities []byte
	mappedFiles     []string
	trees           []resumedata.FileTree

	peers       []netip.AddrPort
	bannedPeers []netip.AddrPort
	urlSeeds    []string
	httpSeeds   []string

	trackers   []string
	tiers      []int
	announcers []*announcer.Announcer

	counters         counters.Counters
	addedTime        time.Time
	completedTime    time.Time
	lastSeenComplete time.Time
	lastDownload     time.Time
	lastUpload       time.Time
	lastActive       time.Time

	numComplete   int
	numIncomplete int
	numDownloaded int

	downloadSpeed metrics.Meter
	uploadSpeed   metrics.Meter

	uploadLimit     int64
	downloadLimit   int64
	maxConnections  int64
	maxUploads      int64
	downloadLimiter *ratelimit.Bucket

	lastError error
}

func (s *Session) newTorrent(id string, p *resumedata.Params, addedTime time.Time) (*Torrent, error) {
	name := p.Name
	logName := stringutil.Asciify(name)
	if len(logName) > 20 {
		logName = logName[:20]
	}
	t := &Torrent{
		session:         s,
		id:              id,
		name:            name,
		log:             logger.New("torrent " + logName),
		infoHash:        p.InfoHash,
		infoHash2:       p.InfoHash2,
		comment:         p.Comment,
		creationDate:    p.CreationDate,
		createdBy:       p.CreatedBy,
		flags:           p.Flags,
		state:           QueuedForChecking,
		savePath:        p.SavePath,
		storageAllocate: p.StorageModeAllocate,
		have:            p.Have,
		verified:        p.Verified,
		unfinished:      p.Unfinished,
		filePriorities:  p.FilePriorities,
		piecePriorities: p.PiecePriorities,
		mappedFiles:     p.MappedFiles,
		trees:           p.Trees,
		peers:           p.Peers,
		bannedPeers:     p.BannedPeers,
		urlSeeds:        p.URLSeeds,
		httpSeeds:       p.HTTPSeeds,
		trackers:        p.Trackers,
		tiers:           p.TrackerTiers,
		addedTime:       addedTime,
		counters: counters.New(
			p.TotalDownloaded,
			p.TotalUploaded,
			p.ActiveTime,
			p.FinishedTime,
			p.SeedingTime,
		),
		uploadLimit:    p.UploadLimit,
		downloadLimit:  p.DownloadLimit,
		maxConnections: p.MaxConnections,
		maxUploads:     p.MaxUploads,
	}
	if p.AddedTime > 0 {
		t.addedTime = time.Unix(p.AddedTime, 0)
	}
	if p.CompletedTime > 0 {
		t.completedTime = time.Unix(p.CompletedTime, 0)
	}
	if p.LastSeenComplete > 0 {
		t.lastSeenComplete = time.Unix(p.LastSeenComplete, 0)
	}
	if p.LastDownload > 0 {
		t.lastDownload = time.Unix(p.LastDownload, 0)
	}
	if p.LastUpload > 0 {
		t.lastUpload = time.Unix(p.LastUpload, 0)
	}
	t.numComplete = int(p.NumComplete)
	t.numIncomplete = int(p.NumIncomplete)
	t.numDownloaded = int(p.NumDownloaded)

	copy(t.peerID[:], peerIDPrefix)
	_, err := rand.Read(t.peerID[len(peerIDPrefix):])
	if err != nil {
		return nil, err
	}

	if len(p.Info) > 0 {
		info, err := metainfo.NewInfo(p.Info)
		if err != nil {
			return nil, err
		}
		t.rawInfo = p.Info
		t.info = info
		t.infoHash = info.Hash
		if info.MetaVersion == 2 {
			t.infoHash2 = info.HashV2
		}
		if t.name == "" {
			t.name = info.Name
		}
		if t.have.Len() == 0 {
			t.have = bitfield.New(info.NumPieces)
		}
		if t.verified.Len() == 0 {
			t.verified = bitfield.New(info.NumPieces)
		}
	} else {
		t.state = DownloadingMetadata
	}
	t.applyDownloadLimit()

	t.downloadSpeed = metrics.NewRegisteredMeter("torrent."+id+".download_speed", s.metrics)
	t.uploadSpeed = metrics.NewRegisteredMeter("torrent."+id+".upload_speed", s.metrics)

	t.announcers = s.newAnnouncers(t.trackers)
	return t, nil
}

func (s *Session) newAnnouncers(trackers []string) []*announcer.Announcer {
	backoffScale := float64(s.config.TrackerBackoff) / 100
	ret := make([]*announcer.Announcer, 0, len(trackers))
	for _, tr := range trackers {
		u, err := url.Parse(tr)
		if err != nil {
			s.log.Debugln("cannot parse tracker url:", err)
			continue
		}
		switch u.Scheme {
		case "http", "https":
			trk := httptracker.New(u, s.httpClient)
			a := announcer.New(trk, s.config.TrackerNumWant, s.config.TrackerMinAnnounceInterval, backoffScale, logger.New("announcer "+tr))
			ret = append(ret, a)
		default:
			s.log.Debugln("unsupported tracker scheme:", u.Scheme)
		}
	}
	return ret
}

func (t *Torrent) applyDownloadLimit() {
	if t.downloadLimit > 0 {
		t.downloadLimiter = ratelimit.NewBucketWithRate(float64(t.downloadLimit), t.downloadLimit)
	} else {
		t.downloadLimiter = nil
	}
}

// ID of the torrent, unique within the session.
func (t *Torrent) ID() string { return t.id }

// Name of the torrent.
func (t *Torrent) Name() string {
	t.session.m.Lock()
	defer t.session.m.Unlock()
	return t.name
}

// InfoHash of the torrent.
func (t *Torrent) InfoHash() [20]byte { return t.infoHash }

// AddedTime the torrent was added to the session.
func (t *Torrent) AddedTime() time.Time {
	t.session.m.Lock()
	defer t.session.m.Unlock()
	return t.addedTime
}

func (t *Torrent) paused() bool      { return t.flags.Has(resumedata.FlagPaused) }
func (t *Torrent) autoManaged() bool { return t.flags.Has(resumedata.FlagAutoManaged) }

func (t *Torrent) setPaused(v bool) {
	if v {
		t.flags = t.flags.With(resumedata.FlagPaused)
	} else {
		t.flags = t.flags.Without(resumedata.FlagPaused)
	}
}

func (t *Torrent) setAutoManaged(v bool) {
	if v {
		t.flags = t.flags.With(resumedata.FlagAutoManaged)
	} else {
		t.flags = t.flags.Without(resumedata.FlagAutoManaged)
	}
}

// isFinished reports whether all wanted pieces are downloaded.
func (t *Torrent) isFinished() bool {
	return t.checked && t.info != nil && t.have.Len() > 0 && t.have.All()
}

// isSeeding reports whether the torrent is an active seed.
func (t *Torrent) isSeeding() bool {
	return t.isFinished() && !t.paused()
}

func (t *Torrent) setState(now time.Time, state State) {
	if t.state == state {
		return
	}
	prev := t.state
	t.state = state
	t.log.Debugf("state changed: %q -> %q", prev.String(), state.String())
	t.session.emitAlert(StateChangedAlert{
		baseAlert: baseAlert{time: now, torrentID: t.id},
		Prev:      prev,
		State:     state,
	})
}

func (t *Torrent) downloadRate() float64 { return t.downloadSpeed.Rate1() }
func (t *Torrent) uploadRate() float64   { return t.uploadSpeed.Rate1() }

// isSlow reports whether both transfer rates are at or below the configured
// slow thresholds. Checking torrents are never slow.
func (t *Torrent) isSlow() bool {
	if t.state.isChecking() {
		return false
	}
	cfg := &t.session.config
	return t.downloadRate() <= float64(cfg.SlowDownloadRate) &&
		t.uploadRate() <= float64(cfg.SlowUploadRate)
}

func (t *Torrent) close() {
	t.session.metrics.Unregister("torrent." + t.id + ".download_speed")
	t.session.metrics.Unregister("torrent." + t.id + ".upload_speed")
	t.downloadSpeed.Stop()
	t.uploadSpeed.Stop()
}
