// Package torrent provides a BitTorrent session that manages a queue of
// torrents, persists their state as resume data and announces them to
// trackers.
package torrent

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rcrowley/go-metrics"
	bolt "go.etcd.io/bbolt"

	"github.com/cenkalti/brook/internal/logger"
	"github.com/cenkalti/brook/internal/resumer"
	"github.com/cenkalti/brook/internal/resumer/boltdbresumer"
	"github.com/cenkalti/brook/resumedata"
)

var torrentsBucket = []byte("torrents")

// Session manages torrents and their queue. All methods are safe to call
// from multiple goroutines.
type Session struct {
	config     Config
	db         *bolt.DB
	resumer    resumer.Resumer
	log        logger.Logger
	checker    Checker
	httpClient *http.Client
	metrics    metrics.Registry
	createdAt  time.Time

	m            sync.Mutex
	torrents     map[string]*Torrent
	alerts       []Alert
	lastStart    [numClasses]time.Time
	lastTick     time.Time
	nextQueuePos int64

	// Set when background timers are running. Event triggered queue
	// management passes are skipped before that to keep startup cheap.
	timersStarted bool

	closeC chan struct{}
	wg     sync.WaitGroup
}

// New returns a new torrent session with the given config.
func New(cfg Config) (*Session, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	s.startTimers()
	return s, nil
}

func newSession(cfg Config) (*Session, error) {
	var err error
	cfg.Database, err = homedir.Expand(cfg.Database)
	if err != nil {
		return nil, err
	}
	cfg.DataDir, err = homedir.Expand(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(filepath.Dir(cfg.Database), 0o750)
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(cfg.DataDir, 0o750)
	if err != nil {
		return nil, err
	}
	db, err := bolt.Open(cfg.Database, 0o640, &bolt.Options{Timeout: time.Second})
	if err == bolt.ErrTimeout {
		return nil, errors.New("resume database is locked by another process")
	} else if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	res, err := boltdbresumer.New(db, torrentsBucket)
	if err != nil {
		return nil, err
	}
	s := &Session{
		config:  cfg,
		db:      db,
		resumer: res,
		log:     logger.New("session"),
		checker: &fileChecker{},
		httpClient: &http.Client{
			Timeout: cfg.TrackerHTTPTimeout,
		},
		metrics:   metrics.NewRegistry(),
		createdAt: time.Now(),
		torrents:  make(map[string]*Torrent),
		closeC:    make(chan struct{}),
	}
	s.registerMetrics()
	err = s.loadExistingTorrents()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) startTimers() {
	s.m.Lock()
	s.timersStarted = true
	s.m.Unlock()
	if d := s.config.autoManageInterval(); d > 0 {
		s.wg.Add(1)
		go s.autoManageLoop(d)
	}
	if d := s.config.ResumeWriteInterval; d > 0 {
		s.wg.Add(1)
		go s.resumeWriteLoop(d)
	}
}

func (s *Session) autoManageLoop(d time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.m.Lock()
			s.autoManage(now)
			s.m.Unlock()
		case <-s.closeC:
			return
		}
	}
}

func (s *Session) resumeWriteLoop(d time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.writeResumeDataAll()
		case <-s.closeC:
			return
		}
	}
}

func (s *Session) writeResumeDataAll() {
	s.m.Lock()
	defer s.m.Unlock()
	for _, t := range s.torrents {
		err := s.writeResumeData(t)
		if err != nil {
			s.log.Errorln("cannot write resume data:", err.Error())
		}
	}
}

// writeResumeData snapshots t through the codec and stores the blob.
// Callers must hold the session mutex.
func (s *Session) writeResumeData(t *Torrent) error {
	data := resumedata.WriteBuf(t.resumeData())
	return s.resumer.Write(t.id, data)
}

// ListTorrents returns all torrents in the session sorted by ID.
func (s *Session) ListTorrents() []*Torrent {
	s.m.Lock()
	defer s.m.Unlock()
	ret := make([]*Torrent, 0, len(s.torrents))
	for _, t := range s.torrents {
		ret = append(ret, t)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].id < ret[j].id })
	return ret
}

// GetTorrent returns the torrent with the given ID, or nil.
func (s *Session) GetTorrent(id string) *Torrent {
	s.m.Lock()
	defer s.m.Unlock()
	return s.torrents[id]
}

// Close stops the session timers, writes resume data of all torrents and
// closes the database.
func (s *Session) Close() error {
	close(s.closeC)
	s.wg.Wait()
	s.writeResumeDataAll()
	s.m.Lock()
	for _, t := range s.torrents {
		t.close()
	}
	s.torrents = make(map[string]*Torrent)
	s.m.Unlock()
	return s.db.Close()
}
