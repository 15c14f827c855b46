package torrent

import (
	"math"
	"sort"
	"time"

	"github.com/cenkalti/brook/internal/counters"
	"github.com/cenkalti/brook/resumedata"
)

type queueClass int

const (
	classChecking queueClass = iota
	classDownloading
	classSeeding
	numClasses
)

func (t *Torrent) queueClass() queueClass {
	if !t.checked || t.state.isChecking() {
		return classChecking
	}
	if t.isFinished() {
		return classSeeding
	}
	return classDownloading
}

// limit converts the -1 sentinel to an effectively infinite slot count.
func limit(n int) int {
	if n < 0 {
		return math.MaxInt32
	}
	return n
}

func sortByQueuePos(torrents []*Torrent) {
	sort.SliceStable(torrents, func(i, j int) bool {
		return torrents[i].queuePos < torrents[j].queuePos
	})
}

// autoManage runs one queue management pass: it checks pending torrents,
// computes the desired active set per class and resumes or pauses torrents
// to match it. Callers must hold the session mutex.
func (s *Session) autoManage(now time.Time) {
	s.accumulateTimes(now)
	s.renumberQueues()

	var managed []*Torrent
	for _, t := range s.torrents {
		if t.autoManaged() {
			managed = append(managed, t)
		}
	}

	// File checks first. A torrent in a checking state holds a checking
	// slot only; it competes for a download or seed slot on the same pass
	// once its check completes.
	var checking []*Torrent
	for _, t := range managed {
		if t.queueClass() == classChecking {
			checking = append(checking, t)
		}
	}
	sortByQueuePos(checking)
	k := limit(s.config.ActiveChecking)
	for i := 0; i < len(checking) && i < k; i++ {
		s.checkTorrent(checking[i], now)
	}

	var downloading, seeding []*Torrent
	for _, t := range managed {
		if !t.autoManaged() {
			// A completed check may have handed the torrent back to
			// the user.
			continue
		}
		switch t.queueClass() {
		case classDownloading:
			downloading = append(downloading, t)
		case classSeeding:
			seeding = append(seeding, t)
		}
	}

	activeTotal := 0
	globalLimit := limit(s.config.ActiveLimit)
	s.manageClass(classDownloading, downloading, limit(s.config.ActiveDownloads), &activeTotal, globalLimit, now)
	s.manageClass(classSeeding, seeding, limit(s.config.ActiveSeeds), &activeTotal, globalLimit, now)

	s.announceAll(now)
}

// manageClass walks one queue class in priority order, keeps or admits
// torrents while slots last and evicts the rest. Admissions are paced to one
// per class per interval; evictions are immediate.
func (s *Session) manageClass(c queueClass, torrents []*Torrent, classLimit int, activeTotal *int, globalLimit int, now time.Time) {
	sortByQueuePos(torrents)
	used := 0
	for _, t := range torrents {
		if !t.paused() && s.config.DontCountSlowTorrents && t.isSlow() {
			// Active slow torrents stay active without occupying a
			// slot.
			continue
		}
		hasSlot := used < classLimit && *activeTotal < globalLimit
		if !t.paused() {
			if hasSlot {
				used++
				*activeTotal++
			} else {
				s.pauseTorrent(t, now)
			}
			continue
		}
		if !hasSlot {
			continue
		}
		// The slot is reserved even when pacing defers the start, so a
		// lower priority torrent cannot jump the queue.
		used++
		*activeTotal++
		if s.canStart(c, now) {
			s.resumeTorrent(t, now)
			s.lastStart[c] = now
		}
	}
}

func (s *Session) canStart(c queueClass, now time.Time) bool {
	last := s.lastStart[c]
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= s.config.AutoManageInterval
}

// checkTorrent validates resume data and probes the save path for existing
// pieces. The check is synchronous and does not change the paused flag,
// except that a stop-when-ready torrent found complete is paused by
// setFinished. Callers must hold the session mutex.
func (s *Session) checkTorrent(t *Torrent, now time.Time) {
	t.setState(now, CheckingResumeData)
	if t.info == nil {
		t.checked = true
		t.setState(now, DownloadingMetadata)
		return
	}
	if t.storageAllocate {
		t.setState(now, Allocating)
		err := allocateFiles(t.info, t.mappedFiles, t.savePath)
		if err != nil {
			t.lastError = err
			s.emitAlert(TorrentErrorAlert{
				baseAlert: baseAlert{time: now, torrentID: t.id},
				Err:       err,
			})
			t.setState(now, QueuedForChecking)
			return
		}
	}
	t.setState(now, CheckingFiles)
	have, err := s.checker.Check(t.info, t.mappedFiles, t.savePath, t.downloadLimiter)
	if err != nil {
		t.lastError = err
		s.emitAlert(TorrentErrorAlert{
			baseAlert: baseAlert{time: now, torrentID: t.id},
			Err:       err,
		})
		t.setState(now, QueuedForChecking)
		return
	}
	t.have = have
	t.checked = true
	if t.info != nil && t.have.Len() > 0 && t.have.All() {
		s.setFinished(t, now)
	} else {
		t.setState(now, Downloading)
		// Move to the end of the download queue.
		t.queuePos = s.nextQueuePos
		s.nextQueuePos++
		s.renumberQueues()
	}
}

// setFinished moves a torrent that has all its pieces into the seeding
// class. Callers must hold the session mutex.
func (s *Session) setFinished(t *Torrent, now time.Time) {
	t.setState(now, Finished)
	if t.completedTime.IsZero() {
		t.completedTime = now
		s.emitAlert(TorrentFinishedAlert{
			baseAlert: baseAlert{time: now, torrentID: t.id},
		})
	}
	t.setState(now, Seeding)
	// Move to the end of the seed queue.
	t.queuePos = s.nextQueuePos
	s.nextQueuePos++
	s.renumberQueues()
	if t.flags.Has(resumedata.FlagStopWhenReady) {
		if !t.paused() {
			s.pauseTorrent(t, now)
		}
		t.setAutoManaged(false)
	}
}

// resumeTorrent transitions a torrent from paused to active. Callers must
// hold the session mutex.
func (s *Session) resumeTorrent(t *Torrent, now time.Time) {
	if !t.paused() {
		return
	}
	t.setPaused(false)
	t.lastActive = now
	s.emitAlert(TorrentResumedAlert{
		baseAlert: baseAlert{time: now, torrentID: t.id},
	})
}

// pauseTorrent gracefully transitions a torrent from active to paused,
// sending the stopped event to trackers that were told about the torrent.
// Callers must hold the session mutex.
func (s *Session) pauseTorrent(t *Torrent, now time.Time) {
	if t.paused() {
		return
	}
	t.setPaused(true)
	s.emitAlert(TorrentPausedAlert{
		baseAlert: baseAlert{time: now, torrentID: t.id},
	})
	s.announceStopped(t, now)
}

// renumberQueues restores contiguous queue positions within each class,
// preserving relative order. Callers must hold the session mutex.
func (s *Session) renumberQueues() {
	var classes [numClasses][]*Torrent
	for _, t := range s.torrents {
		c := t.queueClass()
		classes[c] = append(classes[c], t)
	}
	for _, torrents := range classes {
		sortByQueuePos(torrents)
		for i, t := range torrents {
			t.queuePos = int64(i)
		}
	}
}

// accumulateTimes adds the elapsed wall clock since the previous pass to the
// active, finished and seeding counters of each torrent.
func (s *Session) accumulateTimes(now time.Time) {
	if !s.lastTick.IsZero() {
		delta := int64(now.Sub(s.lastTick) / time.Second)
		if delta > 0 {
			for _, t := range s.torrents {
				if t.paused() {
					continue
				}
				t.counters.Incr(counters.ActiveTime, delta)
				if t.isFinished() {
					t.counters.Incr(counters.FinishedTime, delta)
				}
				if t.isSeeding() {
					t.counters.Incr(counters.SeedingTime, delta)
				}
			}
		}
	}
	s.lastTick = now
}
