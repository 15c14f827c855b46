package torrent

import "time"

// Alert is a notification from the session. Alerts are queued in emission
// order and drained with Session.PopAlerts.
type Alert interface {
	// Time the alert was emitted.
	Time() time.Time
	// TorrentID the alert is about.
	TorrentID() string
}

type baseAlert struct {
	time      time.Time
	torrentID string
}

func (a baseAlert) Time() time.Time   { return a.time }
func (a baseAlert) TorrentID() string { return a.torrentID }

// TorrentAddedAlert is emitted when a torrent is added to the session.
type TorrentAddedAlert struct {
	baseAlert
	Name string
}

// TorrentResumedAlert is emitted when a torrent transitions from paused to
// active, either by the queue manager or by a user command.
type TorrentResumedAlert struct {
	baseAlert
}

// TorrentPausedAlert is emitted when a torrent transitions from active to
// paused.
type TorrentPausedAlert struct {
	baseAlert
}

// StateChangedAlert is emitted when a torrent's lifecycle state changes.
type StateChangedAlert struct {
	baseAlert
	Prev  State
	State State
}

// TrackerAnnounceAlert is emitted when an announce request is sent to a
// tracker.
type TrackerAnnounceAlert struct {
	baseAlert
	TrackerURL string
}

// TorrentFinishedAlert is emitted once when all pieces of a torrent are
// downloaded and verified.
type TorrentFinishedAlert struct {
	baseAlert
}

// SaveResumeDataAlert carries a resume data snapshot requested with
// Torrent.WriteResumeData.
type SaveResumeDataAlert struct {
	baseAlert
	Data []byte
}

// TorrentErrorAlert is emitted when an operation on a torrent fails.
type TorrentErrorAlert struct {
	baseAlert
	Err error
}

// emitAlert appends an alert to the session queue. Callers must hold the
// session mutex.
func (s *Session) emitAlert(a Alert) {
	s.alerts = append(s.alerts, a)
}

// PopAlerts drains the queued alerts in emission order.
func (s *Session) PopAlerts() []Alert {
	s.m.Lock()
	defer s.m.Unlock()
	alerts := s.alerts
	s.alerts = nil
	return alerts
}
