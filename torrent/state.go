package torrent

// State of a torrent's lifecycle.
type State int

// Torrent states.
const (
	QueuedForChecking State = iota
	CheckingResumeData
	CheckingFiles
	DownloadingMetadata
	Downloading
	Finished
	Seeding
	Allocating
)

var stateNames = map[State]string{
	QueuedForChecking:   "queued for checking",
	CheckingResumeData:  "checking resume data",
	CheckingFiles:       "checking files",
	DownloadingMetadata: "downloading metadata",
	Downloading:         "downloading",
	Finished:            "finished",
	Seeding:             "seeding",
	Allocating:          "allocating",
}

// String returns the name of the state.
func (s State) String() string {
	return stateNames[s]
}

// isChecking reports whether the state is one of the checking phases.
func (s State) isChecking() bool {
	switch s {
	case QueuedForChecking, CheckingResumeData, CheckingFiles:
		return true
	}
	return false
}
