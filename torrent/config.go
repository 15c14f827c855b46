package torrent

import (
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

// Config for Session.
type Config struct {
	// Path for the database file that keeps resume data.
	Database string `yaml:"database"`
	// Directory to keep downloaded files.
	DataDir string `yaml:"data-dir"`

	// Max number of unpaused downloading torrents. -1 means unlimited.
	ActiveDownloads int `yaml:"active-downloads"`
	// Max number of unpaused seeding torrents. -1 means unlimited.
	ActiveSeeds int `yaml:"active-seeds"`
	// Max number of torrents checking files at the same time. -1 means unlimited.
	ActiveChecking int `yaml:"active-checking"`
	// Max number of unpaused torrents in total. -1 means unlimited.
	ActiveLimit int `yaml:"active-limit"`
	// When true, torrents at or below the slow rate thresholds do not occupy
	// download or seed slots.
	DontCountSlowTorrents bool `yaml:"dont-count-slow-torrents"`
	// Download rate in bytes per second at or below which a torrent is considered slow.
	SlowDownloadRate int `yaml:"slow-download-rate"`
	// Upload rate in bytes per second at or below which a torrent is considered slow.
	SlowUploadRate int `yaml:"slow-upload-rate"`
	// Interval between queue management passes. Also the minimum spacing
	// between torrent starts within one queue class.
	AutoManageInterval time.Duration `yaml:"auto-manage-interval"`

	// Interval for writing resume data of all torrents to the database.
	ResumeWriteInterval time.Duration `yaml:"resume-write-interval"`

	// Number of peer addresses to request in announce request.
	TrackerNumWant int `yaml:"tracker-numwant"`
	// Minimum time between two announces to the same tracker.
	TrackerMinAnnounceInterval time.Duration `yaml:"tracker-min-announce-interval"`
	// Retry delays after failed announces are multiplied by this percentage.
	TrackerBackoff int `yaml:"tracker-backoff"`
	// Total time to wait for a response from an HTTP tracker.
	TrackerHTTPTimeout time.Duration `yaml:"tracker-http-timeout"`
	// Time to wait for announcing the stopped event while pausing a torrent.
	TrackerStoppedEventTimeout time.Duration `yaml:"tracker-stopped-event-timeout"`
}

// DefaultConfig for Session. Do not pass zero value Config to New.
// Copy this struct and modify instead.
var DefaultConfig = Config{
	Database: "~/brook/session.db",
	DataDir:  "~/brook/data",

	ActiveDownloads:       3,
	ActiveSeeds:           5,
	ActiveChecking:        1,
	ActiveLimit:           15,
	DontCountSlowTorrents: true,
	SlowDownloadRate:      0,
	SlowUploadRate:        0,
	AutoManageInterval:    time.Minute,

	ResumeWriteInterval: 30 * time.Second,

	TrackerNumWant:             100,
	TrackerMinAnnounceInterval: time.Minute,
	TrackerBackoff:             250,
	TrackerHTTPTimeout:         30 * time.Second,
	TrackerStoppedEventTimeout: 5 * time.Second,
}

// LoadConfig from a YAML file. Unset keys keep their values in c.
func (c *Config) LoadConfig(filename string) error {
	filename, err := homedir.Expand(filename)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

// autoManageInterval clamps the pass cadence to sane bounds. A zero value
// disables the background timer but event triggered passes still run.
func (c *Config) autoManageInterval() time.Duration {
	if c.AutoManageInterval == 0 {
		return 0
	}
	if c.AutoManageInterval < 5*time.Second {
		return 5 * time.Second
	}
	if c.AutoManageInterval > time.Minute {
		return time.Minute
	}
	return c.AutoManageInterval
}
