package torrent

import (
	"github.com/cenkalti/brook/internal/counters"
	"github.com/cenkalti/brook/resumedata"
)

// resumeData snapshots the torrent into an add-parameters record. The
// snapshot is taken under the session mutex, so it is consistent. Callers
// must hold the session mutex.
func (t *Torrent) resumeData() *resumedata.Params {
	p := &resumedata.Params{
		Info:         t.rawInfo,
		Comment:      t.comment,
		CreationDate: t.creationDate,
		CreatedBy:    t.createdBy,
		Name:         t.name,

		Trackers:     t.trackers,
		TrackerTiers: t.tiers,
		URLSeeds:     t.urlSeeds,
		HTTPSeeds:    t.httpSeeds,
		Trees:        t.trees,

		SavePath:            t.savePath,
		StorageModeAllocate: t.storageAllocate,

		TotalUploaded:   t.counters.Read(counters.BytesUploaded),
		TotalDownloaded: t.counters.Read(counters.BytesDownloaded),
		ActiveTime:      t.counters.Read(counters.ActiveTime),
		FinishedTime:    t.counters.Read(counters.FinishedTime),
		SeedingTime:     t.counters.Read(counters.SeedingTime),

		NumComplete:   int64(t.numComplete),
		NumIncomplete: int64(t.numIncomplete),
		NumDownloaded: int64(t.numDownloaded),

		Flags:     t.flags,
		AddedTime: t.addedTime.Unix(),

		InfoHash:  t.infoHash,
		InfoHash2: t.infoHash2,

		Have:       t.have,
		Verified:   t.verified,
		Unfinished: t.unfinished,

		MappedFiles: t.mappedFiles,

		Peers:       t.peers,
		BannedPeers: t.bannedPeers,

		UploadLimit:    t.uploadLimit,
		DownloadLimit:  t.downloadLimit,
		MaxConnections: t.maxConnections,
		MaxUploads:     t.maxUploads,

		FilePriorities:  t.filePriorities,
		PiecePriorities: t.piecePriorities,
	}
	if !t.completedTime.IsZero() {
		p.CompletedTime = t.completedTime.Unix()
	}
	if !t.lastSeenComplete.IsZero() {
		p.LastSeenComplete = t.lastSeenComplete.Unix()
	}
	if !t.lastDownload.IsZero() {
		p.LastDownload = t.lastDownload.Unix()
	}
	if !t.lastUpload.IsZero() {
		p.LastUpload = t.lastUpload.Unix()
	}
	return p
}
