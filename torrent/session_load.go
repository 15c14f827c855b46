package torrent

import (
	"sort"
	"time"

	"github.com/cenkalti/brook/resumedata"
)

// loadExistingTorrents reads all resume blobs from the database and re-adds
// the torrents with their saved flags. Queue positions are restored by added
// order. Blobs that fail to decode are skipped with a log message.
func (s *Session) loadExistingTorrents() error {
	blobs, err := s.resumer.ReadAll()
	if err != nil {
		return err
	}
	type loaded struct {
		id     string
		params *resumedata.Params
	}
	var all []loaded
	for id, blob := range blobs {
		p, err := resumedata.Read(blob)
		if err != nil {
			s.log.Errorf("cannot load resume data for %q: %s", id, err.Error())
			continue
		}
		all = append(all, loaded{id: id, params: p})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].params.AddedTime != all[j].params.AddedTime {
			return all[i].params.AddedTime < all[j].params.AddedTime
		}
		return all[i].id < all[j].id
	})
	now := time.Now()
	for _, l := range all {
		_, err := s.addParams(l.id, l.params, now, false)
		if err != nil {
			s.log.Errorf("cannot add torrent %q: %s", l.id, err.Error())
			continue
		}
	}
	s.log.Infof("loaded %d torrents", len(all))
	return nil
}
