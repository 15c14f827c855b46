package torrent

// Queue position commands operate within the torrent's queue class. After
// each command positions are renumbered to stay contiguous.

// QueuePosition returns the torrent's position in its queue class. Lower
// means higher priority.
func (t *Torrent) QueuePosition() int64 {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	return t.queuePos
}

// SetQueuePosition moves the torrent to position n within its class,
// shifting the torrents in between by one.
func (t *Torrent) SetQueuePosition(n int64) {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	if n < 0 {
		n = 0
	}
	cur := t.queuePos
	if n == cur {
		return
	}
	c := t.queueClass()
	for _, other := range s.torrents {
		if other == t || other.queueClass() != c {
			continue
		}
		if n < cur && other.queuePos >= n && other.queuePos < cur {
			other.queuePos++
		} else if n > cur && other.queuePos > cur && other.queuePos <= n {
			other.queuePos--
		}
	}
	t.queuePos = n
	s.renumberQueues()
}

// QueueUp moves the torrent one position up in its class.
func (t *Torrent) QueueUp() {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	if t.queuePos == 0 {
		return
	}
	s.swapQueuePos(t, t.queuePos-1)
}

// QueueDown moves the torrent one position down in its class.
func (t *Torrent) QueueDown() {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	s.swapQueuePos(t, t.queuePos+1)
}

// QueueTop moves the torrent to the head of its class.
func (t *Torrent) QueueTop() {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	t.queuePos = -1
	s.renumberQueues()
}

// QueueBottom moves the torrent to the tail of its class.
func (t *Torrent) QueueBottom() {
	s := t.session
	s.m.Lock()
	defer s.m.Unlock()
	s.renumberQueues()
	t.queuePos = s.nextQueuePos
	s.nextQueuePos++
	s.renumberQueues()
}

// swapQueuePos exchanges positions with the torrent at pos in the same
// class, if any. Callers must hold the session mutex and have renumbered.
func (s *Session) swapQueuePos(t *Torrent, pos int64) {
	c := t.queueClass()
	for _, other := range s.torrents {
		if other != t && other.queueClass() == c && other.queuePos == pos {
			other.queuePos, t.queuePos = t.queuePos, pos
			return
		}
	}
}
