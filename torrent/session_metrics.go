package torrent

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

func (s *Session) registerMetrics() {
	metrics.NewRegisteredFunctionalGauge("session.torrents", s.metrics, func() int64 {
		s.m.Lock()
		defer s.m.Unlock()
		return int64(len(s.torrents))
	})
	metrics.NewRegisteredFunctionalGauge("session.uptime_seconds", s.metrics, func() int64 {
		return int64(time.Since(s.createdAt) / time.Second)
	})
	metrics.NewRegisteredFunctionalGaugeFloat64("session.download_speed", s.metrics, func() float64 {
		return s.sumRates(func(t *Torrent) float64 { return t.downloadRate() })
	})
	metrics.NewRegisteredFunctionalGaugeFloat64("session.upload_speed", s.metrics, func() float64 {
		return s.sumRates(func(t *Torrent) float64 { return t.uploadRate() })
	})
}

func (s *Session) sumRates(rate func(*Torrent) float64) float64 {
	s.m.Lock()
	defer s.m.Unlock()
	var sum float64
	for _, t := range s.torrents {
		sum += rate(t)
	}
	return sum
}

// Metrics returns the session metrics registry.
func (s *Session) Metrics() metrics.Registry {
	return s.metrics
}
