package repository

import "time"

// Option configures a store.
type Option func(*settings)

type settings struct {
	metricsUpdateInterval time.Duration
}

func defaultSettings() settings {
	return settings{metricsUpdateInterval: 5 * time.Second}
}

// WithMetricsUpdateInterval sets the interval for background record-count
// metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
