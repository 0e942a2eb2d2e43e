package service

import (
	"time"

	"github.com/womenconnect/platform/internal/adapters/auth"
	"github.com/womenconnect/platform/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of indexing workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the indexing queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithIdempotencySize bounds the number of remembered Idempotency-Key values.
func WithIdempotencySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
	}
}

// WithAvatarLimits sets the upload cap in bytes and the scaled edge length.
func WithAvatarLimits(maxBytes int64, size int) Option {
	return func(s *Service) {
		if maxBytes > 0 {
			s.avatarMaxBytes = maxBytes
		}
		if size > 0 {
			s.avatarSize = size
		}
	}
}

// WithMaxSearchResults caps each kind in Search results. Zero means no cap.
func WithMaxSearchResults(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSearchResults = n
		}
	}
}

// WithAuthOptions passes options to the account service.
func WithAuthOptions(opts ...auth.Option) Option {
	return func(s *Service) {
		s.authOpts = append(s.authOpts, opts...)
	}
}

// WithClock replaces time.Now, e.g. to pin "upcoming" in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the zone for event dates submitted without one.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}
