package blob

import "time"

// Option configures an FSStore.
type Option func(*FSStore)

// WithCompression stores new blobs zstd-compressed. Existing blobs are
// readable either way.
func WithCompression(enabled bool) Option {
	return func(s *FSStore) {
		s.compress = enabled
	}
}

// WithURLPrefix sets the prefix of URLs returned by Put; "/blobs/" by default.
func WithURLPrefix(prefix string) Option {
	return func(s *FSStore) {
		if prefix != "" {
			s.urlPrefix = prefix
		}
	}
}

// WithLockRetry sets how often a busy directory lock is retried.
func WithLockRetry(d time.Duration) Option {
	return func(s *FSStore) {
		if d > 0 {
			s.lockRetry = d
		}
	}
}
