// Package blob stores uploaded files on the local filesystem.
//
// Each blob is one file holding a small header (magic, flags, content type)
// followed by the payload, optionally zstd-compressed. Writers take an
// exclusive flock on the directory so several processes can share it.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"

	"github.com/womenconnect/platform/pkg/metrics"
)

const (
	lockFile  = ".lock"
	flagZstd  = 1 << 0
	maxCTLen  = 255
	headerLen = 4 + 1 + 1 // magic + flags + content type length
)

var magic = []byte("WCB1")

// FSStore is a directory-backed blob store.
type FSStore struct {
	dir       string
	compress  bool
	urlPrefix string
	lockRetry time.Duration

	lockPath string
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewFSStore creates dir if needed and returns a store rooted there.
func NewFSStore(dir string, opts ...Option) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}

	s := &FSStore{
		dir:       dir,
		urlPrefix: "/blobs/",
		lockRetry: 20 * time.Millisecond,
		lockPath:  filepath.Join(dir, lockFile),
		encoder:   enc,
		decoder:   dec,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the codecs.
func (s *FSStore) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

// URL returns the public URL for key.
func (s *FSStore) URL(key string) string {
	return s.urlPrefix + key
}

// Put writes data under key, replacing any previous blob, and returns its URL.
func (s *FSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if len(contentType) > maxCTLen {
		return "", fmt.Errorf("content type longer than %d bytes", maxCTLen)
	}

	var flags byte
	payload := data
	if s.compress {
		flags |= flagZstd
		payload = s.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
	}

	var buf bytes.Buffer
	buf.Grow(headerLen + len(contentType) + len(payload))
	buf.Write(magic)
	buf.WriteByte(flags)
	buf.WriteByte(byte(len(contentType)))
	buf.WriteString(contentType)
	buf.Write(payload)

	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob parent: %w", err)
	}

	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return "", err
	}
	defer unlock()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publish blob: %w", err)
	}

	metrics.RecordBlobUpload(len(data))
	return s.URL(key), nil
}

// Get returns the payload and content type stored under key.
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if err := ValidateKey(key); err != nil {
		return nil, "", err
	}

	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(s.path(key))
	unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return s.decode(raw)
}

// Delete removes key. Missing blobs are not an error.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *FSStore) decode(raw []byte) ([]byte, string, error) {
	if len(raw) < headerLen || !bytes.Equal(raw[:4], magic) {
		return nil, "", ErrCorrupt
	}
	flags := raw[4]
	ctLen := int(raw[5])
	if len(raw) < headerLen+ctLen {
		return nil, "", ErrCorrupt
	}
	contentType := string(raw[headerLen : headerLen+ctLen])
	payload := raw[headerLen+ctLen:]

	if flags&flagZstd != 0 {
		out, err := s.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, contentType, nil
	}
	return payload, contentType, nil
}

// acquire takes the directory lock through a fresh file handle so that
// goroutines of one process exclude each other as well.
func (s *FSStore) acquire(ctx context.Context, shared bool) (func(), error) {
	l := flock.New(s.lockPath)
	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = l.TryRLockContext(ctx, s.lockRetry)
	} else {
		ok, err = l.TryLockContext(ctx, s.lockRetry)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocked, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() { _ = l.Unlock() }, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// ValidateKey accepts slash-separated relative keys made of letters, digits,
// '.', '-' and '_' that stay inside the store.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." || strings.HasPrefix(seg, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_', r == '/':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
