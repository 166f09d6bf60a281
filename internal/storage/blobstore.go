// Package storage keeps document contents on disk addressed by their SHA-256
// digest, so identical uploads are stored once.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// ErrTooLarge is returned by Put when the content exceeds the store limit.
var ErrTooLarge = errors.New("content exceeds size limit")

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// BlobStore lays files out as <root>/<first two hex digits>/<sha256>.
type BlobStore struct {
	root     string
	maxBytes int64
}

// Blob describes stored content.
type Blob struct {
	SHA256 string
	Size   int64
	// Head holds up to HeadLimit leading bytes for text extraction.
	Head []byte
}

// HeadLimit is how many leading bytes Put keeps in Blob.Head.
const HeadLimit = 64 << 10

// NewBlobStore returns a store rooted at root. maxBytes <= 0 disables the limit.
func NewBlobStore(root string, maxBytes int64) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &BlobStore{root: root, maxBytes: maxBytes}, nil
}

// Put streams r to a temp file while hashing it and moves it into place.
// Storing content that already exists is a no-op apart from the hashing.
func (s *BlobStore) Put(r io.Reader) (Blob, error) {
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return Blob{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hasher := sha256.New()
	head := &headWriter{limit: HeadLimit}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(io.MultiWriter(tmp, hasher, head), src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Blob{}, fmt.Errorf("write temp file: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return Blob{}, fmt.Errorf("upload larger than %d bytes: %w", s.maxBytes, ErrTooLarge)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	dest := s.path(digest)
	if _, err := os.Stat(dest); err == nil {
		return Blob{SHA256: digest, Size: n, Head: head.buf}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Blob{}, fmt.Errorf("create blob directory: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return Blob{}, fmt.Errorf("move blob into place: %w", err)
	}
	return Blob{SHA256: digest, Size: n, Head: head.buf}, nil
}

// Open returns the content stored under digest.
func (s *BlobStore) Open(digest string) (io.ReadCloser, error) {
	if !digestPattern.MatchString(digest) {
		return nil, fmt.Errorf("invalid digest %q", digest)
	}
	f, err := os.Open(s.path(digest))
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (s *BlobStore) Delete(digest string) error {
	if !digestPattern.MatchString(digest) {
		return fmt.Errorf("invalid digest %q", digest)
	}
	err := os.Remove(s.path(digest))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Exists reports whether the blob is present.
func (s *BlobStore) Exists(digest string) bool {
	if !digestPattern.MatchString(digest) {
		return false
	}
	_, err := os.Stat(s.path(digest))
	return err == nil
}

func (s *BlobStore) path(digest string) string {
	return filepath.Join(s.root, digest[:2], digest)
}

type headWriter struct {
	buf   []byte
	limit int
}

func (w *headWriter) Write(p []byte) (int, error) {
	if room := w.limit - len(w.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		w.buf = append(w.buf, p[:room]...)
	}
	return len(p), nil
}
