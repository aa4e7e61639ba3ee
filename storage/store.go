package storage

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Bucket names the rest of the system binds and serves from.
const (
	MovieBucket  = "movies"
	MangaBucket  = "mangas"
	StaticBucket = "static"
)

// ErrNotFound means the key resolved inside the bucket but no object exists.
var ErrNotFound = errors.New("object not found")

// ErrNoBucket means the requested bucket binding is missing from the
// configuration; handlers surface this as a 500, not a 404.
var ErrNoBucket = errors.New("bucket not configured")

// Store maps bucket names to filesystem roots. Objects are addressed by
// slash-separated keys relative to the bucket root, the same way the
// hosted blob store addressed them.
type Store struct {
	buckets map[string]string
}

func New() *Store {
	return &Store{buckets: make(map[string]string)}
}

// Bind attaches a bucket name to a directory. An empty root leaves the
// bucket unbound so lookups report misconfiguration.
func (s *Store) Bind(name, root string) {
	if root == "" {
		return
	}
	s.buckets[name] = root
}

// resolve turns (bucket, key) into an absolute file path, rejecting keys
// that would escape the bucket root.
func (s *Store) resolve(bucket, key string) (string, error) {
	root, ok := s.buckets[bucket]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoBucket, bucket)
	}

	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	full := filepath.Join(root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return full, nil
}

// Open returns the object file for streaming. The caller closes it.
func (s *Store) Open(bucket, key string) (*os.File, os.FileInfo, error) {
	full, err := s.resolve(bucket, key)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, nil, fmt.Errorf("failed to open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return f, info, nil
}

// Serve streams an object with content-type and long-lived cache headers.
// http.ServeContent handles Range requests, which is what makes video
// seeking work on the stream endpoints.
func (s *Store) Serve(w http.ResponseWriter, r *http.Request, bucket, key string) error {
	f, info, err := s.Open(bucket, key)
	if err != nil {
		return err
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}
