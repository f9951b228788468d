package object

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const dirPerms = 0o750

// Store maps logical keys to payload files plus metadata sidecars under a
// validated root directory. Operations are synchronous and take no
// in-process locks: the atomic rename inside the payload commit is the
// only concurrency-safety primitive, and deletes are idempotent unlinks.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore returns a Store over root. The caller is responsible for
// validating root once at startup (see the config package).
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{
		root:   root,
		logger: logger,
		now:    time.Now,
	}
}

// PutRequest carries one write: payload bytes plus merged options and the
// content-type hints used for sidecar resolution.
type PutRequest struct {
	Bucket             string
	Key                string
	Payload            []byte
	Options            WriteOptions
	UploadContentType  string
	RequestContentType string
}

// PutResult reports the resolved stored key of a successful write.
type PutResult struct {
	StoredKey string
}

// ObjectInfo describes one listed payload file.
type ObjectInfo struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"` //nolint:tagliatelle // listing wire format
}

// Put commits a payload and its sidecar. The payload is written to a
// uniquely named temp file in the target directory, flushed, and renamed
// onto the target path, so no reader observes a torn payload. The sidecar
// write follows outside the atomic unit: a crash in between leaves an
// orphaned payload with no sidecar.
func (s *Store) Put(req PutRequest) (PutResult, error) {
	if err := ValidateBucket(req.Bucket); err != nil {
		return PutResult{}, err
	}

	if err := ValidateKey(req.Key); err != nil {
		return PutResult{}, err
	}

	bucketRoot := filepath.Join(s.root, req.Bucket)
	dir, _, _ := splitKey(req.Key)
	targetDir := filepath.Join(bucketRoot, filepath.FromSlash(dir))

	if err := os.MkdirAll(targetDir, dirPerms); err != nil {
		return PutResult{}, fmt.Errorf("create target directory: %w", err)
	}

	storedKey, err := ResolveTarget(bucketRoot, req.Key, req.Options)
	if err != nil {
		return PutResult{}, err
	}

	targetPath := filepath.Join(bucketRoot, filepath.FromSlash(storedKey))

	if err := atomic.WriteFile(targetPath, bytes.NewReader(req.Payload)); err != nil {
		return PutResult{}, fmt.Errorf("commit payload: %w", err)
	}

	meta := Metadata{
		LogicalKey:  req.Key,
		StoredKey:   storedKey,
		Size:        int64(len(req.Payload)),
		ContentType: ResolveContentType(storedKey, req.UploadContentType, req.RequestContentType),
		CreatedAt:   UTCTimestamp(s.now()),
		UserMeta:    req.Options.UserMeta,
	}

	if err := writeMetadata(targetPath, meta); err != nil {
		return PutResult{}, fmt.Errorf("commit sidecar: %w", err)
	}

	s.logger.Debug("object stored",
		"bucket", req.Bucket,
		"logical_key", req.Key,
		"stored_key", storedKey,
		"size", meta.Size,
	)

	return PutResult{StoredKey: storedKey}, nil
}

// Get returns the payload and sidecar of the authoritative version of a
// logical key.
func (s *Store) Get(bucket, key string) ([]byte, Metadata, error) {
	storedPath, err := s.selectStored(bucket, key)
	if err != nil {
		return nil, Metadata{}, err
	}

	meta, err := ReadMetadata(storedPath)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: sidecar for %s: %v", ErrAmbiguousState, filepath.Base(storedPath), err)
	}

	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}

	payload, err := os.ReadFile(storedPath)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("read payload: %w", err)
	}

	return payload, meta, nil
}

// Delete removes the authoritative version of a logical key: payload
// first, then sidecar. Both unlinks are idempotent; absence is not an
// error.
func (s *Store) Delete(bucket, key string) error {
	storedPath, err := s.selectStored(bucket, key)
	if err != nil {
		return err
	}

	if err := removeIfExists(storedPath); err != nil {
		return fmt.Errorf("remove payload: %w", err)
	}

	if err := removeIfExists(MetaPath(storedPath)); err != nil {
		return fmt.Errorf("remove sidecar: %w", err)
	}

	s.logger.Debug("object deleted", "bucket", bucket, "logical_key", key)

	return nil
}

// List enumerates all payload files in a bucket, excluding sidecars,
// sorted by key. An optional prefix filters keys by string prefix. A
// missing bucket directory is ErrNotFound.
func (s *Store) List(bucket, prefix string) ([]ObjectInfo, error) {
	if err := ValidateBucket(bucket); err != nil {
		return nil, err
	}

	bucketRoot := filepath.Join(s.root, bucket)

	if _, err := os.Stat(bucketRoot); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: bucket %s", ErrNotFound, bucket)
		}

		return nil, err
	}

	objects := make([]ObjectInfo, 0)

	err := filepath.WalkDir(bucketRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || strings.HasSuffix(entry.Name(), MetaSuffix) {
			return nil
		}

		rel, err := filepath.Rel(bucketRoot, path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)

		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: UTCTimestamp(info.ModTime()),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	return objects, nil
}

// selectStored validates inputs, enumerates candidates, and picks the
// authoritative stored path for a logical key.
func (s *Store) selectStored(bucket, key string) (string, error) {
	if err := ValidateBucket(bucket); err != nil {
		return "", err
	}

	if err := ValidateKey(key); err != nil {
		return "", err
	}

	candidates, err := Candidates(filepath.Join(s.root, bucket), key)
	if err != nil {
		return "", err
	}

	return SelectNewest(candidates)
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
