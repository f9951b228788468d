package object

import "time"

// Test-only exports.

// ResolveTargetWithGenerator resolves a write target using a caller-supplied
// postfix generator, so collision and exhaustion behavior can be tested
// deterministically.
func ResolveTargetWithGenerator(bucketRoot, logicalKey string, opts WriteOptions, generate func() (string, error)) (string, error) {
	return resolveTarget(bucketRoot, logicalKey, opts, generate)
}

// SplitKey exposes the key splitter.
func SplitKey(key string) (dir, base, ext string) {
	return splitKey(key)
}

// WriteMetadataForTest writes a sidecar for a stored payload path.
func WriteMetadataForTest(storedPath string, meta Metadata) error {
	return writeMetadata(storedPath, meta)
}

// SetClock overrides the store's clock.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
