package object

import (
	"fmt"
	"path"
	"strings"
)

// ValidateBucket rejects bucket names that could escape the storage root.
// A bucket is a single directory name: non-empty, not "." or "..", and
// free of path separators.
func ValidateBucket(bucket string) error {
	if bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidInput)
	}

	if bucket == "." || bucket == ".." {
		return fmt.Errorf("%w: invalid bucket %q", ErrInvalidInput, bucket)
	}

	if strings.ContainsAny(bucket, `/\`) {
		return fmt.Errorf("%w: invalid bucket %q", ErrInvalidInput, bucket)
	}

	return nil
}

// ValidateKey rejects logical keys that could traverse outside the bucket:
// leading separators, drive-letter prefixes, and ".." segments in either
// separator convention. Runs before any filesystem access.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidInput)
	}

	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, `\`) {
		return fmt.Errorf("%w: invalid key %q", ErrInvalidInput, key)
	}

	if hasDriveLetterPrefix(key) {
		return fmt.Errorf("%w: invalid key %q", ErrInvalidInput, key)
	}

	normalized := strings.ReplaceAll(key, `\`, "/")

	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: invalid key %q", ErrInvalidInput, key)
		}
	}

	return nil
}

func hasDriveLetterPrefix(key string) bool {
	if len(key) < 2 || key[1] != ':' {
		return false
	}

	c := key[0]

	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// splitKey splits a logical key into directory, base name, and extension.
// The directory is "" for top-level keys. A bare dotfile name (".config")
// counts as the base, not as an extension.
func splitKey(key string) (dir, base, ext string) {
	dir, filename := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")

	ext = path.Ext(filename)
	base = strings.TrimSuffix(filename, ext)

	if base == "" {
		base, ext = filename, ""
	}

	return dir, base, ext
}
