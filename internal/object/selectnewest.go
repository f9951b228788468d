package object

import (
	"fmt"
	"path/filepath"
)

// SelectNewest picks the single authoritative stored path among candidates
// by greatest sidecar created_at. Zero candidates is ErrNotFound. A
// candidate whose sidecar is missing, unparseable, or lacks created_at is
// a hard ErrAmbiguousState, never a silent skip; so is a tie at the
// maximum timestamp.
func SelectNewest(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNotFound
	}

	var (
		newestTime string
		newestPath string
		tied       bool
	)

	for _, candidate := range candidates {
		meta, err := ReadMetadata(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: sidecar for %s: %v", ErrAmbiguousState, filepath.Base(candidate), err)
		}

		if meta.CreatedAt == "" {
			return "", fmt.Errorf("%w: sidecar for %s has no created_at", ErrAmbiguousState, filepath.Base(candidate))
		}

		switch {
		case newestPath == "" || meta.CreatedAt > newestTime:
			newestTime = meta.CreatedAt
			newestPath = candidate
			tied = false
		case meta.CreatedAt == newestTime:
			tied = true
		}
	}

	if tied {
		return "", fmt.Errorf("%w: tied created_at %s", ErrAmbiguousState, newestTime)
	}

	return newestPath, nil
}
