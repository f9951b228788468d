package object

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MetaSuffix is appended to a stored filename to name its metadata sidecar.
// Sidecars are never candidates and never listed as objects.
const MetaSuffix = ".meta.json"

// Mode controls how a logical key maps to a stored filename.
type Mode string

const (
	// ModePlain stores the object under the logical key unchanged.
	ModePlain Mode = "plain"
	// ModeUnique inserts a "__<postfix>" segment before the extension so
	// repeated writes of the same logical key produce distinct files.
	ModeUnique Mode = "unique"
	// ModeNone behaves like ModePlain.
	ModeNone Mode = "none"
)

// ConflictPolicy controls behavior when the target stored path exists.
type ConflictPolicy string

const (
	// ConflictFail rejects the write.
	ConflictFail ConflictPolicy = "fail"
	// ConflictOverwrite replaces the existing file wholesale.
	ConflictOverwrite ConflictPolicy = "overwrite"
	// ConflictNew regenerates postfixes under ModeUnique until an
	// unoccupied path is found; rejects for plain/none.
	ConflictNew ConflictPolicy = "new"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlain, ModeUnique, ModeNone:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: invalid mode %q", ErrInvalidInput, s)
	}
}

// ParseConflictPolicy validates a conflict policy string.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case ConflictFail, ConflictOverwrite, ConflictNew:
		return ConflictPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: invalid conflict policy %q", ErrInvalidInput, s)
	}
}

// BuildStoredKey encodes a logical key, mode, and postfix into a stored
// key. Under plain/none the logical key is returned unchanged. Under
// unique an empty postfix is generated; a non-empty one is used as-is.
func BuildStoredKey(logicalKey string, mode Mode, postfix string) (string, error) {
	if mode == ModePlain || mode == ModeNone {
		return logicalKey, nil
	}

	if postfix == "" {
		generated, err := GeneratePostfix()
		if err != nil {
			return "", err
		}

		postfix = generated
	}

	dir, base, ext := splitKey(logicalKey)
	filename := base + "__" + postfix + ext

	if dir == "" {
		return filename, nil
	}

	return dir + "/" + filename, nil
}

// Candidates enumerates the stored payload paths that could represent
// logicalKey inside bucketRoot: the exact "base.ext" name, plus any
// "base__<postfix>.ext" whose postfix matches the postfix pattern.
// Sidecars and directories are excluded. A missing key directory yields
// no candidates.
func Candidates(bucketRoot, logicalKey string) ([]string, error) {
	dir, base, ext := splitKey(logicalKey)
	targetDir := filepath.Join(bucketRoot, filepath.FromSlash(dir))

	entries, err := os.ReadDir(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var candidates []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		if strings.HasSuffix(name, MetaSuffix) {
			continue
		}

		if name == base+ext || matchesPostfixed(name, base, ext) {
			candidates = append(candidates, filepath.Join(targetDir, name))
		}
	}

	return candidates, nil
}

// matchesPostfixed reports whether name is "base__<postfix>.ext" (or
// "base__<postfix>" for extension-less keys) with a valid postfix.
func matchesPostfixed(name, base, ext string) bool {
	prefix := base + "__"

	if !strings.HasPrefix(name, prefix) {
		return false
	}

	rest := strings.TrimPrefix(name, prefix)

	if ext != "" {
		if !strings.HasSuffix(rest, ext) {
			return false
		}

		rest = strings.TrimSuffix(rest, ext)
	}

	return ValidPostfix(rest)
}
