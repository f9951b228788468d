package object

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxPostfixAttempts bounds the regenerate loop under mode=unique with
// policy=new. Randomness alone guarantees no completion; with at least
// 36^3 possible postfixes the ceiling is unreachable unless the namespace
// is nearly full.
const maxPostfixAttempts = 64

// ResolveTarget decides the final stored key for a write against
// bucketRoot, or rejects it. It only inspects path existence; it performs
// no mutation. Decision order, first match wins:
//
//  1. explicit postfix + occupied target + policy != overwrite -> conflict
//  2. policy=fail + occupied target -> conflict
//  3. policy=new + mode=unique + no explicit postfix -> regenerate until
//     an unoccupied path is found, up to maxPostfixAttempts
//  4. policy=new + mode plain/none + occupied target -> conflict
//  5. otherwise -> proceed (overwrite replaces any existing file)
func ResolveTarget(bucketRoot, logicalKey string, opts WriteOptions) (string, error) {
	return resolveTarget(bucketRoot, logicalKey, opts, GeneratePostfix)
}

func resolveTarget(bucketRoot, logicalKey string, opts WriteOptions, generate func() (string, error)) (string, error) {
	postfix := opts.Postfix

	if opts.Mode == ModeUnique && postfix == "" {
		generated, err := generate()
		if err != nil {
			return "", err
		}

		postfix = generated
	}

	storedKey, err := BuildStoredKey(logicalKey, opts.Mode, postfix)
	if err != nil {
		return "", err
	}

	occupied, err := storedPathExists(bucketRoot, storedKey)
	if err != nil {
		return "", err
	}

	if opts.Postfix != "" && occupied && opts.Conflict != ConflictOverwrite {
		return "", fmt.Errorf("%w: %s", ErrConflict, logicalKey)
	}

	if opts.Conflict == ConflictFail && occupied {
		return "", fmt.Errorf("%w: %s", ErrConflict, logicalKey)
	}

	if opts.Conflict == ConflictNew && opts.Mode == ModeUnique && opts.Postfix == "" {
		for attempt := 0; occupied; attempt++ {
			if attempt >= maxPostfixAttempts {
				return "", fmt.Errorf("%w for %s", ErrPostfixExhausted, logicalKey)
			}

			postfix, err := generate()
			if err != nil {
				return "", err
			}

			storedKey, err = BuildStoredKey(logicalKey, opts.Mode, postfix)
			if err != nil {
				return "", err
			}

			occupied, err = storedPathExists(bucketRoot, storedKey)
			if err != nil {
				return "", err
			}
		}

		return storedKey, nil
	}

	if opts.Conflict == ConflictNew && (opts.Mode == ModePlain || opts.Mode == ModeNone) && occupied {
		return "", fmt.Errorf("%w: %s", ErrConflict, logicalKey)
	}

	return storedKey, nil
}

func storedPathExists(bucketRoot, storedKey string) (bool, error) {
	_, err := os.Stat(filepath.Join(bucketRoot, filepath.FromSlash(storedKey)))
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}
