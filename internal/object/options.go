package object

import (
	"fmt"
	"maps"
)

// User-metadata option keys recognized by the store. Everything else in
// the merged map is opaque user metadata and is persisted as-is, except
// the postfix which never reaches the sidecar.
const (
	optionKeyMode     = "hfs-mode"
	optionKeyConflict = "hfs-conflict"
	optionKeyPostfix  = "hfs-postfix"
)

// WriteOptions is the validated, immutable option set for a single write.
type WriteOptions struct {
	Mode     Mode
	Conflict ConflictPolicy
	Postfix  string
	UserMeta map[string]string
}

// MergeWriteOptions merges layered option sources into validated
// WriteOptions before any storage logic runs. Precedence, highest first:
// explicit per-call overrides, request-carried annotations, multipart
// form metadata, then defaults (plain / overwrite / no postfix). Empty
// values for the three option keys count as unset.
func MergeWriteOptions(overrides, annotations, formMeta map[string]string) (WriteOptions, error) {
	merged := make(map[string]string, len(overrides)+len(annotations)+len(formMeta))

	maps.Copy(merged, formMeta)
	maps.Copy(merged, annotations)

	for key, value := range overrides {
		if value != "" {
			merged[key] = value
		}
	}

	modeValue := merged[optionKeyMode]
	if modeValue == "" {
		modeValue = string(ModePlain)
	}

	mode, err := ParseMode(modeValue)
	if err != nil {
		return WriteOptions{}, err
	}

	conflictValue := merged[optionKeyConflict]
	if conflictValue == "" {
		conflictValue = string(ConflictOverwrite)
	}

	conflict, err := ParseConflictPolicy(conflictValue)
	if err != nil {
		return WriteOptions{}, err
	}

	postfix := merged[optionKeyPostfix]
	if postfix != "" && !ValidPostfix(postfix) {
		return WriteOptions{}, fmt.Errorf("%w: invalid postfix %q", ErrInvalidInput, postfix)
	}

	userMeta := make(map[string]string, len(merged))

	maps.Copy(userMeta, merged)
	delete(userMeta, optionKeyPostfix)

	return WriteOptions{
		Mode:     mode,
		Conflict: conflict,
		Postfix:  postfix,
		UserMeta: userMeta,
	}, nil
}
