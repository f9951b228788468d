package object

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// Metadata is the JSON sidecar stored 1:1 with each payload file.
type Metadata struct {
	LogicalKey  string            `json:"logical_key"`  //nolint:tagliatelle // sidecar wire format
	StoredKey   string            `json:"stored_key"`   //nolint:tagliatelle // sidecar wire format
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"` //nolint:tagliatelle // sidecar wire format
	CreatedAt   string            `json:"created_at"`   //nolint:tagliatelle // sidecar wire format
	UserMeta    map[string]string `json:"user_meta"`    //nolint:tagliatelle // sidecar wire format
}

// UTCTimestamp formats t as second-precision UTC ISO-8601, the format
// stored in created_at and compared lexicographically by SelectNewest.
func UTCTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// MetaPath returns the sidecar path for a stored payload path.
func MetaPath(storedPath string) string {
	return storedPath + MetaSuffix
}

// ReadMetadata reads and parses the sidecar for a stored payload path.
func ReadMetadata(storedPath string) (Metadata, error) {
	data, err := os.ReadFile(MetaPath(storedPath))
	if err != nil {
		return Metadata{}, err
	}

	var meta Metadata

	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse sidecar: %w", err)
	}

	return meta, nil
}

// writeMetadata writes the sidecar for a stored payload path. The write is
// atomic on its own but is not part of the payload's atomic unit: a crash
// between payload rename and sidecar write leaves an orphaned payload.
func writeMetadata(storedPath string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(MetaPath(storedPath), bytes.NewReader(data))
}

// ResolveContentType picks the content type for a stored key. Precedence,
// highest first: explicit upload content type; the request's declared
// content type (ignoring a multipart wrapper); an extension-based guess;
// a generic binary fallback.
func ResolveContentType(storedKey, uploadContentType, requestContentType string) string {
	if uploadContentType != "" {
		return uploadContentType
	}

	if requestContentType != "" && !strings.HasPrefix(requestContentType, "multipart/") {
		return requestContentType
	}

	if guessed := mime.TypeByExtension(path.Ext(storedKey)); guessed != "" {
		return guessed
	}

	return "application/octet-stream"
}
