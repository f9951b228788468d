package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/humblefs/humblefs/internal/object"
)

// Metadata header namespace. Any x-amz-meta-* header outside the hfs
// namespace is rejected before any filesystem access.
const (
	amzMetaPrefix = "x-amz-meta-"
	hfsMetaPrefix = "x-amz-meta-hfs-"
)

// Query parameters overriding the header-carried write options.
var optionQueryParams = []string{"hfs-mode", "hfs-conflict", "hfs-postfix"}

// extractOverrides collects explicit per-call option overrides from query
// parameters. Absent parameters are omitted so lower-precedence sources
// can fill them in.
func extractOverrides(c *gin.Context) map[string]string {
	overrides := make(map[string]string)

	for _, name := range optionQueryParams {
		if value, ok := c.GetQuery(name); ok {
			overrides[name] = value
		}
	}

	return overrides
}

// extractAnnotations collects request-carried user metadata from
// x-amz-meta-hfs-* headers, keyed as "hfs-<rest>". Any other x-amz-meta-*
// header is an input error.
func extractAnnotations(header http.Header) (map[string]string, error) {
	annotations := make(map[string]string)

	for name, values := range header {
		lower := strings.ToLower(name)

		if !strings.HasPrefix(lower, amzMetaPrefix) {
			continue
		}

		if !strings.HasPrefix(lower, hfsMetaPrefix) {
			return nil, fmt.Errorf("%w: invalid metadata header %s", object.ErrInvalidInput, lower)
		}

		if len(values) > 0 {
			annotations["hfs-"+strings.TrimPrefix(lower, hfsMetaPrefix)] = values[0]
		}
	}

	return annotations, nil
}

// parseFormMeta parses the multipart user_meta field: a JSON object of
// string keys to string values. Keys are normalized into the hfs-
// namespace.
func parseFormMeta(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}

	var entries map[string]any

	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: invalid user_meta JSON", object.ErrInvalidInput)
	}

	formMeta := make(map[string]string, len(entries))

	for key, value := range entries {
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: invalid user_meta JSON", object.ErrInvalidInput)
		}

		if !strings.HasPrefix(key, "hfs-") {
			key = "hfs-" + key
		}

		formMeta[key] = str
	}

	return formMeta, nil
}
