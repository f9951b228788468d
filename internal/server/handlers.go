package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/humblefs/humblefs/internal/object"
)

// Handler exposes the object store over HTTP. Each method is a thin
// wrapper: parse inputs, call the store, map taxonomy errors to status
// codes.
type Handler struct {
	store  *object.Store
	logger *slog.Logger
}

// NewHandler returns a Handler over store.
func NewHandler(store *object.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// PutObject handles PUT /:bucket/*key.
func (h *Handler) PutObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")

	if err := object.ValidateBucket(bucket); err != nil {
		h.writeError(c, err)

		return
	}

	if err := object.ValidateKey(key); err != nil {
		h.writeError(c, err)

		return
	}

	annotations, err := extractAnnotations(c.Request.Header)
	if err != nil {
		h.writeError(c, err)

		return
	}

	payload, formMeta, uploadContentType, err := h.readPayload(c)
	if err != nil {
		h.writeError(c, err)

		return
	}

	opts, err := object.MergeWriteOptions(extractOverrides(c), annotations, formMeta)
	if err != nil {
		h.writeError(c, err)

		return
	}

	result, err := h.store.Put(object.PutRequest{
		Bucket:             bucket,
		Key:                key,
		Payload:            payload,
		Options:            opts,
		UploadContentType:  uploadContentType,
		RequestContentType: c.GetHeader("Content-Type"),
	})
	if err != nil {
		h.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"stored_key": result.StoredKey})
}

// GetObject handles GET /:bucket/*key.
func (h *Handler) GetObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")

	payload, meta, err := h.store.Get(bucket, key)
	if err != nil {
		h.writeError(c, err)

		return
	}

	c.Data(http.StatusOK, meta.ContentType, payload)
}

// DeleteObject handles DELETE /:bucket/*key.
func (h *Handler) DeleteObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")

	if err := h.store.Delete(bucket, key); err != nil {
		h.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListObjects handles GET /:bucket.
func (h *Handler) ListObjects(c *gin.Context) {
	objects, err := h.store.List(c.Param("bucket"), c.Query("prefix"))
	if err != nil {
		h.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"objects": objects})
}

// readPayload reads the payload bytes for a write. Multipart requests may
// carry the payload in a "file" field plus user metadata in a "user_meta"
// JSON field; everything else is a raw body.
func (h *Handler) readPayload(c *gin.Context) (payload []byte, formMeta map[string]string, uploadContentType string, err error) {
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/") {
		formMeta, err = parseFormMeta(c.PostForm("user_meta"))
		if err != nil {
			return nil, nil, "", err
		}

		fileHeader, fileErr := c.FormFile("file")
		if fileErr == nil {
			file, openErr := fileHeader.Open()
			if openErr != nil {
				return nil, nil, "", openErr
			}

			defer func() { _ = file.Close() }()

			payload, err = io.ReadAll(file)
			if err != nil {
				return nil, nil, "", err
			}

			return payload, formMeta, fileHeader.Header.Get("Content-Type"), nil
		}
	}

	payload, err = c.GetRawData()
	if err != nil {
		return nil, nil, "", err
	}

	return payload, formMeta, "", nil
}

// writeError maps store errors to HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, object.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, object.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, object.ErrConflict), errors.Is(err, object.ErrAmbiguousState):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"request_id", c.GetString("request_id"),
			"error", err.Error(),
		)
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
