package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/humblefs/humblefs/internal/object"
	"github.com/humblefs/humblefs/internal/server"
)

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(object.NewStore(root, logger), logger)

	return srv.Handler(), root
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)

	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

// Contract: a plain write stores under the logical key and reads back the
// same bytes with the request content type.
func Test_Put_Then_Get_Over_HTTP(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/docs/hello.txt", []byte("hello"), map[string]string{
		"Content-Type": "text/plain",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var putResp struct {
		StoredKey string `json:"stored_key"`
	}

	decodeJSON(t, rec, &putResp)
	require.Equal(t, "docs/hello.txt", putResp.StoredKey)

	rec = doRequest(t, handler, http.MethodGet, "/b/docs/hello.txt", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello", rec.Body.String())
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

// Contract: unique mode carried by header yields a postfixed stored key.
func Test_Put_Unique_Mode_Via_Header(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/report.pdf", []byte("x"), map[string]string{
		"x-amz-meta-hfs-mode": "unique",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var putResp struct {
		StoredKey string `json:"stored_key"`
	}

	decodeJSON(t, rec, &putResp)
	require.Regexp(t, `^report__[a-z0-9]{3,6}\.pdf$`, putResp.StoredKey)
}

// Contract: a metadata header outside the hfs namespace is rejected with
// no write performed.
func Test_Put_Rejects_Foreign_Metadata_Namespace(t *testing.T) {
	t.Parallel()

	handler, root := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/a.txt", []byte("x"), map[string]string{
		"x-amz-meta-other-owner": "eve",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := os.Stat(filepath.Join(root, "b"))
	require.True(t, os.IsNotExist(err), "bucket directory must not exist after rejection")
}

// Contract: hfs-namespace headers are persisted as user metadata.
func Test_Put_Persists_User_Metadata_From_Headers(t *testing.T) {
	t.Parallel()

	handler, root := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/a.txt", []byte("x"), map[string]string{
		"x-amz-meta-hfs-owner": "kai",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	meta, err := object.ReadMetadata(filepath.Join(root, "b", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "kai", meta.UserMeta["hfs-owner"])
}

// Contract: policy=fail via query parameter turns the second write into a
// 409 without touching the first payload.
func Test_Put_Conflict_Policy_Fail_Returns_409(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/a.txt?hfs-conflict=fail", []byte("first"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, handler, http.MethodPut, "/b/a.txt?hfs-conflict=fail", []byte("second"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/b/a.txt", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "first", rec.Body.String())
}

// Contract: invalid option values are 400s.
func Test_Put_Rejects_Invalid_Options(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	for _, target := range []string{
		"/b/a.txt?hfs-mode=sideways",
		"/b/a.txt?hfs-conflict=maybe",
		"/b/a.txt?hfs-postfix=TOOBIG99",
	} {
		rec := doRequest(t, handler, http.MethodPut, target, []byte("x"), nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

// Contract: traversal keys are rejected before any filesystem access.
func Test_Put_Rejects_Traversal_Key(t *testing.T) {
	t.Parallel()

	handler, root := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/../escape.txt", []byte("x"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	require.True(t, os.IsNotExist(err))
}

// Contract: multipart uploads take payload and content type from the file
// part and user metadata from the user_meta field.
func Test_Put_Multipart_Upload(t *testing.T) {
	t.Parallel()

	handler, root := newTestServer(t)

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "upload.bin")
	require.NoError(t, err)

	_, err = part.Write([]byte("binary payload"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("user_meta", `{"owner": "kai", "hfs-team": "infra"}`))
	require.NoError(t, writer.Close())

	rec := doRequest(t, handler, http.MethodPut, "/b/blob.bin", buf.Bytes(), map[string]string{
		"Content-Type": writer.FormDataContentType(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	meta, err := object.ReadMetadata(filepath.Join(root, "b", "blob.bin"))
	require.NoError(t, err)
	require.Equal(t, "application/octet-stream", meta.ContentType)
	require.Equal(t, "kai", meta.UserMeta["hfs-owner"])
	require.Equal(t, "infra", meta.UserMeta["hfs-team"])

	rec = doRequest(t, handler, http.MethodGet, "/b/blob.bin", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "binary payload", rec.Body.String())
}

// Contract: malformed user_meta JSON in a multipart write is a 400.
func Test_Put_Rejects_Malformed_UserMeta_Form(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	require.NoError(t, writer.WriteField("user_meta", `{"owner": 42}`))
	require.NoError(t, writer.Close())

	rec := doRequest(t, handler, http.MethodPut, "/b/a.txt", buf.Bytes(), map[string]string{
		"Content-Type": writer.FormDataContentType(),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// Contract: GET on a missing key is 404; two same-second versions are 409.
func Test_Get_Maps_NotFound_And_Ambiguity(t *testing.T) {
	t.Parallel()

	handler, root := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/b/nope.txt", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Seed two postfixed versions whose sidecars tie on created_at.
	dir := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	for _, name := range []string{"a__aaa.txt", "a__bbb.txt"} {
		path := filepath.Join(dir, name)

		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

		sidecar := `{"logical_key":"a.txt","stored_key":"` + name + `","size":1,` +
			`"content_type":"text/plain","created_at":"2026-08-31T09:00:00Z","user_meta":{}}`
		require.NoError(t, os.WriteFile(object.MetaPath(path), []byte(sidecar), 0o600))
	}

	rec = doRequest(t, handler, http.MethodGet, "/b/a.txt", nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

// Contract: delete is idempotent at the store level but a second HTTP
// delete reports 404 once nothing remains.
func Test_Delete_Then_404(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/b/a.txt", []byte("x"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, handler, http.MethodDelete, "/b/a.txt", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var delResp struct {
		Deleted bool `json:"deleted"`
	}

	decodeJSON(t, rec, &delResp)
	require.True(t, delResp.Deleted)

	rec = doRequest(t, handler, http.MethodDelete, "/b/a.txt", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/b/a.txt", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// Contract: listing filters by prefix and excludes sidecars; a missing
// bucket is 404.
func Test_List_Objects_Over_HTTP(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	for _, key := range []string{"a/one.txt", "b/two.txt"} {
		rec := doRequest(t, handler, http.MethodPut, "/docs/"+key, []byte("x"), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doRequest(t, handler, http.MethodGet, "/docs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Objects []object.ObjectInfo `json:"objects"`
	}

	decodeJSON(t, rec, &listResp)
	require.Len(t, listResp.Objects, 2)
	require.Equal(t, "a/one.txt", listResp.Objects[0].Key)
	require.Equal(t, "b/two.txt", listResp.Objects[1].Key)
	require.False(t, strings.HasSuffix(listResp.Objects[0].Key, object.MetaSuffix))

	rec = doRequest(t, handler, http.MethodGet, "/docs?prefix=a/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	decodeJSON(t, rec, &listResp)
	require.Len(t, listResp.Objects, 1)
	require.Equal(t, "a/one.txt", listResp.Objects[0].Key)

	rec = doRequest(t, handler, http.MethodGet, "/missing", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// Contract: the health endpoint answers without touching storage.
func Test_Healthz(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
