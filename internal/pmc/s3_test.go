// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pmc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestS3SinkPut(t *testing.T) {
	var (
		method, path, ctype string
		body                []byte
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink, err := NewS3Sink(context.Background(), types.S3Config{
		Bucket:    "papers",
		Prefix:    "/mirror/",
		Region:    "eu-central-1",
		Endpoint:  ts.URL,
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "PMC1.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"a":1}`), 0o644))

	require.NoError(t, sink.Put(context.Background(), "json/PMC1.json", local))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/papers/mirror/json/PMC1.json", path)
	assert.Equal(t, "application/json", ctype)
	assert.Contains(t, string(body), `{"a":1}`)
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), types.S3Config{})
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("a/PMC1.PDF"))
	assert.Equal(t, "application/json", contentType("PMC1.json"))
	assert.Equal(t, "application/octet-stream", contentType("x.bin"))
}
