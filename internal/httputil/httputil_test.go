// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestNewClientTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewClient(types.HTTPConfig{}).Timeout)
	assert.Equal(t, 5*time.Second, NewClient(types.HTTPConfig{Timeout: 5 * time.Second}).Timeout)
}

func TestGet_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		w.Write([]byte("hello"))
	}))
	defer ts.Close()

	body, err := Get(context.Background(), ts.Client(), ts.URL, "test/0.1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestGet_SingleAttemptOnError(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := Get(context.Background(), ts.Client(), ts.URL, "")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Get(ctx, ts.Client(), ts.URL, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("%PDF-1.4 test"))
	}))
	defer ts.Close()

	dir := t.TempDir()

	t.Run("writes file", func(t *testing.T) {
		dest := filepath.Join(dir, "ok.pdf")
		require.NoError(t, Download(context.Background(), ts.Client(), ts.URL+"/ok", "", dest))
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 test", string(data))
	})

	t.Run("leaves nothing behind on failure", func(t *testing.T) {
		dest := filepath.Join(dir, "missing.pdf")
		require.Error(t, Download(context.Background(), ts.Client(), ts.URL+"/missing", "", dest))
		_, err := os.Stat(dest)
		assert.True(t, os.IsNotExist(err))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".tmp")
		}
	})
}
