package blobstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"zkmsg/internal/errs"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWalrus serves the publisher and aggregator endpoints from one map.
func fakeWalrus(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu    sync.Mutex
		blobs = map[string][]byte{}
	)

	r := mux.NewRouter()
	r.HandleFunc("/v1/blobs", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		id := string(rune('a' + len(blobs)))
		for k, v := range blobs {
			if string(v) == string(data) {
				w.Write([]byte(`{"alreadyCertified":{"blobId":"` + k + `"}}`))
				return
			}
		}
		blobs[id] = data
		w.Write([]byte(`{"newlyCreated":{"blobObject":{"blobId":"` + id + `"}}}`))
	}).Methods(http.MethodPut)
	r.HandleFunc("/v1/blobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		data, ok := blobs[mux.Vars(r)["id"]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Put(ctx, []byte(`{"orderId":"1"}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	data, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, `{"orderId":"1"}`, string(data))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, Instrument(BackendMemory, NewMemoryStore()))
}

func TestWalrusStore(t *testing.T) {
	srv := fakeWalrus(t)
	s := NewWalrusStore(srv.URL+"/", srv.URL, time.Second)
	exercise(t, s)

	ctx := context.Background()
	a, err := s.Put(ctx, []byte("same"))
	require.NoError(t, err)
	b, err := s.Put(ctx, []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWalrusStoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewWalrusStore(srv.URL, srv.URL, time.Second)
	_, err := s.Put(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)

	_, err = s.Get(context.Background(), "x")
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)

	_, err = s.Get(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	down := NewWalrusStore("http://127.0.0.1:1", "http://127.0.0.1:1", time.Second)
	_, err = down.Put(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ZKMSG_TEST_REDIS")
	if addr == "" {
		t.Skip("ZKMSG_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	s := NewRedisStore(rdb)
	exercise(t, s)

	a, err := s.Put(context.Background(), []byte("same"))
	require.NoError(t, err)
	b, err := s.Put(context.Background(), []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
