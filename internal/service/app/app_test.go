package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"zkmsg/internal/cryptographic/dh"
	"zkmsg/internal/cryptographic/signature"
	"zkmsg/internal/model"
	"zkmsg/internal/protocol/seal"
	"zkmsg/internal/service/messenger"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "alice.json")

	id, err := LoadOrCreateIdentity(path, "alice")
	require.NoError(t, err)

	again, err := LoadOrCreateIdentity(path, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = LoadOrCreateIdentity(path, "bob")
	assert.Error(t, err)

	keys := id.Keys()
	assert.True(t, signature.ED25519Verify(keys.IdentityKey, keys.ExchangeKey, keys.Signature))
}

func TestOpenSecret(t *testing.T) {
	id, err := LoadOrCreateIdentity(filepath.Join(t.TempDir(), "bob.json"), "bob")
	require.NoError(t, err)

	xPub, err := dh.ToKey(id.Keys().ExchangeKey)
	require.NoError(t, err)
	sealed, err := seal.Seal(xPub, []byte("secret"), []byte("0xabc"))
	require.NoError(t, err)

	n := &model.Notification{ID: "m1", EphemeralPublicKey: "0xabc", SealedSecret: sealed}
	got, err := id.OpenSecret(n)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	n.EphemeralPublicKey = "0xdef"
	_, err = id.OpenSecret(n)
	assert.Error(t, err)

	_, err = id.OpenSecret(&model.Notification{ID: "m2"})
	assert.Error(t, err)
}

func TestClient(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/participants/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}).Methods(http.MethodPut)
	r.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		var req messenger.SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(messenger.SendResult{
			Record: &model.MessageRecord{ID: "m1", OrderID: req.OrderID},
			Sealed: true,
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]*messenger.ListedMessage{{Record: &model.MessageRecord{ID: r.URL.Query().Get("participant")}}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/retrieve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"decryption failed"}`))
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", model.ParticipantKeys{}))

	res, err := c.Send(ctx, &messenger.SendRequest{OrderID: "o1", Sender: "alice", Recipient: "bob", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "o1", res.Record.OrderID)
	assert.True(t, res.Sealed)

	listed, err := c.List(ctx, "bob", "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "bob", listed[0].Record.ID)

	_, err = c.Retrieve(ctx, "blob", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")

	err = c.UpdateStatus(ctx, "m1", model.StatusRead)
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}
