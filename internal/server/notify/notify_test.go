package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_PostsMode(t *testing.T) {
	var got Event
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	n := New(ts.URL, time.Second)
	require.NoError(t, n.Notify(context.Background(), Event{Mode: ModeDecrypt}))
	assert.Equal(t, ModeDecrypt, got.Mode)
}

func TestWebhook_ReceiverErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	assert.Error(t, NewWebhook(ts.URL, time.Second).Notify(context.Background(), Event{Mode: ModeEncrypt}))
}

func TestNew_EmptyURLIsNop(t *testing.T) {
	n := New("", time.Second)
	_, ok := n.(Nop)
	assert.True(t, ok)
	assert.NoError(t, n.Notify(context.Background(), Event{Mode: ModeEncrypt}))
}
