package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("api-key", "api-secret")
	require.NoError(t, err)
	return issuer
}

func TestCloseRoomSuccess(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testIssuer(t))
	err := client.CloseRoom(context.Background(), "study-abc")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	assert.Equal(t, "/twirp/livekit.RoomService/DeleteRoom", gotPath)
}

func TestCloseRoomServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testIssuer(t))
	err := client.CloseRoom(context.Background(), "study-abc")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCloseRoomRejectionIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testIssuer(t))
	err := client.CloseRoom(context.Background(), "study-abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)
}

func TestCloseRoomUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewClient(srv.URL, testIssuer(t))
	err := client.CloseRoom(context.Background(), "study-abc")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCloseRoomBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testIssuer(t))
	for i := 0; i < 10; i++ {
		err := client.CloseRoom(context.Background(), "study-abc")
		assert.ErrorIs(t, err, ErrBackendUnavailable)
	}
}
