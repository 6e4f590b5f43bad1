package restclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/testutil"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Channels(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/channels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"channels":[{"_id":"c1","name":"general"},{"_id":"c2","name":"random"}]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", testutil.TestLogger(t))
	channels, err := c.Channels(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, channels, 2)
	assert.Equal(t, "general", channels[0].Name)
}

func TestClient_EditMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/messages/m1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"_id":"m1","content":"updated","isEdited":true}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", testutil.TestLogger(t))
	msg, err := c.EditMessage(context.Background(), "m1", "updated")
	require.NoError(t, err)

	assert.Equal(t, "m1", msg.Id)
	assert.Equal(t, "updated", msg.Content)
	assert.True(t, msg.IsEdited)
}

func TestClient_Login(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"jwt-token","user":{"_id":"u1","username":"alice"}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", testutil.TestLogger(t))
	res, err := c.Login(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "jwt-token", res.Token)
	assert.Equal(t, "alice", res.User.Username)
}

func TestClient_apiError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"You can only edit your own messages"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", testutil.TestLogger(t))
	_, err := c.EditMessage(context.Background(), "m1", "updated")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "You can only edit your own messages", apiErr.Message)
}

func TestClient_apiErrorNoBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", testutil.TestLogger(t))
	_, err := c.Channels(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), apiErr.Message)
}

func TestClient_UploadImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "pic.png", hdr.Filename)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"imageUrl":"https://cdn.example.com/pic.png","publicId":"pic-1"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", testutil.TestLogger(t))
	res, err := c.UploadImage(context.Background(), "pic.png", strings.NewReader("fake png bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/pic.png", res.ImageURL)
	assert.Equal(t, "pic-1", res.PublicId)
}

func TestClient_DirectMessages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/direct/u2", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"_id":"m1","type":"direct","senderId":"u2","recipientId":"u1","content":"hey"}]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "test-token", testutil.TestLogger(t))
	msgs, err := c.DirectMessages(context.Background(), "u2")
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, types.RoomDirect, msgs[0].Type)
	assert.Equal(t, "u1-u2", msgs[0].RoomKey())
}
