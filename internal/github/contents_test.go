package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/wallpapers/contents/images/present.jpg":
			_ = json.NewEncoder(w).Encode(FileRef{Path: "images/present.jpg", SHA: "abc"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ok, err := c.FileExists(context.Background(), "images/present.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.FileExists(context.Background(), "images/absent.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileExists_PropagatesOtherFailures(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.FileExists(context.Background(), "images/x.jpg")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTokenExpired))
}

func TestUploadFile_CreatesWhenAbsent(t *testing.T) {
	var put writeRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			_ = json.NewEncoder(w).Encode(writeResponse{Content: FileRef{Path: "images/new.jpg", SHA: "new-sha"}})
		}
	}))

	ref, err := c.UploadFile(context.Background(), "images/new.jpg", []byte("jpeg bytes"), "add new.jpg")
	require.NoError(t, err)
	assert.Equal(t, "new-sha", ref.SHA)
	assert.Empty(t, put.SHA, "creation must not carry a content version token")
	assert.Equal(t, "main", put.Branch)
	assert.Equal(t, "add new.jpg", put.Message)

	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), decoded)
}

func TestUploadFile_UpdatesWithExistingSHA(t *testing.T) {
	var put writeRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(FileRef{Path: "images/old.jpg", SHA: "old-sha"})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			_ = json.NewEncoder(w).Encode(writeResponse{Content: FileRef{Path: "images/old.jpg", SHA: "next-sha"}})
		}
	}))

	ref, err := c.UploadFile(context.Background(), "images/old.jpg", []byte("v2"), "update old.jpg")
	require.NoError(t, err)
	assert.Equal(t, "old-sha", put.SHA)
	assert.Equal(t, "next-sha", ref.SHA)
}

func TestDeleteFile(t *testing.T) {
	var got map[string]string
	var gotMethod, gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"commit":{}}`))
	}))

	err := c.DeleteFile(context.Background(), "images/doomed.jpg", "doom-sha", "remove doomed.jpg")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/repos/acme/wallpapers/contents/images/doomed.jpg", gotPath)
	assert.Equal(t, "doom-sha", got["sha"])
	assert.Equal(t, "main", got["branch"])
}

func TestListDir(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		_ = json.NewEncoder(w).Encode([]DirEntry{
			{Name: "city.jpg", Path: "images/s1/city.jpg", Type: "file", Size: 1024},
			{Name: "nature", Path: "images/s1/nature", Type: "dir"},
		})
	}))

	entries, err := c.ListDir(context.Background(), "images/s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "file", entries[0].Type)
	assert.Equal(t, "dir", entries[1].Type)
}

func TestCreateFile_NoExistenceProbe(t *testing.T) {
	var gets, puts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets++
		case http.MethodPut:
			puts++
			_ = json.NewEncoder(w).Encode(writeResponse{Content: FileRef{SHA: "s"}})
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient("acme", "wallpapers", StaticToken("t"), WithBaseURL(srv.URL))
	_, err := c.CreateFile(context.Background(), "stats.json", `{"total":0}`, "seed stats")
	require.NoError(t, err)
	assert.Zero(t, gets)
	assert.Equal(t, 1, puts)
}
