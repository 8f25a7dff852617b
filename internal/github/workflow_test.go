package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerDispatch(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/wallpapers/dispatches", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.TriggerDispatch(context.Background(), "deploy", map[string]string{"reason": "new uploads"})
	require.NoError(t, err)
	assert.Equal(t, "deploy", body["event_type"])
}

func TestTriggerDispatch_404MeansNoWriteAccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := c.TriggerDispatch(context.Background(), "deploy", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPermissionDenied), "got %v", err)
}

func TestRunningWorkflow(t *testing.T) {
	tests := []struct {
		name        string
		runs        []WorkflowRun
		wantRunning *int64
		wantLatest  *int64
	}{
		{
			name: "active run behind a finished one",
			runs: []WorkflowRun{
				{ID: 30, Status: RunCompleted, Conclusion: "success"},
				{ID: 29, Status: RunInProgress},
			},
			wantRunning: ptr(int64(29)),
			wantLatest:  ptr(int64(30)),
		},
		{
			name: "queued counts as active",
			runs: []WorkflowRun{
				{ID: 31, Status: RunQueued},
			},
			wantRunning: ptr(int64(31)),
			wantLatest:  ptr(int64(31)),
		},
		{
			name: "all finished",
			runs: []WorkflowRun{
				{ID: 30, Status: RunCompleted, Conclusion: "failure"},
			},
			wantLatest: ptr(int64(30)),
		},
		{
			name: "no runs at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"workflow_runs": tt.runs})
			}))

			running, latest, err := c.RunningWorkflow(context.Background())
			require.NoError(t, err)

			if tt.wantRunning == nil {
				assert.Nil(t, running)
			} else {
				require.NotNil(t, running)
				assert.Equal(t, *tt.wantRunning, running.ID)
			}
			if tt.wantLatest == nil {
				assert.Nil(t, latest)
			} else {
				require.NotNil(t, latest)
				assert.Equal(t, *tt.wantLatest, latest.ID)
			}
		})
	}
}

func TestLatestTag_NoTags(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	info, err := c.LatestTag(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLatestTag(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/wallpapers/tags":
			_, _ = w.Write([]byte(`[{"name":"v2.3.0","commit":{"sha":"deadbeef"}}]`))
		case "/repos/acme/wallpapers/commits/deadbeef":
			_, _ = w.Write([]byte(`{"commit":{"message":"release v2.3.0","author":{"name":"bot"},"committer":{"date":"2026-08-01T10:00:00Z"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	info, err := c.LatestTag(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "v2.3.0", info.Name)
	assert.Equal(t, "deadbeef", info.SHA)
	assert.Equal(t, "bot", info.Author)
	assert.Equal(t, "release v2.3.0", info.Message)
}

func TestPendingImages(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/wallpapers/tags":
			_, _ = w.Write([]byte(`[{"name":"v1.0.0","commit":{"sha":"base"}}]`))
		case "/repos/acme/wallpapers/commits/base":
			_, _ = w.Write([]byte(`{"commit":{}}`))
		case "/repos/acme/wallpapers/git/ref/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"head"}}`))
		case "/repos/acme/wallpapers/compare/base...head":
			_ = json.NewEncoder(w).Encode(Comparison{
				TotalCommits: 4,
				AheadBy:      4,
				Files: []ComparedFile{
					{Filename: "images/desktop/风景/城市/a.jpg", Status: "added"},
					{Filename: "images/desktop/风景/b.PNG", Status: "added"},
					{Filename: "images/desktop/动漫/c.jpeg", Status: "modified"},
					{Filename: "docs/readme.md", Status: "added"},
					{Filename: "images/desktop/动漫/d.gif", Status: "added"},
					{Filename: "other/desktop/e.jpg", Status: "added"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	report, err := c.PendingImages(context.Background(), "images")
	require.NoError(t, err)
	require.Equal(t, 2, report.PendingCount)

	assert.Equal(t, "images/desktop/风景/城市/a.jpg", report.PendingFiles[0].Filename)
	assert.Equal(t, "desktop", report.PendingFiles[0].Series)
	assert.Equal(t, "风景/城市", report.PendingFiles[0].Category)

	assert.Equal(t, "images/desktop/风景/b.PNG", report.PendingFiles[1].Filename)
	assert.Equal(t, "风景", report.PendingFiles[1].Category)

	assert.Equal(t, "v1.0.0", report.LatestTag)
	assert.Equal(t, 4, report.TotalCommits)
}

func TestPendingImages_NoTagYet(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	report, err := c.PendingImages(context.Background(), "images")
	require.NoError(t, err)
	assert.Zero(t, report.PendingCount)
	assert.NotEmpty(t, report.Message)
}

func TestCheckRepoAccess(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "admin", status: 200, body: `{"permissions":{"admin":true,"push":true,"pull":true}}`, want: "admin"},
		{name: "write", status: 200, body: `{"permissions":{"push":true,"pull":true}}`, want: "write"},
		{name: "read", status: 200, body: `{"permissions":{"pull":true}}`, want: "read"},
		{name: "invisible repo", status: 404, body: `{"message":"Not Found"}`, want: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			access, err := c.CheckRepoAccess(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, access)
		})
	}
}

func TestCurrentUser(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		_, _ = w.Write([]byte(`{"login":"octo","name":"Octo Cat"}`))
	}))

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octo", u.Login)
}

func ptr[T any](v T) *T { return &v }
