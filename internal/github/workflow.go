package github

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"
)

// Workflow run status values reported by the API.
const (
	RunQueued     = "queued"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
)

// WorkflowRun is one execution of a remote CI workflow.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Active reports whether the run is queued or still executing.
func (r WorkflowRun) Active() bool {
	return r.Status == RunQueued || r.Status == RunInProgress
}

// TriggerDispatch fires a repository_dispatch event carrying payload.
// The API answers 204 on acceptance.
func (c *Client) TriggerDispatch(ctx context.Context, eventType string, payload any) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/dispatches", c.owner, c.repo)
	body := map[string]any{
		"event_type":     eventType,
		"client_payload": payload,
	}
	_, err := c.Do(ctx, http.MethodPost, endpoint, body)
	if err != nil && IsKind(err, KindNotFound) {
		// The API answers 404 instead of 403 when the token lacks write
		// access to the dispatch repository.
		return &APIError{
			Kind:    KindPermissionDenied,
			Message: fmt.Sprintf("cannot dispatch workflow: no write access to %s/%s", c.owner, c.repo),
			Status:  http.StatusNotFound,
		}
	}
	return err
}

// ListWorkflowRuns returns the most recent workflow runs, newest first.
func (c *Client) ListWorkflowRuns(ctx context.Context, perPage int) ([]WorkflowRun, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/actions/runs?per_page=%d", c.owner, c.repo, perPage)
	var resp struct {
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.WorkflowRuns, nil
}

// RunningWorkflow returns the first active run among the recent ones, plus
// the newest run regardless of state. Both may be nil.
func (c *Client) RunningWorkflow(ctx context.Context) (running, latest *WorkflowRun, err error) {
	runs, err := c.ListWorkflowRuns(ctx, 5)
	if err != nil {
		return nil, nil, err
	}
	if len(runs) > 0 {
		latest = &runs[0]
	}
	for i := range runs {
		if runs[i].Active() {
			running = &runs[i]
			break
		}
	}
	return running, latest, nil
}

// Tag is a lightweight tag reference.
type Tag struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// TagInfo is a tag enriched with its commit details.
type TagInfo struct {
	Name    string
	SHA     string
	Date    time.Time
	Author  string
	Message string
}

// Tags lists the most recent tags.
func (c *Client) Tags(ctx context.Context, perPage int) ([]Tag, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/tags?per_page=%d", c.owner, c.repo, perPage)
	var tags []Tag
	if err := c.get(ctx, endpoint, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// LatestTag returns the newest tag with commit metadata, or nil when the
// repository has no tags.
func (c *Client) LatestTag(ctx context.Context) (*TagInfo, error) {
	tags, err := c.Tags(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	tag := tags[0]
	var commit struct {
		Commit struct {
			Message   string `json:"message"`
			Author    struct{ Name string }    `json:"author"`
			Committer struct{ Date time.Time } `json:"committer"`
		} `json:"commit"`
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/commits/%s", c.owner, c.repo, tag.Commit.SHA)
	if err := c.get(ctx, endpoint, &commit); err != nil {
		return nil, err
	}

	return &TagInfo{
		Name:    tag.Name,
		SHA:     tag.Commit.SHA,
		Date:    commit.Commit.Committer.Date,
		Author:  commit.Commit.Author.Name,
		Message: commit.Commit.Message,
	}, nil
}

// RollbackRelease asks the remote workflow to rebuild the published release
// from an earlier tag.
func (c *Client) RollbackRelease(ctx context.Context, tag string) error {
	return c.TriggerDispatch(ctx, "rollback-release", map[string]string{"tag": tag})
}

// DeleteTag removes a tag ref.
func (c *Client) DeleteTag(ctx context.Context, tagName string) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/git/refs/tags/%s", c.owner, c.repo, tagName)
	_, err := c.Do(ctx, http.MethodDelete, endpoint, nil)
	return err
}

// ComparedFile is one changed file of a commit comparison.
type ComparedFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"` // added, removed, modified...
}

// Comparison is the diff between two revisions.
type Comparison struct {
	TotalCommits int            `json:"total_commits"`
	AheadBy      int            `json:"ahead_by"`
	Files        []ComparedFile `json:"files"`
}

// CompareCommits diffs base..head.
func (c *Client) CompareCommits(ctx context.Context, base, head string) (*Comparison, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", c.owner, c.repo, base, head)
	var cmp Comparison
	if err := c.get(ctx, endpoint, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// BranchHead returns the commit SHA the configured branch points at.
func (c *Client) BranchHead(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", c.owner, c.repo, c.branch)
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.get(ctx, endpoint, &ref); err != nil {
		return "", err
	}
	return ref.Object.SHA, nil
}

// PendingImage is a wallpaper added since the last release tag.
type PendingImage struct {
	Filename string `json:"filename"`
	Series   string `json:"series"`
	Category string `json:"category"`
}

// PendingReport summarizes the images waiting for the next workflow run.
type PendingReport struct {
	PendingCount int            `json:"pendingCount"`
	PendingFiles []PendingImage `json:"pendingFiles"`
	LatestTag    string         `json:"latestTag"`
	TotalCommits int            `json:"totalCommits"`
	AheadBy      int            `json:"aheadBy"`
	Message      string         `json:"message,omitempty"`
}

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png)$`)

// PendingImages diffs the latest tag against the branch head and filters to
// wallpaper images added since. Without any tag the report is empty and
// carries an explanatory message (the first release must run manually).
func (c *Client) PendingImages(ctx context.Context, root string) (*PendingReport, error) {
	latest, err := c.LatestTag(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &PendingReport{Message: "no release tag found; run the workflow manually first"}, nil
	}

	head, err := c.BranchHead(ctx)
	if err != nil {
		return nil, err
	}

	cmp, err := c.CompareCommits(ctx, latest.SHA, head)
	if err != nil {
		return nil, err
	}

	prefix := root + "/"
	var pending []PendingImage
	for _, f := range cmp.Files {
		if f.Status != "added" || !strings.HasPrefix(f.Filename, prefix) || !imageExtPattern.MatchString(f.Filename) {
			continue
		}
		parts := strings.Split(f.Filename, "/")
		img := PendingImage{Filename: f.Filename}
		if len(parts) > 1 {
			img.Series = parts[1]
		}
		if len(parts) > 3 {
			img.Category = path.Join(parts[2 : len(parts)-1]...)
		}
		pending = append(pending, img)
	}

	return &PendingReport{
		PendingCount: len(pending),
		PendingFiles: pending,
		LatestTag:    latest.Name,
		TotalCommits: cmp.TotalCommits,
		AheadBy:      cmp.AheadBy,
	}, nil
}

// CheckRepoAccess reports the caller's effective permission on the bound
// repository: "admin", "write", "read" or "none".
func (c *Client) CheckRepoAccess(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s", c.owner, c.repo)
	var repo struct {
		Permissions struct {
			Admin bool `json:"admin"`
			Push  bool `json:"push"`
			Pull  bool `json:"pull"`
		} `json:"permissions"`
	}
	if err := c.get(ctx, endpoint, &repo); err != nil {
		if IsKind(err, KindNotFound) {
			return "none", nil
		}
		return "", err
	}
	switch {
	case repo.Permissions.Admin:
		return "admin", nil
	case repo.Permissions.Push:
		return "write", nil
	case repo.Permissions.Pull:
		return "read", nil
	default:
		return "read", nil
	}
}

// User is the authenticated account identity.
type User struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// CurrentUser fetches the identity behind the configured token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "/user", &u); err != nil {
		return nil, err
	}
	return &u, nil
}
