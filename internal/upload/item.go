// Package upload queues wallpaper files and drives them through the remote
// write pipeline one at a time.
package upload

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/nuanxinpro/wallpaper-studio/internal/dedup"
)

// Status is an item's lifecycle phase.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// ErrorKind is the per-item failure classification surfaced to users.
type ErrorKind string

const (
	ErrKindNetwork          ErrorKind = "network_error"
	ErrKindRateLimited      ErrorKind = "rate_limited"
	ErrKindTokenExpired     ErrorKind = "token_expired"
	ErrKindPermissionDenied ErrorKind = "permission_denied"
	ErrKindNotFound         ErrorKind = "not_found"
	ErrKindAPIError         ErrorKind = "api_error"
	ErrKindDuplicateFile    ErrorKind = "duplicate_file"
)

// userMessages maps failure kinds to the strings shown in the admin UI.
var userMessages = map[ErrorKind]string{
	ErrKindNetwork:          "网络连接失败，请检查网络",
	ErrKindRateLimited:      "API 请求过于频繁，请稍后再试",
	ErrKindTokenExpired:     "登录已过期，请重新登录",
	ErrKindPermissionDenied: "没有权限执行此操作",
	ErrKindNotFound:         "目标资源不存在",
	ErrKindAPIError:         "服务器错误，请稍后再试",
	ErrKindDuplicateFile:    "文件已存在",
}

// UserMessage returns the user-facing message for a failure kind.
func UserMessage(kind ErrorKind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return "发生未知错误"
}

// Series values accepted for the first path segment under the image root.
const (
	SeriesDesktop = "desktop"
	SeriesMobile  = "mobile"
	SeriesAvatar  = "avatar"
)

const (
	// MaxFileSize is the per-file byte cap.
	MaxFileSize = 25 << 20
	// BatchWarnThreshold is the queue size above which the UI warns about
	// long-running batches.
	BatchWarnThreshold = 50
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var (
	ErrNothingPending  = errors.New("no pending files to upload")
	ErrNoTarget        = errors.New("pending item has no target directory")
	ErrUploadBusy      = errors.New("an upload batch is already running")
	ErrFileTooLarge    = errors.New("文件大小超过限制（最大 25MB）")
	ErrInvalidFileType = errors.New("不支持的文件格式")
	ErrInvalidSeries   = errors.New("unknown series")
)

// Item is one queued file. The owning Orchestrator is the sole mutator and
// guards every field write with its lock; callers observe value snapshots.
type Item struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MediaType string    `json:"mediaType"`
	Size      int64     `json:"size"`
	Series    string    `json:"series"`
	Primary   string    `json:"primary"`
	Secondary string    `json:"secondary,omitempty"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Message   string    `json:"message,omitempty"`
	// DuplicatePath is the remote path of the original file when ErrorKind
	// is duplicate_file.
	DuplicatePath string `json:"duplicatePath,omitempty"`

	payload     []byte
	fingerprint string
}

// NewItem validates and wraps one file for the queue.
func NewItem(filename string, payload []byte, mediaType, series, primary, secondary string) (*Item, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, filename)
	}
	if int64(len(payload)) > MaxFileSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, filename)
	}
	switch series {
	case SeriesDesktop, SeriesMobile, SeriesAvatar:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeries, series)
	}

	return &Item{
		ID:        uuid.NewString(),
		Filename:  filename,
		MediaType: mediaType,
		Size:      int64(len(payload)),
		Series:    series,
		Primary:   primary,
		Secondary: secondary,
		Status:    StatusPending,
		payload:   payload,
	}, nil
}

// TargetPath resolves the remote path under root.
func (it *Item) TargetPath(root string) string {
	segments := []string{root, it.Series, it.Primary}
	if it.Secondary != "" {
		segments = append(segments, it.Secondary)
	}
	segments = append(segments, it.Filename)
	return path.Join(segments...)
}

// Fingerprint computes the content digest on first use and caches it.
func (it *Item) Fingerprint() string {
	if it.fingerprint == "" {
		it.fingerprint = dedup.Fingerprint(it.payload)
	}
	return it.fingerprint
}

// hasTarget reports whether the target directory is resolved enough to build
// a remote path.
func (it *Item) hasTarget() bool {
	return it.Series != "" && it.Primary != ""
}

// advanceProgress bumps the cosmetic progress by delta, never past limit.
func (it *Item) advanceProgress(delta, limit int) {
	if it.Status != StatusUploading {
		return
	}
	if it.Progress+delta > limit {
		it.Progress = limit
		return
	}
	it.Progress += delta
}
