package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nuanxinpro/wallpaper-studio/internal/clockx"
	"github.com/nuanxinpro/wallpaper-studio/internal/dedup"
	"github.com/nuanxinpro/wallpaper-studio/internal/github"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
	"github.com/nuanxinpro/wallpaper-studio/internal/models"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/history"
)

const (
	// interItemDelay spaces out successive remote writes. Self-imposed,
	// independent of the server quota.
	interItemDelay = 500 * time.Millisecond

	// progressTick drives the cosmetic per-item progress bar.
	progressTick     = 200 * time.Millisecond
	progressStep     = 10
	progressCeiling  = 90
	progressComplete = 100

	// defaultHistoryLimit bounds the persisted upload history.
	defaultHistoryLimit = 500
)

// ContentWriter persists one file remotely. *github.Client satisfies it.
type ContentWriter interface {
	UploadFile(ctx context.Context, path string, content []byte, message string) (*github.FileRef, error)
}

// Detector answers duplicate lookups before any network call.
type Detector interface {
	IsDuplicate(ctx context.Context, fingerprint string) (*models.LedgerEntry, error)
	Record(ctx context.Context, fingerprint, filename, path string) error
}

var _ Detector = (*dedup.Detector)(nil)

// Result aggregates one UploadAll batch. Items are value snapshots taken as
// each item settled.
type Result struct {
	Items []Item `json:"items"`
	// PermissionError marks a batch aborted by a permission failure rather
	// than one with scattered per-item errors.
	PermissionError bool `json:"permissionError"`
}

// Orchestrator owns the queue and is the single mutator of its items. All
// uploads run strictly in enqueue order.
type Orchestrator struct {
	writer    ContentWriter
	detector  Detector
	history   history.Repository
	clock     clockx.Clock
	log       logging.Logger
	root      string
	delay     time.Duration
	histLimit int

	mu      sync.Mutex
	items   []*Item
	running bool
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

func WithClock(clock clockx.Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithLogger(log logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

func WithInterItemDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.delay = d }
}

// WithHistoryLimit caps how many upload records are kept.
func WithHistoryLimit(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.histLimit = n
		}
	}
}

// NewOrchestrator returns an Orchestrator writing under root (for example
// "images").
func NewOrchestrator(writer ContentWriter, detector Detector, hist history.Repository, root string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		writer:    writer,
		detector:  detector,
		history:   hist,
		clock:     clockx.Real(),
		log:       logging.Nop(),
		root:      root,
		delay:     interItemDelay,
		histLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue validates the file and appends it to the queue, returning a
// snapshot of the queued item.
func (o *Orchestrator) Enqueue(filename string, payload []byte, mediaType, series, primary, secondary string) (Item, error) {
	item, err := NewItem(filename, payload, mediaType, series, primary, secondary)
	if err != nil {
		return Item{}, err
	}

	o.mu.Lock()
	o.items = append(o.items, item)
	snap := *item
	o.mu.Unlock()

	return snap, nil
}

// Items returns value snapshots of the queue in enqueue order. The live
// items stay owned by the orchestrator; a running batch never mutates what
// callers hold.
func (o *Orchestrator) Items() []Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Item, len(o.items))
	for i, it := range o.items {
		out[i] = *it
	}
	return out
}

// snapshot copies one item's current state under the queue lock.
func (o *Orchestrator) snapshot(it *Item) Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	return *it
}

// Remove drops a pending or failed item from the queue.
func (o *Orchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, it := range o.items {
		if it.ID == id && it.Status != StatusUploading {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return true
		}
	}
	return false
}

// BatchWarning reports whether the pending queue is large enough that the
// caller should warn before starting.
func (o *Orchestrator) BatchWarning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, it := range o.items {
		if it.Status == StatusPending {
			n++
		}
	}
	return n > BatchWarnThreshold
}

// EstimateBatchDuration projects how long the pending queue will take given
// the per-item spacing plus a nominal per-write cost.
func (o *Orchestrator) EstimateBatchDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, it := range o.items {
		if it.Status == StatusPending {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	perItem := o.delay + 2*time.Second
	return time.Duration(n) * perItem
}

// UploadAll drains the pending queue in FIFO order.
//
// Each item is fingerprinted and checked against the ledger before any
// network call; duplicates fail locally. A permission failure aborts the
// rest of the batch outright since every later write would fail the same
// way. Other failures are per-item. Successive remote writes are spaced by
// the inter-item delay; items that never reach the network consume no
// delay, and none trails the final write.
func (o *Orchestrator) UploadAll(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrUploadBusy
	}

	var pending []*Item
	for _, it := range o.items {
		if it.Status == StatusPending {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		o.mu.Unlock()
		return nil, ErrNothingPending
	}
	for _, it := range pending {
		if !it.hasTarget() {
			o.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrNoTarget, it.Filename)
		}
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	result := &Result{}
	needDelay := false

	for _, item := range pending {
		if result.PermissionError {
			o.failItem(ctx, item, ErrKindPermissionDenied, "")
			result.Items = append(result.Items, o.snapshot(item))
			continue
		}

		o.mu.Lock()
		fp := item.Fingerprint()
		o.mu.Unlock()

		if dup, err := o.detector.IsDuplicate(ctx, fp); err != nil {
			o.log.Warn(ctx, "ledger lookup failed, uploading anyway", "file", item.Filename, "error", err)
		} else if dup != nil {
			o.mu.Lock()
			item.DuplicatePath = dup.Path
			o.mu.Unlock()
			o.failItem(ctx, item, ErrKindDuplicateFile, fmt.Sprintf("%s（%s）", UserMessage(ErrKindDuplicateFile), dup.Path))
			result.Items = append(result.Items, o.snapshot(item))
			continue
		}

		// The delay only separates network writes, so it is consumed here,
		// after the local duplicate check has decided this item will issue one.
		if needDelay {
			if err := o.clock.Sleep(ctx, o.delay); err != nil {
				return result, err
			}
			needDelay = false
		}

		o.mu.Lock()
		item.Status = StatusUploading
		item.Progress = 0
		o.mu.Unlock()

		stopProgress := o.startProgress(item)
		target := item.TargetPath(o.root)
		_, err := o.writer.UploadFile(ctx, target, item.payload, "upload "+item.Filename)
		stopProgress()
		needDelay = true

		if err != nil {
			kind := classify(err)
			o.failItem(ctx, item, kind, "")
			if kind == ErrKindPermissionDenied {
				result.PermissionError = true
				o.log.Warn(ctx, "permission failure, aborting batch", "file", item.Filename)
			}
			result.Items = append(result.Items, o.snapshot(item))
			continue
		}

		o.mu.Lock()
		item.Status = StatusSuccess
		item.Progress = progressComplete
		o.mu.Unlock()
		if err := o.detector.Record(ctx, fp, item.Filename, target); err != nil {
			o.log.Error(ctx, "failed to record fingerprint", "file", item.Filename, "error", err)
		}
		o.appendHistory(ctx, item, target, models.HistorySuccess, "", "")
		o.log.Info(ctx, "uploaded", "file", item.Filename, "path", target)
		result.Items = append(result.Items, o.snapshot(item))
	}

	return result, nil
}

// RetryFailed resets failed items back to pending, skipping the explicitly
// excluded ids, and runs another batch.
func (o *Orchestrator) RetryFailed(ctx context.Context, exclude ...string) (*Result, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	o.mu.Lock()
	for _, it := range o.items {
		if it.Status == StatusError && !excluded[it.ID] {
			it.Status = StatusPending
			it.Progress = 0
			it.ErrorKind = ""
			it.Message = ""
			it.DuplicatePath = ""
		}
	}
	o.mu.Unlock()

	return o.UploadAll(ctx)
}

func (o *Orchestrator) failItem(ctx context.Context, item *Item, kind ErrorKind, message string) {
	if message == "" {
		message = UserMessage(kind)
	}
	o.mu.Lock()
	item.Status = StatusError
	item.ErrorKind = kind
	item.Message = message
	o.mu.Unlock()
	o.appendHistory(ctx, item, item.TargetPath(o.root), models.HistoryError, string(kind), message)
}

func (o *Orchestrator) appendHistory(ctx context.Context, item *Item, target, status, errorKind, message string) {
	rec := &models.HistoryRecord{
		ID:        uuid.NewString(),
		Filename:  item.Filename,
		Path:      target,
		Size:      item.Size,
		Status:    status,
		ErrorKind: errorKind,
		Message:   message,
		CreatedAt: o.clock.Now(),
	}
	if err := o.history.Append(ctx, rec); err != nil {
		o.log.Error(ctx, "failed to append history", "file", item.Filename, "error", err)
		return
	}
	if _, err := o.history.TrimToNewest(ctx, o.histLimit); err != nil {
		o.log.Error(ctx, "failed to trim history", "error", err)
	}
}

// startProgress runs the cosmetic progress ticker for one item and returns
// its stop function. Progress stalls at the ceiling until the write settles.
func (o *Orchestrator) startProgress(item *Item) func() {
	var mu sync.Mutex
	var stopped bool
	var timer clockx.Timer

	var tick func()
	tick = func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		o.mu.Lock()
		item.advanceProgress(progressStep, progressCeiling)
		o.mu.Unlock()
		timer = o.clock.AfterFunc(progressTick, tick)
	}
	timer = o.clock.AfterFunc(progressTick, tick)

	return func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		timer.Stop()
	}
}

// classify maps a transport failure to the per-item kind. Unclassified
// errors degrade to api_error rather than leaking raw error types upward.
func classify(err error) ErrorKind {
	kind, ok := github.KindOf(err)
	if !ok {
		return ErrKindAPIError
	}
	switch kind {
	case github.KindNetworkError:
		return ErrKindNetwork
	case github.KindRateLimited:
		return ErrKindRateLimited
	case github.KindTokenExpired:
		return ErrKindTokenExpired
	case github.KindPermissionDenied:
		return ErrKindPermissionDenied
	case github.KindNotFound:
		return ErrKindNotFound
	default:
		return ErrKindAPIError
	}
}
