// Package workflow tracks a remote CI workflow through trigger, polling and
// completion.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/clockx"
	"github.com/nuanxinpro/wallpaper-studio/internal/github"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
)

// State is the monitor's observable phase.
type State string

const (
	// StateIdle means no workflow activity is being tracked.
	StateIdle State = "idle"
	// StateTriggering covers the dispatch request itself.
	StateTriggering State = "triggering"
	// StateJustTriggered means the dispatch was accepted but no run has been
	// observed yet. The remote system needs a few seconds before the run
	// becomes visible, so absence of runs in this state is not completion.
	StateJustTriggered State = "just_triggered"
	// StateRunning means an active run has been observed.
	StateRunning State = "running"
	// StateTimedOut is absorbing: polling exceeded the absolute ceiling.
	// Only an explicit Reset leaves it.
	StateTimedOut State = "timed_out"
)

const (
	// DefaultEventType is the repository_dispatch event the remote workflow
	// listens for.
	DefaultEventType = "process-wallpapers"

	defaultGraceDelay   = 3 * time.Second
	defaultPollInterval = 8 * time.Second
	defaultRefreshDelay = 2 * time.Second
	defaultStuckCeiling = 10 * time.Minute
	defaultPollCeiling  = 30 * time.Minute
)

var (
	ErrMonitorBusy   = errors.New("workflow is already triggering or running")
	ErrMonitorClosed = errors.New("workflow monitor is closed")
	ErrNoPendingWork = errors.New("no pending images to process")
)

// Transport is the remote API surface the monitor needs. *github.Client
// satisfies it.
type Transport interface {
	TriggerDispatch(ctx context.Context, eventType string, payload any) error
	RunningWorkflow(ctx context.Context) (running, latest *github.WorkflowRun, err error)
	PendingImages(ctx context.Context, root string) (*github.PendingReport, error)
}

// Monitor owns the workflow state machine. It self-schedules its polling via
// timer callbacks; each poll schedules the next only after it finishes, so
// polls never overlap.
type Monitor struct {
	transport Transport
	clock     clockx.Clock
	log       logging.Logger
	root      string
	eventType string

	graceDelay   time.Duration
	pollInterval time.Duration
	refreshDelay time.Duration
	stuckCeiling time.Duration
	pollCeiling  time.Duration

	onRefresh     func()
	onStateChange func(State)

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	latestRun   *github.WorkflowRun
	runningRun  *github.WorkflowRun
	triggerTime time.Time
	pollStart   time.Time
	inFlight    bool
	timers      []clockx.Timer
	closed      bool
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

func WithClock(clock clockx.Clock) MonitorOption { return func(m *Monitor) { m.clock = clock } }
func WithLogger(log logging.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log }
}
func WithEventType(event string) MonitorOption { return func(m *Monitor) { m.eventType = event } }
func WithGraceDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.graceDelay = d }
}
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.pollInterval = d }
}
func WithRefreshDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.refreshDelay = d }
}
func WithStuckCeiling(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.stuckCeiling = d }
}
func WithPollCeiling(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.pollCeiling = d }
}

// WithOnRefresh sets the callback fired shortly after a workflow completes,
// giving the remote system time to settle before dependent data is re-read.
func WithOnRefresh(fn func()) MonitorOption { return func(m *Monitor) { m.onRefresh = fn } }

// WithOnStateChange sets the observer notified on every state transition.
func WithOnStateChange(fn func(State)) MonitorOption {
	return func(m *Monitor) { m.onStateChange = fn }
}

// NewMonitor returns an idle Monitor. root is the image root used for the
// pending-work guard.
func NewMonitor(transport Transport, root string, opts ...MonitorOption) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		transport:    transport,
		clock:        clockx.Real(),
		log:          logging.Nop(),
		root:         root,
		eventType:    DefaultEventType,
		graceDelay:   defaultGraceDelay,
		pollInterval: defaultPollInterval,
		refreshDelay: defaultRefreshDelay,
		stuckCeiling: defaultStuckCeiling,
		pollCeiling:  defaultPollCeiling,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current phase.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LatestRun returns the newest run observed, regardless of its state.
func (m *Monitor) LatestRun() *github.WorkflowRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestRun
}

// RunningRun returns the active run, present only in StateRunning.
func (m *Monitor) RunningRun() *github.WorkflowRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runningRun
}

// Trigger fires the remote workflow and begins polling after a short grace
// period. It is rejected while a previous cycle is still in progress, and
// when there is no pending work to justify a run.
func (m *Monitor) Trigger(ctx context.Context, payload any) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMonitorClosed
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrMonitorBusy
	}
	m.state = StateTriggering
	m.mu.Unlock()
	m.notify(StateTriggering)

	report, err := m.transport.PendingImages(ctx, m.root)
	if err != nil {
		m.setState(StateIdle)
		return err
	}
	if report.PendingCount == 0 {
		m.setState(StateIdle)
		return ErrNoPendingWork
	}

	if err := m.transport.TriggerDispatch(ctx, m.eventType, payload); err != nil {
		m.setState(StateIdle)
		return err
	}

	m.mu.Lock()
	now := m.clock.Now()
	m.state = StateJustTriggered
	m.triggerTime = now
	m.pollStart = now
	m.scheduleLocked(m.graceDelay, m.poll)
	m.mu.Unlock()

	m.log.Info(ctx, "workflow triggered", "event", m.eventType, "pending", report.PendingCount)
	m.notify(StateJustTriggered)
	return nil
}

// Check queries the remote state once. When an active run is found while the
// monitor is idle (a run triggered elsewhere), the monitor adopts it and
// starts polling.
func (m *Monitor) Check(ctx context.Context) (running, latest *github.WorkflowRun, err error) {
	running, latest, err = m.transport.RunningWorkflow(ctx)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	m.latestRun = latest
	adopted := false
	if running != nil && m.state == StateIdle && !m.closed {
		m.state = StateRunning
		m.runningRun = running
		m.pollStart = m.clock.Now()
		m.scheduleLocked(m.pollInterval, m.poll)
		adopted = true
	}
	m.mu.Unlock()

	if adopted {
		m.notify(StateRunning)
	}
	return running, latest, nil
}

// Reset returns an absorbed TimedOut monitor to Idle.
func (m *Monitor) Reset() {
	m.mu.Lock()
	if m.state != StateTimedOut {
		m.mu.Unlock()
		return
	}
	m.state = StateIdle
	m.runningRun = nil
	m.triggerTime = time.Time{}
	m.mu.Unlock()
	m.notify(StateIdle)
}

// Stop cancels the polling loop and every pending delayed callback. The
// state is left as is.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopTimersLocked()
	m.mu.Unlock()
}

// Close stops the monitor permanently.
func (m *Monitor) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopTimersLocked()
	m.mu.Unlock()
	m.cancel()
}

// poll runs one observation cycle and schedules the next when the cycle is
// still live. Ceilings are checked before any network call.
func (m *Monitor) poll() {
	m.mu.Lock()
	if m.closed || m.inFlight {
		m.mu.Unlock()
		return
	}
	state := m.state
	if state != StateJustTriggered && state != StateRunning {
		m.mu.Unlock()
		return
	}

	now := m.clock.Now()

	if now.Sub(m.pollStart) >= m.pollCeiling {
		m.state = StateTimedOut
		m.runningRun = nil
		m.triggerTime = time.Time{}
		m.stopTimersLocked()
		m.mu.Unlock()
		m.log.Warn(m.ctx, "workflow polling exceeded ceiling, giving up", "ceiling", m.pollCeiling)
		m.notify(StateTimedOut)
		return
	}

	if state == StateJustTriggered && now.Sub(m.triggerTime) >= m.stuckCeiling {
		// The dispatch was accepted but no run ever appeared. Treat it as a
		// stuck trigger, not a real job.
		m.state = StateIdle
		m.triggerTime = time.Time{}
		m.stopTimersLocked()
		m.mu.Unlock()
		m.log.Warn(m.ctx, "no run observed after trigger, aborting", "ceiling", m.stuckCeiling)
		m.notify(StateIdle)
		return
	}

	m.inFlight = true
	m.mu.Unlock()

	running, latest, err := m.transport.RunningWorkflow(m.ctx)

	m.mu.Lock()
	m.inFlight = false
	if m.closed {
		m.mu.Unlock()
		return
	}

	var transition State
	notifyNeeded := false

	switch {
	case err != nil:
		// Transient poll failure; keep the loop alive.
		m.log.Warn(m.ctx, "workflow poll failed", "error", err)
		m.scheduleLocked(m.pollInterval, m.poll)

	case running != nil:
		m.latestRun = latest
		m.runningRun = running
		if m.state != StateRunning {
			m.state = StateRunning
			m.triggerTime = time.Time{}
			transition = StateRunning
			notifyNeeded = true
		}
		m.scheduleLocked(m.pollInterval, m.poll)

	default:
		m.latestRun = latest
		if m.state == StateJustTriggered {
			// Nothing visible yet; the remote system may still be
			// materializing the run.
			m.scheduleLocked(m.pollInterval, m.poll)
		} else {
			m.state = StateIdle
			m.runningRun = nil
			transition = StateIdle
			notifyNeeded = true
			if m.onRefresh != nil {
				m.scheduleLocked(m.refreshDelay, m.onRefresh)
			}
		}
	}
	m.mu.Unlock()

	if notifyNeeded {
		m.notify(transition)
	}
}

// scheduleLocked registers a delayed callback. Caller must hold m.mu.
func (m *Monitor) scheduleLocked(d time.Duration, fn func()) {
	if m.closed {
		return
	}
	var t clockx.Timer
	t = m.clock.AfterFunc(d, func() {
		m.mu.Lock()
		m.unregisterLocked(t)
		m.mu.Unlock()
		fn()
	})
	m.timers = append(m.timers, t)
}

func (m *Monitor) unregisterLocked(target clockx.Timer) {
	for i, t := range m.timers {
		if t == target {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

func (m *Monitor) stopTimersLocked() {
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.notify(s)
}

func (m *Monitor) notify(s State) {
	if m.onStateChange != nil {
		m.onStateChange(s)
	}
}
