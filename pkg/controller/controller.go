package controller

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/client"
	"github.com/nicholas-fedor/gifdeck/pkg/gallery"
	"github.com/nicholas-fedor/gifdeck/pkg/progress"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// historyLimit caps the statuses kept for the report in long-running processes.
const historyLimit = 1000

// API is the subset of the service client the controller mutates state through.
type API interface {
	Upload(
		ctx context.Context,
		id types.SessionID,
		files []types.File,
		report progress.Func,
	) (*client.UploadResult, error)
	Reorder(ctx context.Context, id types.SessionID, order map[int]string) error
	Remove(ctx context.Context, id types.SessionID, name string) error
	Generate(
		ctx context.Context,
		id types.SessionID,
		form types.GenerateForm,
		report progress.Func,
	) (*client.GenerateResult, error)
}

// Sessions resolves and resets the session identifier.
type Sessions interface {
	ID(ctx context.Context) (types.SessionID, error)
	Reset(ctx context.Context) (types.SessionID, error)
	OnReset(hook func())
}

// Observer is called with every action that reaches a terminal state.
type Observer func(status *ActionStatus)

// Options configures a Controller.
type Options struct {
	// ImagesOnly drops non-image files before they are added to an upload.
	ImagesOnly bool
	// Observers receive finished actions, e.g. for metrics.
	Observers []Observer
}

// Controller dispatches user actions. It is safe for concurrent use.
type Controller struct {
	api          API
	sessions     Sessions
	synchronizer *gallery.Synchronizer
	view         types.View
	imagesOnly   bool
	observers    []Observer

	mu       sync.Mutex
	inFlight map[Kind]int
	last     map[Kind]State
	history  []*ActionStatus
	removing map[string]struct{}
}

var _ types.Handler = (*Controller)(nil)

// New creates a Controller and registers the synchronizer's Clear as a session reset hook,
// so the rendered list is emptied as soon as a new session is requested.
//
// Parameters:
//   - api: Service client.
//   - sessions: Session manager.
//   - synchronizer: Owner of the rendered list.
//   - opts: Controller options.
//
// Returns:
//   - *Controller: Ready controller with every kind Idle.
func New(
	api API,
	sessions Sessions,
	synchronizer *gallery.Synchronizer,
	opts Options,
) *Controller {
	sessions.OnReset(synchronizer.Clear)

	return &Controller{
		api:          api,
		sessions:     sessions,
		synchronizer: synchronizer,
		view:         synchronizer.View(),
		imagesOnly:   opts.ImagesOnly,
		observers:    opts.Observers,
		inFlight:     make(map[Kind]int),
		last:         make(map[Kind]State),
		removing:     make(map[string]struct{}),
	}
}

// State returns the current state of an action kind.
func (c *Controller) State(kind Kind) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight[kind] > 0 {
		return InFlightState
	}

	state, ok := c.last[kind]
	if !ok {
		return IdleState
	}

	return state
}

// Report returns the finished actions recorded so far.
func (c *Controller) Report() types.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	return NewReport(c.history)
}

// Items returns the rendered list.
func (c *Controller) Items() types.ImageList {
	return c.synchronizer.Items()
}

// run drives one action through the state machine. Every path, including a panic in
// action, reaches a terminal state.
func (c *Controller) run(
	ctx context.Context,
	kind Kind,
	target string,
	action func(ctx context.Context) error,
) (err error) {
	status := c.begin(kind, target)

	defer func() {
		if recovered := recover(); recovered != nil {
			c.finish(status, errPanic(recovered))
			panic(recovered)
		}

		c.finish(status, err)
	}()

	return action(ctx)
}

func (c *Controller) begin(kind Kind, target string) *ActionStatus {
	status := newActionStatus(kind, target)

	c.mu.Lock()
	c.inFlight[kind]++
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"action": kind,
		"image":  target,
	}).Debug("Action started")

	return status
}

func (c *Controller) finish(status *ActionStatus, err error) {
	status.complete(err)

	c.mu.Lock()
	c.inFlight[status.kind]--
	c.last[status.kind] = status.state

	c.history = append(c.history, status)
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
	c.mu.Unlock()

	fields := logrus.Fields{
		"action":   status.kind,
		"duration": status.Duration(),
	}
	if status.target != "" {
		fields["image"] = status.target
	}

	if err != nil {
		c.view.ShowError(err.Error())
		logrus.WithFields(fields).WithError(err).Error("Action failed")
	} else {
		logrus.WithFields(fields).Debug("Action succeeded")
	}

	for _, observe := range c.observers {
		observe(status)
	}
}
