package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vislevel/internal/level"
)

// Notification is one item transition observed during a replay.
type Notification struct {
	Line    int    `json:"line"`
	Level   string `json:"level"`
	Item    string `json:"item"`
	Visible bool   `json:"visible"`
}

// StepError is a step that failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Step.Line, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Result summarizes a replay.
type Result struct {
	Steps         int
	Failures      []*StepError
	Notifications []Notification
}

// Runner replays steps against a registry, observing every level it touches.
type Runner struct {
	registry        *level.Registry
	logger          *slog.Logger
	continueOnError bool

	mu       sync.Mutex
	line     int
	observed map[*level.Level]*level.FuncCallback // keeps observers reachable
	notes    []Notification
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// ContinueOnError keeps replaying after a failed step.
func ContinueOnError(enabled bool) Option {
	return func(r *Runner) { r.continueOnError = enabled }
}

// NewRunner creates a runner for reg.
func NewRunner(reg *level.Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		observed: make(map[*level.Level]*level.FuncCallback),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes steps in order. Without ContinueOnError the first failure is
// returned; otherwise failures are collected in the result. Run stops early
// when ctx is done.
func (r *Runner) Run(ctx context.Context, steps []Step) (Result, error) {
	var res Result
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return r.finish(res), err
		}
		res.Steps++
		r.logger.Debug("replay step", "line", step.Line, "step", step.String())

		if err := r.apply(step); err != nil {
			serr := &StepError{Step: step, Err: err}
			if !r.continueOnError {
				return r.finish(res), serr
			}
			r.logger.Warn("replay step failed", "line", step.Line, "error", err)
			res.Failures = append(res.Failures, serr)
		}
	}
	return r.finish(res), nil
}

func (r *Runner) finish(res Result) Result {
	r.mu.Lock()
	res.Notifications = append([]Notification(nil), r.notes...)
	r.mu.Unlock()
	return res
}

func (r *Runner) apply(step Step) error {
	r.mu.Lock()
	r.line = step.Line
	r.mu.Unlock()

	if step.Op == OpRegistryClear {
		r.registry.Clear()
		r.mu.Lock()
		r.observed = make(map[*level.Level]*level.FuncCallback)
		r.mu.Unlock()
		return nil
	}

	l, err := r.registry.GetLevel(step.Level)
	if err != nil {
		return err
	}
	r.observe(l)

	switch step.Op {
	case OpAdd:
		_, err = l.AddItem(step.Args[0])
	case OpRemove:
		l.RemoveItem(step.Args[0])
	case OpLink:
		var item *level.Item
		if item, err = l.AddItem(step.Args[0]); err == nil {
			item.SetChildLevel(step.Args[1])
			// Observe the child up front so its first cascade is recorded.
			var child *level.Level
			if child, err = r.registry.GetLevel(step.Args[1]); err == nil {
				r.observe(child)
			}
		}
	case OpSelect:
		err = l.SelectItem(step.Args[0])
	case OpShow:
		err = l.SetVisible(true)
	case OpHide:
		err = l.SetVisible(false)
	case OpInvisible:
		err = l.InvisibleItem()
	case OpNotify:
		err = l.NotifyVisibleItem()
	case OpClear:
		err = l.ClearItem()
	default:
		err = fmt.Errorf("unsupported op %q", step.Op)
	}
	return err
}

// observe registers a recording callback on l once.
func (r *Runner) observe(l *level.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.observed[l]; ok {
		return
	}
	cb := level.NewCallback(func(visible bool, item *level.Item) {
		r.mu.Lock()
		r.notes = append(r.notes, Notification{
			Line:    r.line,
			Level:   item.Level().Name(),
			Item:    item.Name(),
			Visible: visible,
		})
		r.mu.Unlock()
	})
	r.observed[l] = cb
	l.AddCallback(cb)
}
