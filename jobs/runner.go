// Package jobs schedules the tracker's recurring tasks on the go-command
// cron scheduler.
//
// The host scheduler is opaque to the tracker: the runner only calls named
// callbacks. A failing run is logged and the job waits for its next tick.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/cron"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

// Names of the jobs registered by the service.
const (
	RetentionSweep = "retention_sweep"
	PresenceTick   = "presence_tick"
)

// Schedules used by the service.
const (
	Daily       = "@daily"
	EveryMinute = "@every 1m"
)

var (
	// ErrJobNameRequired is returned when a job is registered without a name.
	ErrJobNameRequired = errors.New("go-user-tracker: job name required")
	// ErrJobScheduleRequired is returned for empty expressions or non-positive intervals.
	ErrJobScheduleRequired = errors.New("go-user-tracker: job schedule required")
	// ErrJobDuplicate is returned when a name is registered twice.
	ErrJobDuplicate = errors.New("go-user-tracker: job already registered")
	// ErrJobNotFound is returned by RunOnce for unknown names.
	ErrJobNotFound = errors.New("go-user-tracker: job not found")
)

// Func is one job invocation.
type Func func(ctx context.Context) error

type job struct {
	name       string
	expression string
	fn         Func
}

// Runner owns a cron scheduler and the jobs registered on it.
type Runner struct {
	mu        sync.Mutex
	scheduler *cron.Scheduler
	jobs      []job
	base      context.Context
	logger    types.Logger
}

// NewRunner builds an empty runner. opts are passed to cron.NewScheduler,
// typically cron.WithLocation.
func NewRunner(logger types.Logger, opts ...cron.Option) *Runner {
	if logger == nil {
		logger = types.NopLogger{}
	}
	r := &Runner{logger: logger, base: context.Background()}
	schedulerOpts := append([]cron.Option{
		cron.WithLogLevel(cron.LogLevelSilent),
		cron.WithErrorHandler(func(err error) {
			r.logger.Debug("scheduled run failed", "error", err)
		}),
	}, opts...)
	r.scheduler = cron.NewScheduler(schedulerOpts...)
	return r
}

// Every registers fn to run each interval.
func (r *Runner) Every(name string, interval time.Duration, fn Func) error {
	if interval <= 0 {
		return ErrJobScheduleRequired
	}
	return r.Schedule(name, "@every "+interval.String(), fn)
}

// Schedule registers fn under a cron expression ("@daily", "*/5 * * * *").
func (r *Runner) Schedule(name, expression string, fn Func) error {
	name = strings.TrimSpace(name)
	expression = strings.TrimSpace(expression)
	if name == "" || fn == nil {
		return ErrJobNameRequired
	}
	if expression == "" {
		return ErrJobScheduleRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.jobs {
		if existing.name == name {
			return ErrJobDuplicate
		}
	}
	j := job{name: name, expression: expression, fn: fn}
	if _, err := r.scheduler.ScheduleCron(gocommand.HandlerConfig{Expression: expression}, func() error {
		return r.invoke(r.context(), j)
	}); err != nil {
		return fmt.Errorf("go-user-tracker: schedule %s: %w", name, err)
	}
	r.jobs = append(r.jobs, j)
	return nil
}

// Names lists the registered jobs in registration order.
func (r *Runner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.name)
	}
	return out
}

// RunOnce invokes the named job immediately.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	r.mu.Lock()
	var target *job
	for i := range r.jobs {
		if r.jobs[i].name == name {
			target = &r.jobs[i]
			break
		}
	}
	r.mu.Unlock()
	if target == nil {
		return ErrJobNotFound
	}
	return r.invoke(ctx, *target)
}

// Run starts the scheduler and blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.base = ctx
	r.mu.Unlock()

	if err := r.scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := r.scheduler.Stop(context.Background()); err != nil {
		r.logger.Error("scheduler stop failed", err)
	}
	return ctx.Err()
}

func (r *Runner) context() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base
}

func (r *Runner) invoke(ctx context.Context, j job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("go-user-tracker: job %s panicked: %v", j.name, rec)
			r.logger.Error("job panicked", err, "job", j.name)
		}
	}()
	started := time.Now()
	if err = j.fn(ctx); err != nil {
		r.logger.Error("job failed", err, "job", j.name, "schedule", j.expression)
		return err
	}
	r.logger.Debug("job completed", "job", j.name, "duration", time.Since(started).String())
	return nil
}
