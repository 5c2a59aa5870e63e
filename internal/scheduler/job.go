package scheduler

import "context"

// Job is a unit of background work run by the Scheduler.
type Job interface {
	// Name identifies the job in logs and for RunByName.
	Name() string

	// Schedule is a cron spec such as "0 0 * * 1". An empty schedule registers an on-demand job.
	Schedule() string

	Run(ctx context.Context) error
}

type funcJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

// NewJob wraps run as a Job.
func NewJob(name, schedule string, run func(ctx context.Context) error) Job {
	return &funcJob{name: name, schedule: schedule, run: run}
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Schedule() string              { return j.schedule }
func (j *funcJob) Run(ctx context.Context) error { return j.run(ctx) }
