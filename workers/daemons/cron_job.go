package daemons

import (
	"time"

	"github.com/vidiaspot/tradecore/escrow"
	"github.com/vidiaspot/tradecore/jobs"
	"github.com/vidiaspot/tradecore/jobs/cron"
)

type Worker interface {
	Start()
	Stop()
}

type CronJob struct {
	Running bool
	Jobs    []jobs.Job
}

func NewCronJob(machine *escrow.Machine) *CronJob {
	return &CronJob{
		Running: true,
		Jobs: []jobs.Job{
			&cron.OrderExpiryJob{},
			cron.NewEscrowReleaseJob(machine),
		},
	}
}

func (c *CronJob) Stop() {
	c.Running = false
}

func (c *CronJob) Start() {
	for _, job := range c.Jobs {
		go c.Process(job)
	}

	for c.Running {
		time.Sleep(1 * time.Second)
	}
}

func (c *CronJob) Process(job jobs.Job) {
	job.Process()
}
