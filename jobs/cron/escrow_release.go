package cron

import (
	"context"
	"time"

	"github.com/jasonlvhit/gocron"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/escrow"
)

// EscrowReleaseJob releases funded escrows whose window elapsed. A buyer
// who neither confirmed nor disputed in time pays out to the seller.
type EscrowReleaseJob struct {
	Machine *escrow.Machine
}

func NewEscrowReleaseJob(machine *escrow.Machine) *EscrowReleaseJob {
	return &EscrowReleaseJob{Machine: machine}
}

func (j *EscrowReleaseJob) Process() {
	s := gocron.NewScheduler()
	s.Every(10).Minutes().Do(j.sweep)
	<-s.Start()
}

func (j *EscrowReleaseJob) sweep() {
	released := j.Machine.AutoReleaseSweep(context.Background(), time.Now())

	if released > 0 {
		config.Logger.Infof("auto released %d escrows", released)
	}
}
