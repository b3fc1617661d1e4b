package bot

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// schedulerTimezone pins the cron expressions to the deployment's home
// timezone rather than the host clock.
const schedulerTimezone = "Asia/Beirut"

const sweepInterval = 30 * time.Second

func (b *Bot) startScheduler() {
	loc, err := time.LoadLocation(schedulerTimezone)
	if err != nil {
		log.Printf("Could not load timezone %s, falling back to UTC: %v", schedulerTimezone, err)
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	st := b.Store.Settings()
	if _, err := c.AddFunc(st.PeriodicNotifySchedule, b.Notifier.Run); err != nil {
		log.Printf("Invalid notify schedule %q: %v", st.PeriodicNotifySchedule, err)
	}
	if _, err := c.AddFunc(st.DailyScanSchedule, b.RunDailyScan); err != nil {
		log.Printf("Invalid daily scan schedule %q: %v", st.DailyScanSchedule, err)
	}
	c.Start()
	b.cron = c

	b.wg.Add(1)
	go b.sweepLoop()

	// One immediate notifier pass on startup, matching the cron cadence's
	// first natural run being up to 30 minutes away.
	go b.Notifier.Run()
}

// sweepLoop purges expired challenges and dead wizard sessions.
func (b *Bot) sweepLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := b.Challenges.Sweep(); n > 0 {
				log.Printf("Swept %d expired challenge(s).", n)
			}
			b.Setup.Reap()
		case <-b.done:
			return
		}
	}
}
