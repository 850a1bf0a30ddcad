// Package janitor implements C12: an optional periodic sweep of both
// cache tiers, grounded on the teacher's main.go use of robfig/cron/v3
// for its nightly M3U database swap — same library, new schedule.
package janitor

import (
	"github.com/robfig/cron/v3"

	"hlsgate/cache"
	"hlsgate/logger"
)

// Janitor periodically sweeps a Cache. Correctness never depends on it
// running (cache.Cache evicts lazily on read); it only bounds memory held
// by cold keys between reads.
type Janitor struct {
	cron  *cron.Cron
	cache *cache.Cache
	log   logger.Logger
}

// New builds a Janitor that sweeps cache on the given cron schedule
// (default "@every 5m" when schedule is empty).
func New(c *cache.Cache, schedule string, log logger.Logger) (*Janitor, error) {
	if schedule == "" {
		schedule = "@every 5m"
	}

	j := &Janitor{cron: cron.New(), cache: c, log: log}
	_, err := j.cron.AddFunc(schedule, j.sweep)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) sweep() {
	evicted := j.cache.Sweep()
	if evicted > 0 {
		j.log.Debugf("janitor evicted %d expired segment cache entries", evicted)
	}
}

// Start begins the cron scheduler in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
