package respcache

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// sweeper periodically reclaims expired entries. It only frees memory; reads
// already treat expired entries as absent whether or not a sweep ran.
type sweeper struct {
	quit chan struct{}
	done chan struct{}
}

// startSweeper creates the ticker before returning so a fake clock advanced
// right after New still fires it.
func startSweeper(c *TTLCache, interval time.Duration) *sweeper {
	s := &sweeper{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	ticker := c.engine.Clock.NewTicker(interval)

	c.engine.Logger.Info("cache sweeper started", "interval", interval)
	go s.run(c, ticker)
	return s
}

func (s *sweeper) run(c *TTLCache, ticker clockwork.Ticker) {
	defer close(s.done)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.Chan():
			start := time.Now()
			n := c.SweepExpired()
			c.engine.Logger.Debug("cache sweep",
				"removed", n,
				"duration", time.Since(start),
			)
		}
	}
}

func (s *sweeper) stop() {
	close(s.quit)
	<-s.done
}
