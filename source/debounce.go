package source

import "time"

// debouncer delays an emission until changes stop arriving for a quiet period.
// It is owned by a single goroutine.
type debouncer struct {
	quiet time.Duration
	timer *time.Timer
	c     <-chan time.Time
}

// C fires once after the last arm. It is nil while nothing is pending.
func (d *debouncer) C() <-chan time.Time {
	return d.c
}

// arm (re)starts the quiet period. It reports false when the quiet period is
// zero and the caller should emit right away.
func (d *debouncer) arm() bool {
	if d.quiet <= 0 {
		return false
	}

	if d.timer == nil {
		d.timer = time.NewTimer(d.quiet)
	} else {
		d.timer.Reset(d.quiet)
	}
	d.c = d.timer.C

	return true
}

// fired clears the pending state after C delivered.
func (d *debouncer) fired() {
	d.c = nil
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.c = nil
}
