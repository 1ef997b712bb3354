package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/manticoresoftware/manticore-load/stats"
)

const (
	reapBit  = 1 << 0
	delayBit = 1 << 1

	pollInterval  = 100 * time.Microsecond
	stopCheckSpan = time.Second
)

type (
	slot struct {
		requests   chan string
		start      time.Time
		delayUntil time.Time
		readiness  uint8
		err        error
		busy       bool
	}

	completion struct {
		slot int
		err  error
	}

	// Dispatcher drives all connections of one workload from a single
	// cooperative loop. Only that loop touches the latency tracker, so
	// the tracker needs no locking.
	Dispatcher struct {
		conns     []Conn
		delay     time.Duration
		tracker   stats.LatencyTracker
		completed int64
	}
)

func NewDispatcher(dial Dialer, threads int, delay time.Duration, tracker stats.LatencyTracker) (*Dispatcher, error) {
	d := &Dispatcher{delay: delay, tracker: tracker}
	for i := 0; i < threads; i++ {
		conn, err := dial()
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}
		d.conns = append(d.conns, conn)
	}
	return d, nil
}

// Completed may be read from other goroutines while Run is active.
func (d *Dispatcher) Completed() int64 {
	return atomic.LoadInt64(&d.completed)
}

func (d *Dispatcher) Close() {
	for _, conn := range d.conns {
		conn.Close()
	}
}

// Run feeds the statement sequence through the connections. Each slot
// becomes eligible for resubmission only once the server reply has been
// reaped and the configured delay has elapsed; the recorded latency spans
// submission to that point. On server error or stop the outstanding
// replies are drained before returning.
func (d *Dispatcher) Run(ctx context.Context, queries []string) error {
	slots := make([]*slot, len(d.conns))
	completions := make(chan completion, len(d.conns))

	for i := range slots {
		slots[i] = &slot{requests: make(chan string, 1)}
		go func(i int, conn Conn, requests <-chan string) {
			for query := range requests {
				completions <- completion{slot: i, err: conn.Execute(query)}
			}
		}(i, d.conns[i], slots[i].requests)
	}
	defer func() {
		for _, s := range slots {
			close(s.requests)
		}
	}()

	next := 0
	inFlight := 0
	submit := func(s *slot) {
		now := time.Now()
		s.start = now
		s.delayUntil = now.Add(d.delay)
		s.readiness = 0
		s.err = nil
		s.busy = true
		s.requests <- queries[next]
		next++
		inFlight++
	}

	for _, s := range slots {
		if next >= len(queries) {
			break
		}
		submit(s)
	}

	var fatal error
	stopped := false
	lastStopCheck := time.Now()
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	for inFlight > 0 {
		timer.Reset(pollInterval)
		select {
		case c := <-completions:
			s := slots[c.slot]
			s.readiness |= reapBit
			s.err = c.err
			if c.err != nil && fatal == nil {
				fatal = fmt.Errorf("%w: %v", ErrServerQuery, c.err)
			}
		case <-timer.C:
		}

		now := time.Now()
		for _, s := range slots {
			if s.busy && !now.Before(s.delayUntil) {
				s.readiness |= delayBit
			}
		}

		for _, s := range slots {
			if !s.busy || s.readiness != reapBit|delayBit {
				continue
			}
			s.busy = false
			inFlight--
			if s.err == nil {
				d.tracker.Add(float64(now.Sub(s.start)) / float64(time.Millisecond))
				atomic.AddInt64(&d.completed, 1)
			}
			if fatal == nil && !stopped && next < len(queries) {
				submit(s)
			}
			break
		}

		if now.Sub(lastStopCheck) >= stopCheckSpan {
			lastStopCheck = now
			if ctx.Err() != nil {
				stopped = true
			}
		}
	}

	if fatal != nil {
		return fatal
	}
	if stopped {
		return ctx.Err()
	}
	return nil
}
