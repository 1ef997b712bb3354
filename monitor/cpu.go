package monitor

import (
	"time"

	"github.com/prometheus/procfs"
)

type (
	cpuSample struct {
		at    time.Time
		busy  float64
		total float64
	}

	// CPUMeter derives utilisation from /proc/stat deltas. Where procfs is
	// unavailable the meter reports -1 and the display shows N/A.
	CPUMeter struct {
		fs   procfs.FS
		ok   bool
		prev *cpuSample
		last float64
	}
)

func NewCPUMeter() *CPUMeter {
	m := &CPUMeter{last: -1}
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return m
	}
	m.fs, m.ok = fs, true
	return m
}

// Percent returns CPU utilisation over the interval since the previous
// call, or the previous reading when less than 100 ms elapsed. -1 means
// unavailable.
func (m *CPUMeter) Percent() float64 {
	if !m.ok {
		return -1
	}

	stat, err := m.fs.Stat()
	if err != nil {
		return m.last
	}

	c := stat.CPUTotal
	idle := c.Idle + c.Iowait
	busy := c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
	now := time.Now()
	cur := &cpuSample{at: now, busy: busy, total: busy + idle}

	if m.prev == nil {
		m.prev = cur
		return m.last
	}
	if now.Sub(m.prev.at) < 100*time.Millisecond {
		return m.last
	}

	dTotal := cur.total - m.prev.total
	if dTotal > 0 {
		m.last = 100 * (cur.busy - m.prev.busy) / dTotal
	}
	m.prev = cur
	return m.last
}
