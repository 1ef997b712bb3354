package hq

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/manticoresoftware/manticore-load/benchmark/msg"
	"github.com/manticoresoftware/manticore-load/monitor"
)

type (
	// Aggregator folds the latest per-workload snapshots into one
	// combined view for the terminal line.
	Aggregator struct {
		growth *monitor.GrowthWindow
		last   map[int]*msg.Snapshot
	}

	// Combined is the cross-workload portion of the progress line.
	Combined struct {
		CPU              float64
		Threads          int
		DiskChunks       int64
		Optimizing       bool
		DiskBytes        int64
		GrowthRate       float64
		IndexedDocuments int64
	}
)

func NewAggregator() *Aggregator {
	return &Aggregator{
		growth: monitor.NewGrowthWindow(5 * time.Second),
		last:   map[int]*msg.Snapshot{},
	}
}

func (a *Aggregator) Observe(snapshot *msg.Snapshot) {
	a.last[snapshot.Workload] = snapshot
}

// Snapshots returns the latest snapshot per workload, ordered by workload
// index so the line's columns stay put.
func (a *Aggregator) Snapshots() []*msg.Snapshot {
	out := make([]*msg.Snapshot, 0, len(a.last))
	for _, s := range a.last {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Workload < out[j].Workload })
	return out
}

// Combine sums chunks and disk bytes, ORs the optimizing flags and takes
// the per-table maximum of indexed documents before summing, so writers
// sharing a table are not double-counted.
func (a *Aggregator) Combine(at time.Time) *Combined {
	c := &Combined{CPU: -1}
	perTable := map[string]int64{}

	for _, s := range a.last {
		c.DiskChunks += s.DiskChunks
		c.DiskBytes += s.DiskBytes
		c.Optimizing = c.Optimizing || s.Optimizing
		if s.CPU > c.CPU {
			c.CPU = s.CPU
		}
		if s.Threads > c.Threads {
			c.Threads = s.Threads
		}
		if s.IndexedDocuments > perTable[s.Table] {
			perTable[s.Table] = s.IndexedDocuments
		}
	}
	for _, docs := range perTable {
		c.IndexedDocuments += docs
	}

	a.growth.Observe(at, c.DiskBytes)
	c.GrowthRate = a.growth.Rate()
	return c
}

// Line renders one terminal progress line from the current state.
func (a *Aggregator) Line(at time.Time, elapsed time.Duration) string {
	parts := []string{at.Format("15:04:05"), formatElapsed(elapsed)}

	for _, s := range a.Snapshots() {
		parts = append(parts, fmt.Sprintf("[%d: %5.1f%% %.0f qps %.0f dps]",
			s.Workload, s.Progress, s.QPS, s.DPS))
	}

	c := a.Combine(at)
	cpu := "N/A"
	if c.CPU >= 0 {
		cpu = fmt.Sprintf("%.1f%%", c.CPU)
	}
	optimizing := "no"
	if c.Optimizing {
		optimizing = "yes"
	}
	parts = append(parts,
		fmt.Sprintf("cpu %s", cpu),
		fmt.Sprintf("threads %d", c.Threads),
		fmt.Sprintf("chunks %d", c.DiskChunks),
		fmt.Sprintf("optimizing %s", optimizing),
		fmt.Sprintf("%s/s", humanBytes(int64(c.GrowthRate))),
		humanBytes(c.DiskBytes),
		fmt.Sprintf("%d docs", c.IndexedDocuments),
	)
	return strings.Join(parts, " ")
}

// OverallProgress averages the per-workload progress percentages.
func (a *Aggregator) OverallProgress() float64 {
	if len(a.last) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range a.last {
		sum += s.Progress
	}
	return sum / float64(len(a.last))
}

func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
