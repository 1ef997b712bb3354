package stats

// QPSTracker accumulates one queries-per-second sample per progress tick.
// Percentiles over the per-second series use the exact method.
type QPSTracker struct {
	exact exactTracker
}

func NewQPS() *QPSTracker {
	return &QPSTracker{}
}

func (q *QPSTracker) Add(qps float64) {
	q.exact.Add(qps)
}

func (q *QPSTracker) Percentile(p float64) float64 {
	return q.exact.Percentile(p)
}

func (q *QPSTracker) Avg() float64 {
	return q.exact.Avg()
}

func (q *QPSTracker) Count() int64 {
	return q.exact.Count()
}
