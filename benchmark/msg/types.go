package msg

type (
	// Snapshot is one per-workload progress line, overwritten every tick.
	Snapshot struct {
		Workload int     `json:"workload"`
		Table    string  `json:"table"`
		PID      int     `json:"pid"`
		Time     string  `json:"time"`
		Elapsed  float64 `json:"elapsed"`
		Progress float64 `json:"progress"`
		QPS      float64 `json:"qps"`
		DPS      float64 `json:"dps"`
		CPU      float64 `json:"cpu"`
		Threads  int     `json:"worker_thread_count"`

		DiskChunks       int64 `json:"disk_chunks"`
		Optimizing       bool  `json:"is_optimizing"`
		DiskBytes        int64 `json:"disk_bytes"`
		RAMBytes         int64 `json:"ram_bytes"`
		IndexedDocuments int64 `json:"indexed_documents"`
	}
)
