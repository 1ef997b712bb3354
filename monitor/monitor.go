package monitor

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

type (
	// Probe reads server state over the control connection.
	Probe struct {
		db    *sql.DB
		table string
	}

	// TableStatus carries the status fields the progress snapshot needs.
	// Fields the server does not report degrade to zeros.
	TableStatus struct {
		DiskChunks       int64
		Optimizing       bool
		DiskBytes        int64
		RAMBytes         int64
		IndexedDocuments int64
	}
)

func NewProbe(db *sql.DB, table string) *Probe {
	return &Probe{db: db, table: table}
}

func (p *Probe) Table() string {
	return p.table
}

// TableStatus runs SHOW TABLE <t> STATUS and folds the key/value rows into
// a TableStatus.
func (p *Probe) TableStatus() (*TableStatus, error) {
	if p.table == "" {
		return &TableStatus{}, nil
	}

	kv, err := p.keyValues(fmt.Sprintf("SHOW TABLE %s STATUS", p.table))
	if err != nil {
		return nil, fmt.Errorf("reading table status failed: %w", err)
	}

	status := &TableStatus{
		DiskChunks:       kvInt(kv, "disk_chunks"),
		Optimizing:       kvInt(kv, "optimizing") != 0,
		DiskBytes:        kvInt(kv, "disk_bytes"),
		RAMBytes:         kvInt(kv, "ram_bytes"),
		IndexedDocuments: kvInt(kv, "indexed_documents"),
	}
	return status, nil
}

// ThreadCount reports how many server threads SHOW THREADS lists.
func (p *Probe) ThreadCount() (int, error) {
	rows, err := p.db.Query("SHOW THREADS")
	if err != nil {
		return 0, fmt.Errorf("db.Query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("rows.Columns failed: %w", err)
	}

	count := 0
	values := make([]sql.RawBytes, len(cols))
	scan := make([]interface{}, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return 0, fmt.Errorf("rows.Scan failed: %w", err)
		}
		count++
	}
	return count, rows.Err()
}

// Setting looks one value up in SHOW SETTINGS.
func (p *Probe) Setting(name string) (string, error) {
	kv, err := p.keyValues("SHOW SETTINGS")
	if err != nil {
		return "", fmt.Errorf("reading settings failed: %w", err)
	}
	return kv[name], nil
}

func (p *Probe) keyValues(q string) (map[string]string, error) {
	rows, err := p.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("db.Query failed: %w", err)
	}
	defer rows.Close()

	kv := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("rows.Scan failed: %w", err)
		}
		kv[key] = value
	}
	return kv, rows.Err()
}

func kvInt(kv map[string]string, key string) int64 {
	v, err := strconv.ParseInt(kv[key], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

type (
	diskSample struct {
		at    time.Time
		bytes int64
	}

	// GrowthWindow estimates disk growth over a sliding window of
	// (timestamp, disk_bytes) samples.
	GrowthWindow struct {
		span    time.Duration
		samples []diskSample
	}
)

func NewGrowthWindow(span time.Duration) *GrowthWindow {
	return &GrowthWindow{span: span}
}

func (g *GrowthWindow) Observe(at time.Time, bytes int64) {
	g.samples = append(g.samples, diskSample{at, bytes})
	cutoff := at.Add(-g.span)
	for len(g.samples) > 1 && g.samples[0].at.Before(cutoff) {
		g.samples = g.samples[1:]
	}
}

// Rate returns bytes per second over the retained window.
func (g *GrowthWindow) Rate() float64 {
	if len(g.samples) < 2 {
		return 0
	}
	first, last := g.samples[0], g.samples[len(g.samples)-1]
	seconds := last.at.Sub(first.at).Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(last.bytes-first.bytes) / seconds
}
