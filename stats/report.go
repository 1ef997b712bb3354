package stats

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type (
	Mode int

	// Summary is the final per-combination result block fed to one of the
	// three output modes.
	Summary struct {
		ColumnName  string
		ColumnValue string

		InsertMode bool
		Threads    int
		Batch      int
		Elapsed    time.Duration

		TotalQueries int64
		TotalDocs    int64
		DPS          float64

		QPSAvg float64
		QPSP1  float64
		QPSP5  float64
		QPSP95 float64
		QPSP99 float64

		LatAvg float64
		LatP50 float64
		LatP95 float64
		LatP99 float64

		InitCommands string
		LoadCommand  string
	}
)

const (
	ModeVerbose Mode = iota
	ModeQuiet
	ModeJSON
)

// The quiet header is printed once per process, ahead of the first row.
var quietHeaderOnce sync.Once

func (s *Summary) Write(w io.Writer, mode Mode) error {
	switch mode {
	case ModeQuiet:
		return s.writeQuiet(w)
	case ModeJSON:
		return s.writeJSON(w)
	default:
		return s.writeVerbose(w)
	}
}

func (s *Summary) writeVerbose(w io.Writer) error {
	buf := &bytes.Buffer{}

	if s.InitCommands != "" {
		fmt.Fprintf(buf, "Init: %s\n", s.InitCommands)
	}
	fmt.Fprintf(buf, "Load: %s\n", s.LoadCommand)
	fmt.Fprintf(buf, "Time: %s\n", formatElapsed(s.Elapsed))
	if s.InsertMode {
		fmt.Fprintf(buf, "Total docs: %d\n", s.TotalDocs)
		fmt.Fprintf(buf, "Docs/sec: %.0f\n", s.DPS)
	}
	fmt.Fprintf(buf, "Total queries: %d\n", s.TotalQueries)
	fmt.Fprintf(buf, "Threads: %d\n", s.Threads)
	fmt.Fprintf(buf, "Batch size: %d\n", s.Batch)
	if s.InsertMode {
		fmt.Fprintf(buf, "QPS: avg %.0f, p1 %.0f, p5 %.0f, p95 %.0f, p99 %.0f\n",
			s.QPSAvg, s.QPSP1, s.QPSP5, s.QPSP95, s.QPSP99)
	} else {
		fmt.Fprintf(buf, "QPS: avg %.0f, p95 %.0f, p99 %.0f\n", s.QPSAvg, s.QPSP95, s.QPSP99)
	}
	fmt.Fprintf(buf, "Latency: avg %.1f, p50 %.1f, p95 %.1f, p99 %.1f\n",
		s.LatAvg, s.LatP50, s.LatP95, s.LatP99)

	// One Write call so concurrent workloads do not interleave blocks.
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing summary failed: %w", err)
	}
	return nil
}

func (s *Summary) writeQuiet(w io.Writer) error {
	var err error
	quietHeaderOnce.Do(func() {
		_, err = fmt.Fprintln(w, s.quietHeader())
	})
	if err != nil {
		return fmt.Errorf("writing header failed: %w", err)
	}
	if _, err := fmt.Fprintln(w, s.quietRow()); err != nil {
		return fmt.Errorf("writing row failed: %w", err)
	}
	return nil
}

func (s *Summary) quietHeader() string {
	cols := []string{"Threads", "Batch", "Time"}
	if s.InsertMode {
		cols = append(cols, "Total Docs", "Docs/Sec")
	}
	cols = append(cols, "Avg QPS", "p99 QPS", "p95 QPS")
	if s.InsertMode {
		cols = append(cols, "p5 QPS", "p1 QPS")
	}
	cols = append(cols, "Lat Avg", "Lat p50", "Lat p95", "Lat p99")
	if s.ColumnName != "" {
		cols = append([]string{s.ColumnName}, cols...)
	}
	return strings.Join(cols, "; ")
}

func (s *Summary) quietRow() string {
	cols := []string{
		fmt.Sprintf("%d", s.Threads),
		fmt.Sprintf("%d", s.Batch),
		formatElapsed(s.Elapsed),
	}
	if s.InsertMode {
		cols = append(cols, fmt.Sprintf("%d", s.TotalDocs), fmt.Sprintf("%.0f", s.DPS))
	}
	cols = append(cols,
		fmt.Sprintf("%.0f", s.QPSAvg),
		fmt.Sprintf("%.0f", s.QPSP99),
		fmt.Sprintf("%.0f", s.QPSP95),
	)
	if s.InsertMode {
		cols = append(cols, fmt.Sprintf("%.0f", s.QPSP5), fmt.Sprintf("%.0f", s.QPSP1))
	}
	cols = append(cols,
		fmt.Sprintf("%.1f", s.LatAvg),
		fmt.Sprintf("%.1f", s.LatP50),
		fmt.Sprintf("%.1f", s.LatP95),
		fmt.Sprintf("%.1f", s.LatP99),
	)
	if s.ColumnName != "" {
		cols = append([]string{s.ColumnValue}, cols...)
	}
	return strings.Join(cols, "; ")
}

func (s *Summary) writeJSON(w io.Writer) error {
	buf := &bytes.Buffer{}
	buf.WriteString("{")

	field := func(key string, value string) {
		if buf.Len() > 1 {
			buf.WriteString(",")
		}
		fmt.Fprintf(buf, "%q:%s", key, value)
	}

	if s.ColumnName != "" {
		field(s.ColumnName, fmt.Sprintf("%q", s.ColumnValue))
	}
	field("threads", fmt.Sprintf("%d", s.Threads))
	field("batch", fmt.Sprintf("%d", s.Batch))
	field("time", fmt.Sprintf("%q", formatElapsed(s.Elapsed)))
	if s.InsertMode {
		field("total_docs", fmt.Sprintf("%d", s.TotalDocs))
		field("docs_per_sec", fmt.Sprintf("%.0f", s.DPS))
	}
	field("avg_qps", fmt.Sprintf("%.0f", s.QPSAvg))
	field("p99_qps", fmt.Sprintf("%.0f", s.QPSP99))
	field("p95_qps", fmt.Sprintf("%.0f", s.QPSP95))
	if s.InsertMode {
		field("p5_qps", fmt.Sprintf("%.0f", s.QPSP5))
		field("p1_qps", fmt.Sprintf("%.0f", s.QPSP1))
	}
	field("lat_avg", fmt.Sprintf("%.1f", s.LatAvg))
	field("lat_p50", fmt.Sprintf("%.1f", s.LatP50))
	field("lat_p95", fmt.Sprintf("%.1f", s.LatP95))
	field("lat_p99", fmt.Sprintf("%.1f", s.LatP99))
	buf.WriteString("}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing json failed: %w", err)
	}
	return nil
}

func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
