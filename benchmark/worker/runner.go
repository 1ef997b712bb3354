package worker

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/manticoresoftware/manticore-load/benchmark/msg"
	"github.com/manticoresoftware/manticore-load/generate"
	"github.com/manticoresoftware/manticore-load/monitor"
	"github.com/manticoresoftware/manticore-load/stats"
)

type (
	// Workload is one immutable workload description assembled from a
	// command-line section.
	Workload struct {
		Index int

		Threads      []int
		BatchSizes   []int
		Total        int
		Iterations   int
		InitCommands string
		Templates    []string
		Distribution []float64
		Drop         bool
		Delay        float64

		ColumnName  string
		ColumnValue string

		Wait        bool
		Histograms  bool
		Mode        stats.Mode
		DumpLatency string
	}

	// Runner sweeps one workload through its threads x batch-size
	// combinations against a single server.
	Runner struct {
		workload *Workload
		host     string
		port     int

		ready     chan<- int
		start     <-chan struct{}
		snapshots chan<- *msg.Snapshot
		out       io.Writer

		barrierDone bool
	}
)

var (
	createTableRe = regexp.MustCompile("(?i)create\\s+table\\s+(?:if\\s+not\\s+exists\\s+)?`?(\\w+)")
	writeTableRe  = regexp.MustCompile("(?i)(?:insert|replace)\\s+into\\s+`?(\\w+)")
)

func NewRunner(workload *Workload, host string, port int, ready chan<- int, start <-chan struct{}, snapshots chan<- *msg.Snapshot, out io.Writer) *Runner {
	return &Runner{
		workload:  workload,
		host:      host,
		port:      port,
		ready:     ready,
		start:     start,
		snapshots: snapshots,
		out:       out,
	}
}

// Table returns the table this workload writes to, derived from the init
// commands or, failing that, the first write template. Empty when the
// workload only reads.
func (r *Runner) Table() string {
	if m := createTableRe.FindStringSubmatch(r.workload.InitCommands); m != nil {
		return m[1]
	}
	for _, t := range r.workload.Templates {
		if m := writeTableRe.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	return ""
}

func (r *Runner) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", r.host, r.port)

	db, err := sql.Open("mysql", fmt.Sprintf("tcp(%s)/", addr))
	if err != nil {
		return fmt.Errorf("sql.Open failed: %w", err)
	}
	defer db.Close()

	probe := monitor.NewProbe(db, r.Table())

	for _, threads := range r.workload.Threads {
		for _, batch := range r.workload.BatchSizes {
			if err := r.runCombination(ctx, db, probe, addr, threads, batch); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return nil
}

func (r *Runner) runCombination(ctx context.Context, db *sql.DB, probe *monitor.Probe, addr string, threads, batch int) error {
	w := r.workload

	if w.Drop {
		if err := r.dropTable(db, probe); err != nil {
			return err
		}
	}
	r.runInitCommands(db)

	gen, err := generate.New(generate.Spec{
		InitCommands:  w.InitCommands,
		Templates:     w.Templates,
		Distribution:  w.Distribution,
		Total:         w.Total,
		BatchSize:     batch,
		Iterations:    w.Iterations,
		WorkloadIndex: w.Index,
	})
	if err != nil {
		return err
	}
	queries, err := gen.Queries(ctx)
	if err != nil {
		if err == generate.ErrCanceled {
			return ctx.Err()
		}
		return err
	}

	tracker := stats.NewLatency(w.Histograms)
	delay := time.Duration(w.Delay * float64(time.Second))
	dispatcher, err := NewDispatcher(MySQLDialer(addr), threads, delay, tracker)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	r.awaitBarrier(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if w.Index == 1 {
		if seconds, err := strconv.ParseFloat(os.Getenv("PROCESS_1_DELAY"), 64); err == nil && seconds > 0 {
			time.Sleep(time.Duration(seconds * float64(time.Second)))
		}
	}

	insertMode := gen.BatchCompatible()
	totalDocs := int64(w.Total) * int64(maxInt(w.Iterations, 1))

	startedAt := time.Now()
	qps, stopProgress := r.watchProgress(probe, dispatcher, len(queries), batch, insertMode, startedAt)

	runErr := dispatcher.Run(ctx, queries)
	stopProgress()

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}

	if w.Wait && probe.Table() != "" {
		r.waitForOptimize(ctx, probe)
	}

	elapsed := time.Since(startedAt)
	completed := dispatcher.Completed()
	docs := completed * int64(batch)
	if docs > totalDocs {
		docs = totalDocs
	}

	summary := &stats.Summary{
		ColumnName:   w.ColumnName,
		ColumnValue:  w.ColumnValue,
		InsertMode:   insertMode,
		Threads:      threads,
		Batch:        batch,
		Elapsed:      elapsed,
		TotalQueries: completed,
		TotalDocs:    docs,
		DPS:          rate(docs, elapsed),
		QPSAvg:       rate(completed, elapsed),
		QPSP1:        qps.Percentile(1),
		QPSP5:        qps.Percentile(5),
		QPSP95:       qps.Percentile(95),
		QPSP99:       qps.Percentile(99),
		LatAvg:       tracker.Avg(),
		LatP50:       tracker.Percentile(50),
		LatP95:       tracker.Percentile(95),
		LatP99:       tracker.Percentile(99),
		InitCommands: w.InitCommands,
		LoadCommand:  strings.Join(w.Templates, "; "),
	}
	if err := summary.Write(r.out, w.Mode); err != nil {
		return err
	}

	if w.DumpLatency != "" {
		samples := tracker.Samples()
		if samples == nil {
			logrus.Warn("latency dump needs exact latencies, not histograms")
		} else if err := msg.DumpLatencies(w.DumpLatency, samples); err != nil {
			return err
		}
	}

	return runErr
}

// awaitBarrier rendezvouses with the orchestrator once, before the first
// combination starts timing.
func (r *Runner) awaitBarrier(ctx context.Context) {
	if r.barrierDone {
		return
	}
	r.barrierDone = true

	select {
	case r.ready <- r.workload.Index:
	case <-ctx.Done():
		return
	}
	select {
	case <-r.start:
	case <-ctx.Done():
	}
}

// watchProgress samples dispatch throughput once a second, appends a
// snapshot line to the per-workload progress file and hands the snapshot
// to the orchestrator. The returned stop function blocks until the ticking
// goroutine has exited and the progress file is closed; no extra tick is
// written on stop.
func (r *Runner) watchProgress(probe *monitor.Probe, dispatcher *Dispatcher, total, batch int, insertMode bool, startedAt time.Time) (*stats.QPSTracker, func()) {
	qps := stats.NewQPS()
	cpu := monitor.NewCPUMeter()

	writer, err := msg.NewProgressWriter()
	if err != nil {
		logrus.Warnf("progress file unavailable: %v", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		if writer != nil {
			defer writer.Close()
		}

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var prev int64
		prevAt := startedAt
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				completed := dispatcher.Completed()
				seconds := now.Sub(prevAt).Seconds()
				if seconds <= 0 {
					continue
				}
				tickQPS := float64(completed-prev) / seconds
				tickDPS := tickQPS
				if insertMode {
					tickDPS *= float64(batch)
				}
				qps.Add(tickQPS)
				prev, prevAt = completed, now

				snapshot := &msg.Snapshot{
					Workload: r.workload.Index,
					Table:    probe.Table(),
					PID:      os.Getpid(),
					Time:     now.Format("15:04:05"),
					Elapsed:  now.Sub(startedAt).Seconds(),
					Progress: 100 * float64(completed) / float64(total),
					QPS:      tickQPS,
					DPS:      tickDPS,
					CPU:      cpu.Percent(),
				}
				if count, err := probe.ThreadCount(); err == nil {
					snapshot.Threads = count
				}
				if status, err := probe.TableStatus(); err == nil {
					snapshot.DiskChunks = status.DiskChunks
					snapshot.Optimizing = status.Optimizing
					snapshot.DiskBytes = status.DiskBytes
					snapshot.RAMBytes = status.RAMBytes
					snapshot.IndexedDocuments = status.IndexedDocuments
				}

				if writer != nil {
					if err := writer.Append(snapshot); err != nil {
						logrus.Warnf("appending progress failed: %v", err)
					}
				}
				select {
				case r.snapshots <- snapshot:
				default:
				}
			}
		}
	}()

	return qps, func() {
		close(stop)
		<-done
	}
}

// waitForOptimize polls table status until the background merge settles.
func (r *Runner) waitForOptimize(ctx context.Context, probe *monitor.Probe) {
	for {
		status, err := probe.TableStatus()
		if err != nil || !status.Optimizing {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// dropTable issues DROP TABLE IF EXISTS and, when the server warns that
// the data directory is still populated, removes the directory itself.
func (r *Runner) dropTable(db *sql.DB, probe *monitor.Probe) error {
	table := probe.Table()
	if table == "" || createTableRe.FindStringSubmatch(r.workload.InitCommands) == nil {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("%w: %v", ErrDropTable, err)
	}

	warning, err := lastWarning(db)
	if err != nil || !strings.Contains(warning, "not empty") {
		return nil
	}
	dataDir, err := probe.Setting("data_dir")
	if err != nil || dataDir == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(dataDir, table)); err != nil {
		return fmt.Errorf("%w: %v", ErrDropTable, err)
	}
	return nil
}

func lastWarning(db *sql.DB) (string, error) {
	rows, err := db.Query("SHOW WARNINGS")
	if err != nil {
		return "", fmt.Errorf("db.Query failed: %w", err)
	}
	defer rows.Close()

	var level, message string
	var code int
	for rows.Next() {
		if err := rows.Scan(&level, &code, &message); err != nil {
			return "", fmt.Errorf("rows.Scan failed: %w", err)
		}
	}
	return message, rows.Err()
}

// runInitCommands executes the setup statements one by one. Failures are
// reported and skipped so that reruns against an existing table work.
func (r *Runner) runInitCommands(db *sql.DB) {
	for _, statement := range splitStatements(r.workload.InitCommands) {
		if _, err := db.Exec(statement); err != nil {
			logrus.Warnf("init command failed: %v", err)
		}
	}
}

// splitStatements splits on semicolons outside quoted strings.
func splitStatements(commands string) []string {
	statements := []string{}
	var quote byte
	start := 0

	flush := func(end int) {
		if s := strings.TrimSpace(commands[start:end]); s != "" {
			statements = append(statements, s)
		}
	}
	for i := 0; i < len(commands); i++ {
		c := commands[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == ';':
			flush(i)
			start = i + 1
		}
	}
	flush(len(commands))
	return statements
}

func rate(n int64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(n) / seconds
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
