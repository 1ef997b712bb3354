package stats

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertSummary() *Summary {
	return &Summary{
		InsertMode:   true,
		Threads:      4,
		Batch:        100,
		Elapsed:      42 * time.Second,
		TotalQueries: 1000,
		TotalDocs:    100000,
		DPS:          2380.9,
		QPSAvg:       23.8,
		QPSP1:        10,
		QPSP5:        12,
		QPSP95:       30,
		QPSP99:       31,
		LatAvg:       4.2,
		LatP50:       3.9,
		LatP95:       8.1,
		LatP99:       12.7,
		LoadCommand:  "insert into t values(<increment>)",
	}
}

func TestQuietHeaderPrintedOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	s := insertSummary()
	s.ColumnName, s.ColumnValue = "run", "a"

	require.NoError(t, s.Write(buf, ModeQuiet))
	require.NoError(t, s.Write(buf, ModeQuiet))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	headers := 0
	for _, line := range lines {
		if strings.Contains(line, "Threads; Batch; Time") {
			headers++
		}
	}
	assert.LessOrEqual(t, headers, 1)
	assert.Contains(t, lines[len(lines)-1], "a; 4; 100; 42s")
}

func TestQuietInsertColumns(t *testing.T) {
	s := insertSummary()
	row := s.quietRow()
	assert.Equal(t, "4; 100; 42s; 100000; 2381; 24; 31; 30; 12; 10; 4.2; 3.9; 8.1; 12.7", row)

	header := s.quietHeader()
	assert.Equal(t,
		"Threads; Batch; Time; Total Docs; Docs/Sec; Avg QPS; p99 QPS; p95 QPS; p5 QPS; p1 QPS; Lat Avg; Lat p50; Lat p95; Lat p99",
		header)
}

func TestQuietSelectOmitsDocColumns(t *testing.T) {
	s := insertSummary()
	s.InsertMode = false

	header := s.quietHeader()
	assert.NotContains(t, header, "Total Docs")
	assert.NotContains(t, header, "p5 QPS")
	assert.Contains(t, header, "p99 QPS")
}

func TestJSONOutputIsValid(t *testing.T) {
	buf := &bytes.Buffer{}
	s := insertSummary()
	s.ColumnName, s.ColumnValue = "run", "a"
	require.NoError(t, s.Write(buf, ModeJSON))

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "a", out["run"])
	assert.Equal(t, 4.0, out["threads"])
	assert.Equal(t, "42s", out["time"])
	assert.Equal(t, 100000.0, out["total_docs"])
	assert.Equal(t, 12.7, out["lat_p99"])
}

func TestVerboseBlock(t *testing.T) {
	buf := &bytes.Buffer{}
	s := insertSummary()
	s.InitCommands = "create table t(id bigint)"
	require.NoError(t, s.Write(buf, ModeVerbose))

	out := buf.String()
	assert.Contains(t, out, "Init: create table t(id bigint)\n")
	assert.Contains(t, out, "Load: insert into t values(<increment>)\n")
	assert.Contains(t, out, "Time: 42s\n")
	assert.Contains(t, out, "Total docs: 100000\n")
	assert.Contains(t, out, "QPS: avg 24, p1 10, p5 12, p95 30, p99 31\n")
	assert.Contains(t, out, "Latency: avg 4.2, p50 3.9, p95 8.1, p99 12.7\n")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "59s", formatElapsed(59*time.Second))
	assert.Equal(t, "00:01:00", formatElapsed(60*time.Second))
	assert.Equal(t, "01:01:01", formatElapsed(3661*time.Second))
}
