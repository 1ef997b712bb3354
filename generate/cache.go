package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/percona/go-mysql/query"
)

// CachePath derives the cache file location from a fingerprint over the
// init commands, the templates, the total, the batch size and the workload
// index. The distribution weights are not part of the fingerprint.
// Iterations are excluded: the cache stores a single iteration and replay
// happens in memory.
func (g *Generator) CachePath() string {
	material := fmt.Sprintf("%s|%s|%d|%d|%d",
		g.spec.InitCommands,
		strings.Join(g.spec.Templates, "|"),
		g.spec.Total,
		g.spec.BatchSize,
		g.spec.WorkloadIndex,
	)
	return filepath.Join(os.TempDir(), "manticore_load_"+strings.ToLower(query.Id(material)))
}

func readCache(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: os.ReadFile failed: %v", ErrCacheIO, err)
	}

	statements := []string{}
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		statements = append(statements, strings.TrimSuffix(line, ";"))
	}
	return statements, true, nil
}
