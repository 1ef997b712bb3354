package generate

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// prngSeed makes two runs with identical workload specs produce identical
// expansions, which is what keeps the query cache valid across runs.
const prngSeed = 42

var tokenRe = regexp.MustCompile(`<(?:increment|string|text|int|bigint|float|boolean|array_float|array)(?:/[^<>]*)?>`)

type (
	// Spec is the immutable input of one generation run.
	Spec struct {
		InitCommands  string
		Templates     []string
		Distribution  []float64
		Total         int
		BatchSize     int
		Iterations    int
		WorkloadIndex int
	}

	occurrence struct {
		token  string
		offset int
		length int
	}

	template struct {
		text        string
		occurrences []occurrence
		patterns    map[string]*Pattern
		insert      bool
		counters    counterTable

		prefix string
		tuples []string
	}

	Generator struct {
		spec      Spec
		rng       *rand.Rand
		templates []*template
		cum       []float64
	}
)

func New(spec Spec) (*Generator, error) {
	if len(spec.Templates) == 0 {
		return nil, fmt.Errorf("%w: no load template", ErrBadTemplate)
	}
	if spec.Total <= 0 {
		return nil, fmt.Errorf("%w: total must be positive", ErrBadTemplate)
	}
	if spec.BatchSize < 1 {
		spec.BatchSize = 1
	}
	if spec.Iterations < 1 {
		spec.Iterations = 1
	}

	g := &Generator{spec: spec, rng: rand.New(rand.NewSource(prngSeed))}

	for _, text := range spec.Templates {
		t, err := parseTemplate(text)
		if err != nil {
			return nil, err
		}
		g.templates = append(g.templates, t)
	}

	weights := spec.Distribution
	if len(weights) == 0 {
		weights = make([]float64, len(g.templates))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(g.templates) {
		return nil, fmt.Errorf("%w: %d weights for %d templates", ErrBadTemplate, len(weights), len(g.templates))
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: distribution weights sum to zero", ErrBadTemplate)
	}
	g.cum = make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		acc += w / sum
		g.cum[i] = acc
	}

	return g, nil
}

func parseTemplate(text string) (*template, error) {
	t := &template{
		text:     text,
		patterns: map[string]*Pattern{},
		counters: counterTable{},
	}

	head := strings.ToLower(strings.TrimSpace(text))
	t.insert = strings.HasPrefix(head, "insert") || strings.HasPrefix(head, "replace")

	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		token := raw[1 : len(raw)-1]
		t.occurrences = append(t.occurrences, occurrence{token: token, offset: loc[0], length: len(raw)})

		if _, ok := t.patterns[token]; !ok {
			p, err := ParsePattern(token, builtinWords)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadTemplate, err)
			}
			t.patterns[token] = p
		}
	}

	return t, nil
}

// BatchCompatible reports whether any template is an insert-like statement.
func (g *Generator) BatchCompatible() bool {
	for _, t := range g.templates {
		if t.insert {
			return true
		}
	}
	return false
}

// Queries materializes the full statement sequence for this workload. The
// base sequence (one iteration) is cached on disk; a fingerprint match is
// read back instead of regenerated.
func (g *Generator) Queries(ctx context.Context) ([]string, error) {
	path := g.CachePath()

	base, hit, err := readCache(path)
	if err != nil {
		return nil, err
	}
	if !hit {
		base, err = g.expand(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	if g.spec.Iterations == 1 {
		return base, nil
	}
	out := make([]string, 0, len(base)*g.spec.Iterations)
	for i := 0; i < g.spec.Iterations; i++ {
		out = append(out, base...)
	}
	return out, nil
}

func (g *Generator) expand(ctx context.Context, path string) ([]string, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: os.Create failed: %v", ErrCacheIO, err)
	}
	w := bufio.NewWriter(file)

	statements := []string{}
	pending := ""
	pendingShort := false

	emit := func(stmt string, short bool) error {
		if pending != "" {
			if _, err := w.WriteString(pending + ";\n"); err != nil {
				return fmt.Errorf("%w: writing cache failed: %v", ErrCacheIO, err)
			}
		}
		pending, pendingShort = stmt, short
		statements = append(statements, stmt)
		return nil
	}

	abort := func(reason error) ([]string, error) {
		file.Close()
		os.Remove(path)
		return nil, reason
	}

	for i := 0; i < g.spec.Total; i++ {
		if i%256 == 0 && ctx.Err() != nil {
			logrus.Warn("Cache generation interrupted")
			return abort(ErrCanceled)
		}

		t := g.pick()
		row := t.expandOnce(g.rng)

		if !t.insert || g.spec.BatchSize == 1 {
			if err := emit(row, false); err != nil {
				return abort(err)
			}
			continue
		}

		prefix, tuple, ok := splitValues(row)
		if !ok {
			return abort(fmt.Errorf("%w: no VALUES clause in batch-compatible template: %v", ErrBadTemplate, t.text))
		}
		if t.prefix == "" {
			t.prefix = prefix
		}
		t.tuples = append(t.tuples, tuple)

		if len(t.tuples) == g.spec.BatchSize {
			if err := emit(t.prefix+strings.Join(t.tuples, ","), false); err != nil {
				return abort(err)
			}
			t.tuples = nil
		}
	}

	for _, t := range g.templates {
		if len(t.tuples) == 0 {
			continue
		}
		short := len(t.tuples) < g.spec.BatchSize
		if err := emit(t.prefix+strings.Join(t.tuples, ","), short); err != nil {
			return abort(err)
		}
		t.tuples = nil
	}

	if pending != "" {
		terminator := ";\n"
		if pendingShort {
			terminator = "\n"
		}
		if _, err := w.WriteString(pending + terminator); err != nil {
			return abort(fmt.Errorf("%w: writing cache failed: %v", ErrCacheIO, err))
		}
	}

	if err := w.Flush(); err != nil {
		return abort(fmt.Errorf("%w: flushing cache failed: %v", ErrCacheIO, err))
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing cache failed: %v", ErrCacheIO, err)
	}

	return statements, nil
}

func (g *Generator) pick() *template {
	if len(g.templates) == 1 {
		return g.templates[0]
	}
	r := g.rng.Float64()
	for i, c := range g.cum {
		if r < c {
			return g.templates[i]
		}
	}
	return g.templates[len(g.templates)-1]
}

// expandOnce substitutes every pattern occurrence, highest offset first so
// byte-indexed substitution does not perturb earlier offsets.
func (t *template) expandOnce(rng *rand.Rand) string {
	row := t.text
	for i := len(t.occurrences) - 1; i >= 0; i-- {
		occ := t.occurrences[i]
		val := t.patterns[occ.token].Generate(rng, t.counters)
		row = row[:occ.offset] + val + row[occ.offset+occ.length:]
	}
	return row
}

// splitValues cuts an insert-like row into the part up to and including
// "VALUES " and the value tuple after it.
func splitValues(row string) (string, string, bool) {
	idx := strings.Index(strings.ToUpper(row), "VALUES")
	if idx < 0 {
		return "", "", false
	}
	end := idx + len("VALUES")
	for end < len(row) && row[end] == ' ' {
		end++
	}
	return row[:end], row[end:], true
}
