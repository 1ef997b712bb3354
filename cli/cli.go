package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/manticoresoftware/manticore-load/benchmark/worker"
	"github.com/manticoresoftware/manticore-load/stats"
)

type (
	// Options is the fully parsed command line: the connection target,
	// the output mode and one workload per --together section.
	Options struct {
		Host string
		Port int

		Verbose     bool
		Quiet       bool
		JSON        bool
		NoColor     bool
		Wait        bool
		Histograms  bool
		DumpLatency string
		ConfigPath  string

		Workloads []*worker.Workload
	}
)

// Flags is the single flag surface shared by every --together section.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Aliases: []string{"h"}, Value: "127.0.0.1", Usage: "server host"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 9306, Usage: "server SQL port"},
		&cli.StringFlag{Name: "init", Usage: "semicolon-separated setup commands"},
		&cli.StringSliceFlag{Name: "load", Usage: "load template, repeatable"},
		&cli.StringFlag{Name: "load-distribution", Usage: "comma-separated weights, one per --load"},
		&cli.BoolFlag{Name: "drop", Usage: "drop the target table before init"},
		&cli.StringFlag{Name: "batch-size", Value: "1", Usage: "rows per insert, int or comma list"},
		&cli.StringFlag{Name: "threads", Value: "1", Usage: "connection count, int or comma list"},
		&cli.IntFlag{Name: "total", Usage: "rows or queries to generate"},
		&cli.IntFlag{Name: "iterations", Value: 1, Usage: "replay the generated sequence N times"},
		&cli.Float64Flag{Name: "delay", Usage: "seconds between issues on one connection"},
		&cli.StringFlag{Name: "column", Usage: "extra output column as name/value"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "multi-line result blocks"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "one semicolon-separated row per result"},
		&cli.BoolFlag{Name: "json", Usage: "JSON result rows, needs --quiet"},
		&cli.BoolFlag{Name: "wait", Usage: "wait for the table to finish optimizing"},
		&cli.BoolFlag{Name: "no-color", Usage: "plain terminal output"},
		&cli.BoolFlag{Name: "latency-histograms", Value: true, Usage: "bucketed latencies instead of exact samples"},
		&cli.StringFlag{Name: "dump-latency", Usage: "write exact latency samples to this file"},
		&cli.StringFlag{Name: "config", Usage: "load options and workloads from a YAML file"},
	}
}

// Parse splits the arguments into --together sections, parses each with
// the shared flag set and folds the result into one Options.
func Parse(args []string) (*Options, error) {
	for _, arg := range args {
		if arg == "--help" {
			return nil, ErrHelp
		}
	}

	opts := &Options{Host: "127.0.0.1", Port: 9306, Histograms: true}

	sections := [][]string{}
	current := []string{}
	for _, arg := range args {
		if arg == "--together" {
			sections = append(sections, current)
			current = []string{}
			continue
		}
		current = append(current, arg)
	}
	sections = append(sections, current)

	for _, section := range sections {
		workload, err := opts.parseSection(section)
		if err != nil {
			return nil, err
		}
		if workload != nil {
			opts.Workloads = append(opts.Workloads, workload)
		}
	}

	if opts.ConfigPath != "" {
		if err := opts.loadConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.finalize()
	return opts, nil
}

func (o *Options) parseSection(section []string) (*worker.Workload, error) {
	var workload *worker.Workload

	app := &cli.App{
		Name:     "manticore-load",
		HideHelp: true,
		Flags:    Flags(),
		Action: func(c *cli.Context) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unexpected argument: %s", c.Args().First())
			}

			if c.IsSet("host") {
				o.Host = c.String("host")
			}
			if c.IsSet("port") {
				o.Port = c.Int("port")
			}
			o.Verbose = o.Verbose || c.Bool("verbose")
			o.Quiet = o.Quiet || c.Bool("quiet")
			o.JSON = o.JSON || c.Bool("json")
			o.NoColor = o.NoColor || c.Bool("no-color")
			o.Wait = o.Wait || c.Bool("wait")
			if c.IsSet("latency-histograms") {
				o.Histograms = c.Bool("latency-histograms")
			}
			if c.IsSet("dump-latency") {
				o.DumpLatency = c.String("dump-latency")
			}
			if c.IsSet("config") {
				o.ConfigPath = c.String("config")
			}

			if len(c.StringSlice("load")) == 0 && !c.IsSet("total") && !c.IsSet("init") {
				return nil
			}

			threads, err := parseInts(c.String("threads"))
			if err != nil {
				return fmt.Errorf("bad --threads: %v", err)
			}
			batches, err := parseInts(c.String("batch-size"))
			if err != nil {
				return fmt.Errorf("bad --batch-size: %v", err)
			}
			distribution, err := parseFloats(c.String("load-distribution"))
			if err != nil {
				return fmt.Errorf("bad --load-distribution: %v", err)
			}

			workload = &worker.Workload{
				Threads:      threads,
				BatchSizes:   batches,
				Total:        c.Int("total"),
				Iterations:   c.Int("iterations"),
				InitCommands: c.String("init"),
				Templates:    c.StringSlice("load"),
				Distribution: distribution,
				Drop:         c.Bool("drop"),
				Delay:        c.Float64("delay"),
			}
			if c.IsSet("column") {
				name, value, ok := strings.Cut(c.String("column"), "/")
				if !ok {
					return fmt.Errorf("bad --column, want name/value: %s", c.String("column"))
				}
				workload.ColumnName, workload.ColumnValue = name, value
			}
			return nil
		},
	}

	argv := append([]string{"manticore-load"}, section...)
	if err := app.Run(argv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOption, err)
	}
	return workload, nil
}

func (o *Options) validate() error {
	if o.JSON && !o.Quiet {
		return fmt.Errorf("%w: --json requires --quiet", ErrBadOption)
	}
	if len(o.Workloads) == 0 {
		return fmt.Errorf("%w: no workload defined, missing --load", ErrBadOption)
	}
	for i, w := range o.Workloads {
		if len(w.Templates) == 0 {
			return fmt.Errorf("%w: workload %d has no --load", ErrBadOption, i)
		}
		if w.Total <= 0 {
			return fmt.Errorf("%w: workload %d needs --total > 0", ErrBadOption, i)
		}
		if len(w.Distribution) > 0 && len(w.Distribution) != len(w.Templates) {
			return fmt.Errorf("%w: workload %d has %d weights for %d templates",
				ErrBadOption, i, len(w.Distribution), len(w.Templates))
		}
	}
	return nil
}

// finalize stamps the global output options onto every workload.
func (o *Options) finalize() {
	mode := o.Mode()
	for i, w := range o.Workloads {
		w.Index = i
		w.Mode = mode
		w.Wait = o.Wait
		w.Histograms = o.Histograms && o.DumpLatency == ""
		w.DumpLatency = o.DumpLatency
		if w.Iterations < 1 {
			w.Iterations = 1
		}
	}
}

func (o *Options) Mode() stats.Mode {
	switch {
	case o.JSON:
		return stats.ModeJSON
	case o.Quiet:
		return stats.ModeQuiet
	default:
		return stats.ModeVerbose
	}
}

// PrintUsage writes the flag help the way the section parser sees it.
func PrintUsage(w io.Writer) {
	app := &cli.App{
		Name:     "manticore-load",
		Usage:    "load generator for Manticore Search",
		HideHelp: true,
		Flags:    Flags(),
		Writer:   w,
	}
	cli.ShowAppHelp(cli.NewContext(app, nil, nil))
}

func parseInts(s string) ([]int, error) {
	out := []int{}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("must be positive: %d", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	out := []float64{}
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
