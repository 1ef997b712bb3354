package hq

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"

	"github.com/manticoresoftware/manticore-load/benchmark/msg"
	"github.com/manticoresoftware/manticore-load/benchmark/worker"
)

type (
	// Config is the orchestrator-scope input assembled by the command
	// line layer.
	Config struct {
		Host      string
		Port      int
		Workloads []*worker.Workload

		// ShowProgress is off in quiet and json modes and when the
		// output is not a terminal.
		ShowProgress bool
	}

	// Orchestrator runs every workload as its own goroutine group,
	// synchronizes their start and folds their progress into one
	// terminal line.
	Orchestrator struct {
		config *Config
		out    io.Writer
	}
)

func New(config *Config, out io.Writer) *Orchestrator {
	return &Orchestrator{config: config, out: out}
}

// Run blocks until every workload finished or failed. A stop signal
// cancels the shared context; workloads finalize their partial statistics
// and Run reports the cancellation to the caller.
func (o *Orchestrator) Run(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := make(chan struct{})
	ready := make(chan int, len(o.config.Workloads))
	snapshots := make(chan *msg.Snapshot, 4*len(o.config.Workloads))

	group, gctx := errgroup.WithContext(ctx)

	for _, w := range o.config.Workloads {
		runner := worker.NewRunner(w, o.config.Host, o.config.Port, ready, start, snapshots, o.out)
		group.Go(func() error {
			return runner.Run(gctx)
		})
	}

	group.Go(func() error {
		for range o.config.Workloads {
			select {
			case <-ready:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		close(start)
		return nil
	})

	displayDone := make(chan struct{})
	go o.display(gctx, snapshots, displayDone)

	err := group.Wait()
	cancel()
	<-displayDone
	return err
}

// display consumes the snapshot stream and repaints the aggregate line
// once a second until the run context ends.
func (o *Orchestrator) display(ctx context.Context, snapshots <-chan *msg.Snapshot, done chan<- struct{}) {
	defer close(done)

	aggregator := NewAggregator()

	var bar *pb.ProgressBar
	if o.config.ShowProgress {
		bar = pb.New(100)
		bar.SetTemplateString(`{{string . "line"}}`)
		bar.SetWriter(o.out)
		bar.Start()
		defer bar.Finish()
	}

	startedAt := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-snapshots:
			aggregator.Observe(snapshot)
		case now := <-ticker.C:
			if bar == nil || len(aggregator.last) == 0 {
				continue
			}
			bar.Set("line", aggregator.Line(now, now.Sub(startedAt)))
			bar.SetCurrent(int64(aggregator.OverallProgress()))
		}
	}
}
