package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/manticoresoftware/manticore-load/benchmark/hq"
	"github.com/manticoresoftware/manticore-load/cli"
)

var (
	Version = "dev"
)

func main() {
	options, err := cli.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			cli.PrintUsage(os.Stdout)
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	tty := isTerminal(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: options.NoColor || !tty})
	if options.Quiet || options.JSON {
		logrus.SetLevel(logrus.ErrorLevel)
	}

	orchestrator := hq.New(&hq.Config{
		Host:         options.Host,
		Port:         options.Port,
		Workloads:    options.Workloads,
		ShowProgress: !options.Quiet && !options.JSON && tty,
	}, os.Stdout)

	if err := orchestrator.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
