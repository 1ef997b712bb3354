package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/manticoresoftware/manticore-load/benchmark/worker"
)

type (
	fileConfig struct {
		Host       string         `yaml:"host"`
		Port       int            `yaml:"port"`
		Quiet      bool           `yaml:"quiet"`
		JSON       bool           `yaml:"json"`
		Wait       bool           `yaml:"wait"`
		Histograms *bool          `yaml:"latency_histograms"`
		Workloads  []fileWorkload `yaml:"workloads"`
	}

	fileWorkload struct {
		Init         string    `yaml:"init"`
		Load         []string  `yaml:"load"`
		Distribution []float64 `yaml:"load_distribution"`
		Drop         bool      `yaml:"drop"`
		BatchSize    []int     `yaml:"batch_size"`
		Threads      []int     `yaml:"threads"`
		Total        int       `yaml:"total"`
		Iterations   int       `yaml:"iterations"`
		Delay        float64   `yaml:"delay"`
		Column       string    `yaml:"column"`
	}
)

// loadConfig merges a YAML file into the options parsed so far. File
// workloads are appended after the command-line ones.
func (o *Options) loadConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("os.ReadFile failed: %w", err)
	}

	conf := &fileConfig{}
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return fmt.Errorf("yaml.Unmarshal failed: %w", err)
	}

	if conf.Host != "" {
		o.Host = conf.Host
	}
	if conf.Port != 0 {
		o.Port = conf.Port
	}
	o.Quiet = o.Quiet || conf.Quiet
	o.JSON = o.JSON || conf.JSON
	o.Wait = o.Wait || conf.Wait
	if conf.Histograms != nil {
		o.Histograms = *conf.Histograms
	}

	for _, fw := range conf.Workloads {
		workload := &worker.Workload{
			Threads:      fw.Threads,
			BatchSizes:   fw.BatchSize,
			Total:        fw.Total,
			Iterations:   fw.Iterations,
			InitCommands: fw.Init,
			Templates:    fw.Load,
			Distribution: fw.Distribution,
			Drop:         fw.Drop,
			Delay:        fw.Delay,
		}
		if len(workload.Threads) == 0 {
			workload.Threads = []int{1}
		}
		if len(workload.BatchSizes) == 0 {
			workload.BatchSizes = []int{1}
		}
		if fw.Column != "" {
			name, value, ok := strings.Cut(fw.Column, "/")
			if !ok {
				return fmt.Errorf("%w: bad column in config, want name/value: %s", ErrBadOption, fw.Column)
			}
			workload.ColumnName, workload.ColumnValue = name, value
		}
		o.Workloads = append(o.Workloads, workload)
	}
	return nil
}
