package msg

import (
	"fmt"
	"os"

	"github.com/pierrec/lz4"
	"github.com/vmihailenco/msgpack"
)

// DumpLatencies writes exact latency samples (milliseconds) as an
// lz4-compressed msgpack blob for offline analysis.
func DumpLatencies(path string, samples []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create failed: %w", err)
	}
	defer file.Close()

	zw := lz4.NewWriter(file)
	if err := msgpack.NewEncoder(zw).Encode(samples); err != nil {
		return fmt.Errorf("msgpack.Encoder.Encode failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("lz4.Writer.Close failed: %w", err)
	}
	return nil
}

func LoadLatencies(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open failed: %w", err)
	}
	defer file.Close()

	samples := []float64{}
	if err := msgpack.NewDecoder(lz4.NewReader(file)).Decode(&samples); err != nil {
		return nil, fmt.Errorf("msgpack.Decoder.Decode failed: %w", err)
	}
	return samples, nil
}
