package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/culturelab/serlogger/internal/sample"
)

// Filename derives the session log name from the session start time,
// MMDDYY_HHMMSS.csv.
func Filename(start time.Time) string {
	return start.Format("010206_150405") + ".csv"
}

// Logger appends one row per accepted sample. The file is opened and closed
// around every write so each sample is durable on its own; at ~1 Hz the open
// overhead does not matter.
type Logger struct {
	path string
}

func New(dir string, start time.Time) *Logger {
	return &Logger{path: filepath.Join(dir, Filename(start))}
}

func NewAtPath(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Path() string {
	return l.path
}

// Append writes one row [elapsed, rawTemp, rawCO2]. The value columns carry
// the device's original field text, not the parsed floats. There is no header
// row.
func (l *Logger) Append(elapsed, rawTemp, rawCO2 string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{elapsed, rawTemp, rawCO2}); err != nil {
		f.Close()
		return fmt.Errorf("write log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush log row: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close log %s: %w", l.path, err)
	}
	return nil
}

// Load reads a session log back into samples, for offline replotting.
func Load(path string) ([]sample.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}

	samples := make([]sample.Sample, 0, len(rows))
	for i, row := range rows {
		elapsed, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("log row %d: bad elapsed %q: %w", i+1, row[0], err)
		}
		temp, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("log row %d: bad temp %q: %w", i+1, row[1], err)
		}
		co2, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("log row %d: bad co2 %q: %w", i+1, row[2], err)
		}
		samples = append(samples, sample.Sample{Elapsed: elapsed, Temp: temp, CO2: co2})
	}
	return samples, nil
}
