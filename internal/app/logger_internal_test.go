package app

import (
	"context"
	"encoding/csv"
	"errors"
	"image/png"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/culturelab/serlogger/internal/config"
	"github.com/culturelab/serlogger/internal/device"
)

// scriptedSource replays a fixed set of records, then idles like a quiet
// serial port (empty lines).
type scriptedSource struct {
	lines  []string
	pos    int
	closed bool
}

func (s *scriptedSource) ReadLine() (string, error) {
	if s.pos >= len(s.lines) {
		return "", nil
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func testConfig(c *qt.C) *config.Config {
	cfg, err := config.Load("/nonexistent/serlogger_config.txt")
	c.Assert(err, qt.IsNil)
	cfg.LogDir = c.TempDir()
	cfg.SampleIntervalMS = 5
	return cfg
}

func readRows(c *qt.C, path string) [][]string {
	f, err := os.Open(path)
	c.Assert(err, qt.IsNil)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	c.Assert(err, qt.IsNil)
	return rows
}

func TestTick_AcceptedAndDroppedRecords(t *testing.T) {
	c := qt.New(t)

	cfg := testConfig(c)
	src := &scriptedSource{lines: []string{
		"22.50,1.20",
		"partial", // wrong arity: dropped, no sample
		"",        // read timeout: dropped, no sample
		"23.10,1.35",
	}}
	s := newSession(cfg, src)

	c.Assert(s.Tick(), qt.IsNil)
	c.Assert(s.Store().Len(), qt.Equals, 1)

	c.Assert(s.Tick(), qt.IsNil)
	c.Assert(s.Store().Len(), qt.Equals, 1) // unchanged

	c.Assert(s.Tick(), qt.IsNil)
	c.Assert(s.Store().Len(), qt.Equals, 1) // unchanged

	c.Assert(s.Tick(), qt.IsNil)
	c.Assert(s.Store().Len(), qt.Equals, 2)

	// Elapsed times are monotonically non-decreasing.
	all := s.Store().All()
	c.Assert(all[1].Elapsed >= all[0].Elapsed, qt.IsTrue)

	// Both accepted samples landed in the CSV, raw field text intact.
	rows := readRows(c, s.csv.Path())
	c.Assert(rows, qt.HasLen, 2)
	c.Assert(rows[0][1], qt.Equals, "22.50")
	c.Assert(rows[0][2], qt.Equals, "1.20")
	c.Assert(rows[1][1], qt.Equals, "23.10")
	c.Assert(rows[1][2], qt.Equals, "1.35")
}

func TestTick_NumericConversionIsFatal(t *testing.T) {
	c := qt.New(t)

	cfg := testConfig(c)
	src := &scriptedSource{lines: []string{
		"22.50,1.20",
		"23.10,1.35",
		"bad,data",
	}}
	s := newSession(cfg, src)

	c.Assert(s.Tick(), qt.IsNil)
	c.Assert(s.Tick(), qt.IsNil)

	err := s.Tick()
	c.Assert(err, qt.ErrorIs, device.ErrBadNumber)
	c.Assert(ExitCodeFor(err), qt.Equals, ExitBadNumber)

	// No third sample, no third CSV row.
	c.Assert(s.Store().Len(), qt.Equals, 2)
	c.Assert(readRows(c, s.csv.Path()), qt.HasLen, 2)
}

func TestTick_LogWriteFailureIsFatal(t *testing.T) {
	c := qt.New(t)

	cfg := testConfig(c)
	src := &scriptedSource{lines: []string{"22.50,1.20"}}
	s := newSession(cfg, src)

	// Make the log path unwritable by removing its directory.
	c.Assert(os.RemoveAll(cfg.LogDir), qt.IsNil)

	err := s.Tick()
	c.Assert(err, qt.ErrorIs, ErrLogWrite)
	c.Assert(ExitCodeFor(err), qt.Equals, ExitLogWrite)
}

func TestRun_StopSignalEndsSessionAndWritesSummary(t *testing.T) {
	c := qt.New(t)

	cfg := testConfig(c)
	src := device.NewMockSource()
	s := newSession(cfg, src)
	c.Assert(s.State(), qt.Equals, StateRunning)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	c.Assert(s.Run(ctx), qt.IsNil)
	c.Assert(s.State(), qt.Equals, StateStopped)
	c.Assert(s.Store().Len() >= 2, qt.IsTrue)

	// The summary chart covers the whole session.
	f, err := os.Open(s.SummaryPath())
	c.Assert(err, qt.IsNil)
	defer f.Close()
	img, err := png.Decode(f)
	c.Assert(err, qt.IsNil)
	c.Assert(img.Bounds().Empty(), qt.IsFalse)
}

func TestRun_FatalTickReleasesSource(t *testing.T) {
	c := qt.New(t)

	cfg := testConfig(c)
	cfg.CSVEnabled = false
	src := &scriptedSource{lines: []string{"bad,data"}}
	s := newSession(cfg, src)

	err := s.Run(context.Background())
	c.Assert(err, qt.ErrorIs, device.ErrBadNumber)
	c.Assert(s.State(), qt.Equals, StateStopped)
	c.Assert(src.closed, qt.IsTrue)
}

func TestExitCodeFor(t *testing.T) {
	c := qt.New(t)

	c.Assert(ExitCodeFor(ErrPortOpen), qt.Equals, ExitPortOpen)
	c.Assert(ExitCodeFor(device.ErrBadNumber), qt.Equals, ExitBadNumber)
	c.Assert(ExitCodeFor(ErrLogWrite), qt.Equals, ExitLogWrite)
	c.Assert(ExitCodeFor(errors.New("anything else")), qt.Equals, 1)
}
