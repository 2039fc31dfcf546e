package config_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/culturelab/serlogger/internal/config"
)

func writeConfig(c *qt.C, contents string) string {
	path := filepath.Join(c.TempDir(), "serlogger_config.txt")
	c.Assert(os.WriteFile(path, []byte(contents), 0o644), qt.IsNil)
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := config.Load("/nonexistent/serlogger_config.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.SerialPort, qt.Equals, "/dev/tty.usbmodem101")
	c.Assert(cfg.BaudRate, qt.Equals, uint(115200))
	c.Assert(cfg.ReadTimeoutMS, qt.Equals, uint(1000))
	c.Assert(cfg.SampleIntervalMS, qt.Equals, 1000)
	c.Assert(cfg.TargetTemp, qt.Equals, 35.0)
	c.Assert(cfg.TargetCO2, qt.Equals, 5.0)
	c.Assert(cfg.CSVEnabled, qt.IsTrue)
	c.Assert(cfg.MQTTBroker, qt.Equals, "")
	c.Assert(cfg.MockSource, qt.IsFalse)
}

func TestLoad_Overrides(t *testing.T) {
	c := qt.New(t)

	path := writeConfig(c, `
# bench rig B
SERIAL_PORT=/dev/ttyACM0
BAUD_RATE=9600
SAMPLE_INTERVAL_MS=2000
WINDOW_SPAN_SECONDS=60
TARGET_TEMP=37.5
CSV_ENABLED=false
MQTT_BROKER=tcp://localhost:1883
MOCK_SOURCE=true
`)

	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.SerialPort, qt.Equals, "/dev/ttyACM0")
	c.Assert(cfg.BaudRate, qt.Equals, uint(9600))
	c.Assert(cfg.SampleIntervalMS, qt.Equals, 2000)
	c.Assert(cfg.WindowSpanSeconds, qt.Equals, 60)
	c.Assert(cfg.TargetTemp, qt.Equals, 37.5)
	c.Assert(cfg.TargetCO2, qt.Equals, 5.0) // default untouched
	c.Assert(cfg.CSVEnabled, qt.IsFalse)
	c.Assert(cfg.MQTTBroker, qt.Equals, "tcp://localhost:1883")
	c.Assert(cfg.MockSource, qt.IsTrue)
}

func TestLoad_Invalid(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name     string
		contents string
	}{
		{name: "unknown key", contents: "NOT_A_KEY=1\n"},
		{name: "bad number", contents: "BAUD_RATE=fast\n"},
		{name: "bad bool", contents: "CSV_ENABLED=maybe\n"},
		{name: "missing equals", contents: "SERIAL_PORT\n"},
		{name: "zero interval", contents: "SAMPLE_INTERVAL_MS=0\n"},
		{name: "empty port without mock", contents: "SERIAL_PORT=\n"},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			_, err := config.Load(writeConfig(c, tt.contents))
			c.Assert(err, qt.IsNotNil)
		})
	}
}

func TestWindowPoints(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name       string
		spanSec    int
		intervalMS int
		want       int
	}{
		{name: "default 30s at 1Hz", spanSec: 30, intervalMS: 1000, want: 30},
		{name: "30s at 0.5Hz matches original 15 points", spanSec: 30, intervalMS: 2000, want: 15},
		{name: "span shorter than interval clamps to 1", spanSec: 1, intervalMS: 5000, want: 1},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			path := writeConfig(c,
				"WINDOW_SPAN_SECONDS="+strconv.Itoa(tt.spanSec)+"\nSAMPLE_INTERVAL_MS="+strconv.Itoa(tt.intervalMS)+"\n")
			cfg, err := config.Load(path)
			c.Assert(err, qt.IsNil)
			c.Assert(cfg.WindowPoints(), qt.Equals, tt.want)
		})
	}
}
