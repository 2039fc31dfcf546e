package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values. Defaults reproduce the
// original bench setup, so an absent config file gives a working logger.
type Config struct {
	// Serial device
	SerialPort    string
	BaudRate      uint
	ReadTimeoutMS uint

	// Sampling
	SampleIntervalMS  int // milliseconds between ticks
	WindowSpanSeconds int // live rolling window, in seconds of history

	// Setpoints drawn as dashed target lines
	TargetTemp float64
	TargetCO2  float64

	// CSV sink
	CSVEnabled bool
	LogDir     string

	// Web live view
	WebServerPort int

	// MQTT (optional; empty broker disables publishing)
	MQTTBroker          string
	MQTTClientID        string
	MQTTClientIDConsole string
	TopicSample         string

	// MockSource replaces the serial port with a synthetic signal generator.
	MockSource bool
}

// Package-level unexported variables for singleton pattern: external code
// must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func defaults() *Config {
	return &Config{
		SerialPort:          "/dev/tty.usbmodem101",
		BaudRate:            115200,
		ReadTimeoutMS:       1000,
		SampleIntervalMS:    1000,
		WindowSpanSeconds:   30,
		TargetTemp:          35,
		TargetCO2:           5,
		CSVEnabled:          true,
		LogDir:              ".",
		WebServerPort:       8080,
		MQTTClientID:        "serlogger-producer",
		MQTTClientIDConsole: "serlogger-console",
		TopicSample:         "serlogger/sample",
	}
}

// Load reads the configuration file and returns a Config struct. A missing
// file is not an error: the defaults stand in for it.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial device
	case "SERIAL_PORT":
		c.SerialPort = value
	case "BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid BAUD_RATE %q: %w", value, err)
		}
		c.BaudRate = uint(rate)
	case "READ_TIMEOUT_MS":
		timeout, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid READ_TIMEOUT_MS %q: %w", value, err)
		}
		c.ReadTimeoutMS = uint(timeout)

	// Sampling
	case "SAMPLE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL_MS %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("SAMPLE_INTERVAL_MS must be positive, got %d", interval)
		}
		c.SampleIntervalMS = interval
	case "WINDOW_SPAN_SECONDS":
		span, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SPAN_SECONDS %q: %w", value, err)
		}
		if span <= 0 {
			return fmt.Errorf("WINDOW_SPAN_SECONDS must be positive, got %d", span)
		}
		c.WindowSpanSeconds = span

	// Setpoints
	case "TARGET_TEMP":
		target, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TARGET_TEMP %q: %w", value, err)
		}
		c.TargetTemp = target
	case "TARGET_CO2":
		target, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TARGET_CO2 %q: %w", value, err)
		}
		c.TargetCO2 = target

	// CSV sink
	case "CSV_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid CSV_ENABLED %q: %w", value, err)
		}
		c.CSVEnabled = enabled
	case "LOG_DIR":
		c.LogDir = value

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_SAMPLE":
		c.TopicSample = value

	// Mock source
	case "MOCK_SOURCE":
		mock, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MOCK_SOURCE %q: %w", value, err)
		}
		c.MockSource = mock

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.SerialPort == "" && !c.MockSource {
		return fmt.Errorf("SERIAL_PORT is required unless MOCK_SOURCE=true")
	}
	if c.BaudRate == 0 {
		return fmt.Errorf("BAUD_RATE is required")
	}
	if c.MQTTBroker != "" && c.TopicSample == "" {
		return fmt.Errorf("TOPIC_SAMPLE is required when MQTT_BROKER is set")
	}
	return nil
}

// WindowPoints converts the configured window span into a point count at the
// configured sampling interval, so the rolling window always covers the same
// stretch of wall time regardless of tick rate.
func (c *Config) WindowPoints() int {
	n := c.WindowSpanSeconds * 1000 / c.SampleIntervalMS
	if n < 1 {
		n = 1
	}
	return n
}

// InitGlobal initializes the global configuration from file. Uses sync.Once
// so this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
