package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/culturelab/serlogger/internal/chart"
	"github.com/culturelab/serlogger/internal/config"
	"github.com/culturelab/serlogger/internal/csvlog"
	"github.com/culturelab/serlogger/internal/device"
	"github.com/culturelab/serlogger/internal/sample"
)

// Live renderer states: RUNNING while the tick loop drives redraws, STOPPED
// once the external stop signal has been observed.
type State int

const (
	StateRunning State = iota
	StateStopped
)

// Fatal error categories, each with its own exit code.
var (
	ErrPortOpen = errors.New("serial port unavailable")
	ErrLogWrite = errors.New("log write failed")
)

// Process exit codes, one per fatal cause.
const (
	ExitPortOpen  = 2
	ExitBadNumber = 3
	ExitLogWrite  = 4
	ExitConfig    = 5
)

// ExitCodeFor maps a fatal session error to its process exit code.
func ExitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrPortOpen):
		return ExitPortOpen
	case errors.Is(err, device.ErrBadNumber):
		return ExitBadNumber
	case errors.Is(err, ErrLogWrite):
		return ExitLogWrite
	default:
		return 1
	}
}

// Session owns one run of the logger, from port-open to display-close: the
// line source, the sample store, and the sinks.
type Session struct {
	cfg    *config.Config
	start  time.Time
	source device.LineSource
	store  *sample.Store
	csv    *csvlog.Logger
	mqtt   mqtt.Client
	hub    *wsHub

	mu    sync.Mutex
	state State
}

// NewSession opens the line source and wires the sinks. Port open is the one
// startup step with no retry: if it fails the session never starts.
func NewSession(cfg *config.Config) (*Session, error) {
	var src device.LineSource
	if cfg.MockSource {
		log.Println("logger: using mock line source")
		src = device.NewMockSource()
	} else {
		serialSrc, err := device.OpenSerial(cfg.SerialPort, cfg.BaudRate, cfg.ReadTimeoutMS)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPortOpen, err)
		}
		log.Printf("logger: serial port open on %s at %d baud", cfg.SerialPort, cfg.BaudRate)
		src = serialSrc
	}

	s := newSession(cfg, src)

	if cfg.MQTTBroker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientID)

		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			src.Close()
			return nil, fmt.Errorf("mqtt connect: %w", token.Error())
		}
		log.Printf("logger: connected to MQTT broker at %s", cfg.MQTTBroker)
		s.mqtt = client
	}

	return s, nil
}

// newSession wires a session around an already-open line source.
func newSession(cfg *config.Config, src device.LineSource) *Session {
	s := &Session{
		cfg:    cfg,
		start:  time.Now(),
		source: src,
		store:  sample.NewStore(),
		hub:    newWSHub(),
		state:  StateRunning,
	}
	if cfg.CSVEnabled {
		s.csv = csvlog.New(cfg.LogDir, s.start)
		log.Printf("logger: logging samples to %s", s.csv.Path())
	}
	return s
}

func (s *Session) Store() *sample.Store {
	return s.store
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Tick performs one acquisition step: read one record, parse it, append to
// the store, and fan out to the sinks. A wrong-arity line is dropped and the
// session continues; a numeric conversion failure or a log write failure ends
// the session.
func (s *Session) Tick() error {
	line, err := s.source.ReadLine()
	if err != nil {
		return err
	}

	r, ok, err := device.ParseLine(line)
	if err != nil {
		return err
	}
	if !ok {
		// Partial or noise line; drop it and keep sampling.
		// log.Printf("logger: dropped record %q", line)
		return nil
	}

	elapsed := time.Since(s.start).Seconds()
	elapsedStr := strconv.FormatFloat(elapsed, 'f', 2, 64)

	smp := sample.Sample{
		Elapsed: math.Round(elapsed*100) / 100,
		Temp:    r.Temp,
		CO2:     r.CO2,
	}
	s.store.Append(smp)

	if s.csv != nil {
		if err := s.csv.Append(elapsedStr, r.RawTemp, r.RawCO2); err != nil {
			return fmt.Errorf("%w: %v", ErrLogWrite, err)
		}
	}

	if s.mqtt != nil {
		s.publish(smp)
	}
	s.hub.broadcast(smp)

	return nil
}

// publish sends the sample to the MQTT topic, retained like the latest-value
// topics on the broker. Publish failures are logged and the session carries
// on; the broker is a convenience sink, not the system of record.
func (s *Session) publish(smp sample.Sample) {
	payload, err := json.Marshal(smp)
	if err != nil {
		log.Printf("logger: json marshal error: %v", err)
		return
	}
	token := s.mqtt.Publish(s.cfg.TopicSample, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		log.Printf("logger: publish error: %v", token.Error())
	}
}

// Run drives the session: one Tick per sample interval until the stop signal
// cancels the context, then the summary chart is written. The source is
// released on every exit path, including the fatal ones.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	ticker := time.NewTicker(time.Duration(s.cfg.SampleIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("logger: sampling every %d ms, window %d points",
		s.cfg.SampleIntervalMS, s.cfg.WindowPoints())

	for {
		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			log.Printf("logger: stop signal received, ending session with %d samples", s.store.Len())
			return s.writeSummary()
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				s.setState(StateStopped)
				return err
			}
		}
	}
}

// Close releases the line source and the MQTT connection.
func (s *Session) Close() {
	if err := s.source.Close(); err != nil {
		log.Printf("logger: close source: %v", err)
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect(250)
	}
}

// SummaryPath is where the final full-history chart lands, next to the CSV
// log and named after the session start.
func (s *Session) SummaryPath() string {
	base := strings.TrimSuffix(csvlog.Filename(s.start), ".csv") + "_summary.png"
	return filepath.Join(s.cfg.LogDir, base)
}

func (s *Session) writeSummary() error {
	history := s.store.All()
	if len(history) < 2 {
		log.Printf("logger: only %d samples, skipping summary chart", len(history))
		return nil
	}

	path := s.SummaryPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary chart %s: %w", path, err)
	}
	defer f.Close()

	if err := chart.RenderFinal(history, f); err != nil {
		return err
	}
	log.Printf("logger: summary chart written to %s", path)
	return nil
}
