// Copyright (c) 2026 Culture Lab Instruments
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package device

import (
	"fmt"
	"math"
	"time"
)

type mockSource struct {
	start time.Time
}

// NewMockSource returns a line source that synthesizes smooth temperature and
// CO2 curves around the usual setpoints, for bench runs without hardware.
func NewMockSource() LineSource {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) ReadLine() (string, error) {
	elapsed := time.Since(m.start).Seconds()

	temp := 30 + 5*math.Sin(elapsed/20)
	co2 := 4 + 1.5*math.Cos(elapsed/35)
	return fmt.Sprintf("%.2f,%.2f", temp, co2), nil
}

func (m *mockSource) Close() error {
	return nil
}
