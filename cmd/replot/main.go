// Copyright (c) 2026 Culture Lab Instruments
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/culturelab/serlogger/internal/chart"
	"github.com/culturelab/serlogger/internal/csvlog"
)

func main() {
	input := flag.String("input", "", "session CSV log to plot")
	output := flag.String("output", "", "output PNG path (default <input>_summary.png)")
	flag.Parse()

	if *input == "" {
		log.Fatal("replot: -input is required")
	}

	out := *output
	if out == "" {
		out = strings.TrimSuffix(*input, ".csv") + "_summary.png"
	}

	samples, err := csvlog.Load(*input)
	if err != nil {
		log.Fatalf("replot: %v", err)
	}
	log.Printf("replot: loaded %d samples from %s", len(samples), *input)

	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("replot: %v", err)
	}
	defer f.Close()

	if err := chart.RenderFinal(samples, f); err != nil {
		log.Fatalf("replot: %v", err)
	}
	log.Printf("replot: summary chart written to %s", out)
}
