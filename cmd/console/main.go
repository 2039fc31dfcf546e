// Copyright (c) 2026 Culture Lab Instruments
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/culturelab/serlogger/internal/app"
	"github.com/culturelab/serlogger/internal/config"
)

func main() {
	log.Println("starting serlogger console (MQTT subscriber)")

	configPath := flag.String("config", "serlogger_config.txt", "path to config file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
