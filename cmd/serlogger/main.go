// Copyright (c) 2026 Culture Lab Instruments
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/culturelab/serlogger/internal/app"
	"github.com/culturelab/serlogger/internal/config"
)

func main() {
	log.Println("starting serlogger (serial temp/CO2 acquisition)")

	configPath := flag.String("config", "serlogger_config.txt", "path to config file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Printf("failed to load config: %v", err)
		os.Exit(app.ExitConfig)
	}

	session, err := app.NewSession(config.Get())
	if err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(app.ExitCodeFor(err))
	}

	// Closing the live view is the only way a session ends on purpose.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := session.ServeWeb(); err != nil {
			log.Fatalf("web server error: %v", err)
		}
	}()

	if err := session.Run(ctx); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(app.ExitCodeFor(err))
	}
}
