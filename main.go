/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/indivolabs/cmd"
	"github.com/humaidq/indivolabs/logging"
)

func main() {
	logger := logging.Logger(logging.SourceApp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "indivolabs",
		Usage: "Indivo lab results viewer",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		logger.Fatal("Command failed", "error", err)
	}
}
