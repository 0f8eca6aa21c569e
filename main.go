package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"accrual/cmd"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	if err != nil {
		log.WithError(err).Error("accrual failed")
	}
	stop()
	os.Exit(cmd.ExitCode(err))
}
