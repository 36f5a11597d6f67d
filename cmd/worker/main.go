package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/app"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		fmt.Println("Error reading config file", err)
		os.Exit(1)
	}
	cfg.APP.ConfigureLogger()

	worker := &app.Worker{}
	if err := worker.Initialize(cfg); err != nil {
		logrus.Fatalf("Payment worker failed to start: %s", err.Error())
	}
	if err := worker.Run(ctx); err != nil {
		logrus.Fatalf("Payment worker stopped: %s", err.Error())
	}

	logrus.Info("Payment worker stopped")
}
