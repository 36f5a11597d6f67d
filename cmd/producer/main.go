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

	producer := &app.App{}
	producer.Initialize(cfg)
	if err := producer.Run(ctx); err != nil {
		logrus.Fatalf("Payment producer stopped: %s", err.Error())
	}

	logrus.Info("Payment producer stopped")
}
