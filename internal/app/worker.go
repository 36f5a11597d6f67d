package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/handlers"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/metrics"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/publisher"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/repository/posgrest"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/service"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/subscriber"
	"github.com/sirupsen/logrus"
)

// PaymentStore is what the worker needs from persistence.
type PaymentStore interface {
	service.PaymentRepo
	handlers.Pinger
}

// Worker is the payment consumer: AMQP in, Postgres out.
type Worker struct {
	config   *config.Config
	Router   *gin.Engine
	Broker   *broker.Manager
	Consumer *subscriber.AMQPConsumer

	handler *handlers.DeliveryHandler
	closers []io.Closer
}

// Initialize connects to Postgres, migrates the payments table and wires the
// consumer.
func (w *Worker) Initialize(cfg *config.Config) error {
	db, err := cfg.DB.GormConnect()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.PaymentRecord{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	w.closers = append(w.closers, sqlDB)

	w.Build(cfg, posgrest.NewPaymentRepository(db))
	return nil
}

// Build wires the worker around an already opened store.
func (w *Worker) Build(cfg *config.Config, store PaymentStore, opts ...broker.Option) {
	w.config = cfg
	metrics.RegisterMetrics()

	var events service.EventPublisher
	var notifier subscriber.Notifier
	if cfg.Kafka.Enabled() {
		kafkaPublisher := publisher.NewKafkaPublisher(cfg.Kafka.Brokers, strings.Split(cfg.Kafka.PublishTopics, ","), cfg.Kafka.GetRetryConfig())
		events, notifier = kafkaPublisher, kafkaPublisher
		w.closers = append(w.closers, kafkaPublisher)
	} else {
		logrus.Info("KAFKA_BROKERS not set, lifecycle events disabled")
	}

	settlement := service.NewSettlementService(store, events, cfg.Worker.ProcessingDelay, cfg.Payment)
	w.handler = handlers.NewDeliveryHandler(settlement)

	topology := broker.NewTopology(cfg.AMQP)
	w.Broker = broker.NewManager(cfg.AMQP.URL, topology, cfg.AMQP.GetReconnectConfig(),
		append(brokerOptions(cfg, true), opts...)...)
	w.Consumer = subscriber.NewAMQPConsumer(w.Broker, topology, cfg.Worker, notifier)

	w.Router = gin.New()
	w.Router.Use(gin.Recovery())
	w.RegisterRoutes(handlers.NewHealthHandler(w.Broker, store))
}

// Run consumes until ctx is cancelled or reconnection is exhausted. A
// cancelled context is a clean shutdown and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", w.config.APP.WorkerPort),
		Handler:           w.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpDone := make(chan error, 1)
	go func() {
		httpDone <- serve(ctx, srv)
	}()

	logrus.Infof("Payment worker %s starting, side port %s", w.Consumer.ConsumerTag(), srv.Addr)
	err := w.Consumer.Listen(ctx, w.handler.HandleDelivery)

	cancel()
	if httpErr := <-httpDone; httpErr != nil {
		logrus.Errorf("Worker HTTP server: %s", httpErr.Error())
	}
	w.close()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) close() {
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			logrus.Warnf("Error closing resource: %s", err.Error())
		}
	}
	w.closers = nil
}
