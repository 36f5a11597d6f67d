package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/handlers"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/metrics"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/publisher"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/service"
	"github.com/sirupsen/logrus"
)

// App is the payment producer: HTTP in, AMQP out.
type App struct {
	config *config.Config
	Router *gin.Engine
	Broker *broker.Manager
}

// Initialize wires the producer. Extra broker options are applied after the
// defaults, so a test can swap the dialer.
func (a *App) Initialize(cfg *config.Config, opts ...broker.Option) {
	a.config = cfg
	metrics.RegisterMetrics()

	// the producer redials for as long as it serves HTTP
	reconnect := cfg.AMQP.GetReconnectConfig()
	reconnect.MaxAttempts = 0

	topology := broker.NewTopology(cfg.AMQP)
	a.Broker = broker.NewManager(cfg.AMQP.URL, topology, reconnect,
		append(brokerOptions(cfg, false), opts...)...)

	amqpPublisher := publisher.NewAMQPPublisher(a.Broker, topology, cfg.AMQP.PublisherConfirms)
	paymentService := service.NewPaymentService(amqpPublisher, models.NewIDGenerator(time.Now), cfg.Payment)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	healthHandler := handlers.NewHealthHandler(a.Broker, nil)

	a.Router = gin.Default()
	a.RegisterRoutes(paymentHandler, healthHandler)
}

// Run connects to the broker, keeps the connection supervised and serves
// HTTP until ctx is cancelled. A broker that is down, at startup or later,
// is not fatal: requests get 503 until the supervisor reconnects.
func (a *App) Run(ctx context.Context) error {
	if err := a.Broker.Connect(ctx); err != nil {
		logrus.Warnf("Starting without broker connection: %s", err.Error())
	}

	go func() {
		err := a.Broker.Run(ctx, nil)
		if err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("RabbitMQ supervisor stopped: %s", err.Error())
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.config.APP.PORT),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logrus.Infof("Payment producer listening on %s", srv.Addr)
	return serve(ctx, srv)
}

func brokerOptions(cfg *config.Config, consumer bool) []broker.Option {
	opts := []broker.Option{
		broker.WithDialer(broker.DefaultDialer(cfg.AMQP.ConnectTimeout)),
		broker.WithStateListener(TrackBrokerState),
	}
	if consumer {
		opts = append(opts, broker.WithPrefetch(cfg.AMQP.Prefetch))
	}
	if cfg.AMQP.PublisherConfirms {
		opts = append(opts, broker.WithConfirms())
	}
	return opts
}

// TrackBrokerState mirrors the connection state into the state gauge.
func TrackBrokerState(s broker.State) {
	metrics.SetBrokerState(s.String(),
		broker.StateDisconnected.String(),
		broker.StateConnecting.String(),
		broker.StateConnected.String(),
		broker.StateBackoff.String(),
	)
}

// serve runs srv until ctx is cancelled, then drains it.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
