package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"

	appInventory "github.com/Zhima-Mochi/marketplace-orders/internal/application/inventory"
	appNotification "github.com/Zhima-Mochi/marketplace-orders/internal/application/notification"
	appOrder "github.com/Zhima-Mochi/marketplace-orders/internal/application/order"
	appPayment "github.com/Zhima-Mochi/marketplace-orders/internal/application/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/config"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/id"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/outbox"
	obsinfra "github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
	httppresentation "github.com/Zhima-Mochi/marketplace-orders/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := zaplogger.New(
		zaplogger.Options{Level: cfg.LogLevel, File: cfg.LogFile},
		observability.F("service", cfg.ServiceName),
	)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	systemLogger := baseLogger.With(observability.F("component", "system"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tel := obsinfra.New(
		oteltrace.New(cfg.ServiceName),
		baseLogger,
		obsinfra.BuildMetrics(prometrics.New(reg, cfg.MetricsNamespace)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers closerStack
	defer closers.closeAll(systemLogger)

	st, err := openStore(ctx, cfg, &closers)
	if err != nil {
		return err
	}
	locker, err := openLocker(ctx, cfg, systemLogger, &closers)
	if err != nil {
		return err
	}
	gateway, err := openGateway(cfg)
	if err != nil {
		return err
	}
	notifier := openNotifier(cfg, baseLogger, &closers)

	// In-memory event bus between the use cases and the notification worker
	bus := outbox.NewBus(baseLogger,
		outbox.WithQueueSize(cfg.OutboxQueueSize),
		outbox.WithConcurrency(cfg.OutboxWorkers),
		outbox.WithHandlerTimeout(2*cfg.NotifyTimeout),
	)
	appNotification.New(bus, notifier, cfg.NotifyTimeout, tel).Start()
	bus.Start(ctx)

	idGenerator := id.New()
	handler := httppresentation.NewHandler(httppresentation.Services{
		CreateOrder:     appOrder.NewCreateOrderUseCase(st, idGenerator, bus, tel),
		CancelOrder:     appOrder.NewCancelOrderUseCase(st, locker, bus, tel),
		SetOrderStatus:  appOrder.NewSetOrderStatusUseCase(st, locker, tel),
		Orders:          appOrder.NewQueries(st.Orders(), tel),
		MakePayment:     appPayment.NewMakePaymentUseCase(st, locker, idGenerator, bus, tel),
		InitiatePayment: appPayment.NewInitiatePaymentUseCase(st.Orders(), gateway, cfg.Currency, cfg.GatewayTimeout, tel),
		CapturePayment:  appPayment.NewCapturePaymentUseCase(st, locker, gateway, idGenerator, bus, tel),
		Payments:        appPayment.NewQueries(st.Payments(), tel),
		Catalog:         appInventory.NewCatalog(st.Catalog(), idGenerator, tel),
	}, tel, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("store", cfg.Store),
			observability.F("locker", cfg.Locker),
			observability.F("gateway", cfg.Gateway),
			observability.F("notifier", cfg.Notifier),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
			errs = append(errs, err)
		} else {
			systemLogger.Info("http_server_stopped")
		}
		// requests are done publishing; flush what they queued
		if err := bus.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
