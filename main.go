package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bmx280-decoder/internal/config"
	"bmx280-decoder/internal/dataset"
	"bmx280-decoder/internal/measurement"
	"bmx280-decoder/internal/metrics"
	"bmx280-decoder/internal/mqtt"
	"bmx280-decoder/internal/sensor"
	"bmx280-decoder/internal/serial"
	"bmx280-decoder/internal/udp"
	"bmx280-decoder/internal/web"
)

const (
	shutdownTimeout = 2 * time.Second
	serviceName     = "bmx280-decoder"
)

var version = "dev" //nolint:gochecknoglobals

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func main() {
	cfg := config.FromFlags()

	if cfg.ShowVersion {
		fmt.Println(serviceName, version)

		return
	}

	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.ErrorContext(ctx, "run", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	emitter := measurement.NewEventEmitter()
	defer emitter.Close()

	stats := dataset.NewStats()
	collector := metrics.New()

	if cfg.Metrics.PushURL != "" {
		labels := `service_name="` + serviceName + `"`
		if err := collector.Push(ctx, cfg.Metrics.PushURL, cfg.Metrics.PushInterval, labels); err != nil {
			return err
		}
	}

	serverHTTP := web.New(ctx, cfg.HTTPServer.Addr, emitter, stats, collector)

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.UDPServer.Enable {
		serverUDP, err := udp.Listen(cfg.UDPServer.Port)
		if err != nil {
			return err
		}

		defer serverUDP.Close()

		g.Go(func() error {
			return serverUDP.Serve(gCtx, emitter)
		})
	}

	if cfg.Serial.Enable {
		serialService := serial.New(cfg.Serial.PortName, cfg.Serial.BaudRate)

		g.Go(func() error {
			return serialService.Run(gCtx, cfg.Serial.Tag, emitter)
		})
	}

	if cfg.MQTT.Enable {
		mqttService := mqtt.New(cfg.MQTT, emitter)

		g.Go(func() error {
			return mqttService.Run(gCtx)
		})
	}

	if cfg.I2C.Enable {
		bus, err := sensor.OpenBus(cfg.I2C.Bus)
		if err != nil {
			return err
		}

		defer bus.Close()

		dev := sensor.New(bus, uint16(cfg.I2C.Address)) //nolint:gosec

		g.Go(func() error {
			return dev.Poll(gCtx, cfg.I2C.Interval, emitter)
		})
	}

	g.Go(func() error {
		return stats.Subscribe(gCtx, emitter)
	})

	g.Go(func() error {
		return collector.Subscribe(gCtx, emitter)
	})

	g.Go(func() error {
		return stats.Clear(gCtx, cfg.Dataset.ClearInterval)
	})

	g.Go(func() error {
		slog.InfoContext(gCtx, "listening", "addr", serverHTTP.Addr)

		return serverHTTP.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), shutdownTimeout)
		defer cancel()

		return serverHTTP.Shutdown(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
