// Package metrics exports compensated readings as VictoriaMetrics histograms
// and counters, labelled by sensor variant.
package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	vm "github.com/VictoriaMetrics/metrics"

	"bmx280-decoder/internal/measurement"
)

const unknownDevice = "unknown"

type eventEmitter interface {
	Subscribe() chan measurement.Measurement
	Unsubscribe(ch chan measurement.Measurement)
}

type Collector struct {
	set *vm.Set
}

func New() *Collector {
	return &Collector{
		set: vm.NewSet(),
	}
}

func series(name, device string) string {
	if device == "" {
		device = unknownDevice
	}

	return fmt.Sprintf("%s{device=%q}", name, device)
}

// Observe records one reading. Pressure is only observed when compensation
// produced a value and humidity only when the part has the channel.
func (c *Collector) Observe(m measurement.Measurement) {
	c.set.GetOrCreateCounter(series("bmx280_measurements_total", m.Device)).Inc()
	c.set.GetOrCreateHistogram(series("bmx280_temperature_celsius", m.Device)).Update(float64(m.Temperature))

	if m.PressureValid {
		c.set.GetOrCreateHistogram(series("bmx280_pressure_pascal", m.Device)).Update(float64(m.Pressure))
		c.set.GetOrCreateHistogram(series("bmx280_pressure_mm_hg", m.Device)).
			Update(float64(measurement.PascalToMmHg(m.Pressure)))
	} else {
		c.set.GetOrCreateCounter(series("bmx280_degenerate_pressure_total", m.Device)).Inc()
	}

	if m.HasHumidity {
		c.set.GetOrCreateHistogram(series("bmx280_humidity", m.Device)).Update(float64(m.Humidity))
	}
}

func (c *Collector) Subscribe(ctx context.Context, emitter eventEmitter) error {
	ch := emitter.Subscribe()
	defer emitter.Unsubscribe(ch)

	for {
		select {
		case data, ok := <-ch:
			if !ok {
				return nil
			}

			c.Observe(data)
		case <-ctx.Done():
			return nil
		}
	}
}

// WritePrometheus writes the collected series in Prometheus text format. With
// process set, Go runtime and process metrics are appended.
func (c *Collector) WritePrometheus(w io.Writer, process bool) {
	c.set.WritePrometheus(w)

	if process {
		vm.WriteProcessMetrics(w)
	}
}

// Push periodically sends the collected series to pushURL until ctx is done,
// e.g. http://127.0.0.1:8428/api/v1/import/prometheus.
func (c *Collector) Push(ctx context.Context, pushURL string, interval time.Duration, extraLabels string) error {
	writeMetrics := func(w io.Writer) {
		c.WritePrometheus(w, true)
	}

	opts := &vm.PushOptions{
		ExtraLabels: extraLabels,
	}

	if err := vm.InitPushExtWithOptions(ctx, pushURL, interval, writeMetrics, opts); err != nil {
		return fmt.Errorf("init metrics push: %w", err)
	}

	slog.InfoContext(ctx, "pushing metrics", "url", pushURL, "interval", interval)

	return nil
}
