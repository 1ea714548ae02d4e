package dataset

import (
	"context"
	"log/slog"
	"time"

	"bmx280-decoder/internal/measurement"
)

const retention = 7 * 24 * time.Hour

type safeMeasurement interface {
	Set(data measurement.Measurement)
	Get() measurement.Measurement
}

type eventEmitter interface {
	Subscribe() chan measurement.Measurement
	Unsubscribe(ch chan measurement.Measurement)
}

type Stats struct {
	temperature *setOfData
	pressure    *setOfData
	humidity    *setOfData
	current     safeMeasurement
}

type EventResponse struct {
	Chart   *Series                 `json:"chart"`
	Current measurement.Measurement `json:"current"`
}

type Series struct {
	Temperature timeSeries `json:"temperature"`
	Pressure    timeSeries `json:"pressure"`
	Humidity    timeSeries `json:"humidity"`
}

func NewStats() *Stats {
	return &Stats{
		temperature: newSetOfData(),
		pressure:    newSetOfData(),
		humidity:    newSetOfData(),
		current:     measurement.NewSafeMeasurement(),
	}
}

// Push records a reading. Degenerate pressures and absent humidity channels
// are kept out of their series.
func (s *Stats) Push(data measurement.Measurement) {
	s.current.Set(data)
	s.temperature.push(data.Temperature, data.Timestamp)

	if data.PressureValid {
		s.pressure.push(data.Pressure, data.Timestamp)
	}

	if data.HasHumidity {
		s.humidity.push(data.Humidity, data.Timestamp)
	}
}

func (s *Stats) Subscribe(ctx context.Context, emitter eventEmitter) error {
	ch := emitter.Subscribe()
	defer emitter.Unsubscribe(ch)

	for {
		select {
		case data, ok := <-ch:
			if !ok {
				return nil
			}

			s.Push(data)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Stats) Series() *Series {
	return &Series{
		Temperature: s.temperature.timeSeries(),
		Pressure:    s.pressure.timeSeries(),
		Humidity:    s.humidity.timeSeries(),
	}
}

func (s *Stats) Clear(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			slog.DebugContext(ctx, "running scheduled task clear")

			s.removeBefore(now.Add(-retention))
		}
	}
}

func (s *Stats) removeBefore(t time.Time) {
	s.temperature.remove(t)
	s.pressure.remove(t)
	s.humidity.remove(t)
}

func (s *Stats) Current() measurement.Measurement {
	return s.current.Get()
}

func (s *Stats) EventResponse() *EventResponse {
	return &EventResponse{
		Current: s.Current(),
		Chart:   s.Series(),
	}
}
