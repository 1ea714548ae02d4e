package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bmx280-decoder/internal/dataset"
	"bmx280-decoder/internal/decoder"
	"bmx280-decoder/internal/frame"
	"bmx280-decoder/internal/measurement"
)

const (
	readHeaderTimeout = 2 * time.Second
	maxDecodeBody     = 1 << 10
	defaultChipID     = "58"
)

type stats interface {
	Series() *dataset.Series
	Current() measurement.Measurement
}

type eventEmitter interface {
	Subscribe() chan measurement.Measurement
	Unsubscribe(ch chan measurement.Measurement)
}

type metricsWriter interface {
	WritePrometheus(w io.Writer, process bool)
}

// reading is a measurement together with the derived units shown to clients.
type reading struct {
	measurement.Measurement

	PressureMmHg    float32 `json:"pressure_mm_hg,omitempty"`
	TemperatureText string  `json:"temperature_text"`
	PressureText    string  `json:"pressure_text,omitempty"`
}

func newReading(m measurement.Measurement) *reading {
	env := m.Env()

	r := &reading{
		Measurement:     m,
		TemperatureText: env.Temperature.String(),
	}

	if m.PressureValid {
		r.PressureMmHg = measurement.PascalToMmHg(m.Pressure)
		r.PressureText = env.Pressure.String()
	}

	return r
}

type eventResponse struct {
	Current *reading        `json:"current"`
	Chart   *dataset.Series `json:"chart"`
}

type decodeRequest struct {
	ChipID      string `json:"chip_id"`
	Calibration string `json:"calibration"`
	Sample      string `json:"sample"`
}

var errStreamUnsupported = errors.New("streaming unsupported")

func newServer(ctx context.Context, addr string) *http.Server {
	return &http.Server{
		ReadHeaderTimeout: readHeaderTimeout,
		Addr:              addr,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("error encoding JSON", "err", err)
	}
}

func sendResponse(w http.ResponseWriter, response *eventResponse) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errStreamUnsupported
	}

	if _, err := fmt.Fprintf(w, "data: "); err != nil {
		return fmt.Errorf("error writing to client: %w", err)
	}

	encoder := json.NewEncoder(w)

	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}

	if _, err := fmt.Fprint(w, "\n\n"); err != nil {
		return fmt.Errorf("error writing to client: %w", err)
	}

	flusher.Flush()

	return nil
}

func subscribeHandler(emitter eventEmitter, s stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ch := emitter.Subscribe()
		defer emitter.Unsubscribe(ch)

		ctx := r.Context()

		if err := sendResponse(w, &eventResponse{
			Current: newReading(s.Current()),
			Chart:   s.Series(),
		}); err != nil {
			slog.ErrorContext(ctx, "subscribe", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		for {
			select {
			case data, ok := <-ch:
				if !ok {
					return
				}

				if err := sendResponse(w, &eventResponse{
					Current: newReading(data),
					Chart:   s.Series(),
				}); err != nil {
					slog.ErrorContext(ctx, "subscribe", "err", err)

					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

func mainHandler(s stats) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		m := s.Current()
		if m.Timestamp.IsZero() {
			http.Error(w, "no reading yet", http.StatusServiceUnavailable)

			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, m.String())
	}
}

func currentHandler(s stats) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, newReading(s.Current()))
	}
}

func seriesHandler(s stats) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.Series())
	}
}

func decodeHandler(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDecodeBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)

		return
	}

	if req.ChipID == "" {
		req.ChipID = defaultChipID
	}

	f, err := frame.ParseFields(req.ChipID, req.Calibration, req.Sample)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	m, err := f.Decode()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, decoder.ErrUnsupportedVariant) {
			status = http.StatusUnprocessableEntity
		}

		http.Error(w, err.Error(), status)

		return
	}

	slog.DebugContext(r.Context(), "decoded frame", "chip", req.ChipID, "measurement", m.String())

	writeJSON(w, http.StatusOK, newReading(m))
}

func metricsHandler(m metricsWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.WritePrometheus(w, true)
	}
}

// requestLogger logs every request once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			slog.DebugContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		}()

		next.ServeHTTP(ww, r)
	})
}

func newRouter(emitter eventEmitter, s stats, m metricsWriter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", mainHandler(s))
	r.Get("/subscribe", subscribeHandler(emitter, s))
	r.Get("/metrics", metricsHandler(m))

	r.Route("/api", func(r chi.Router) {
		r.Get("/current", currentHandler(s))
		r.Get("/series", seriesHandler(s))
		r.Post("/decode", decodeHandler)
	})

	return r
}

func New(ctx context.Context, addr string, emitter eventEmitter, s stats, m metricsWriter) *http.Server {
	srv := newServer(ctx, addr)
	srv.Handler = newRouter(emitter, s, m)

	return srv
}
