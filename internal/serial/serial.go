package serial

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"

	"bmx280-decoder/internal/frame"
	"bmx280-decoder/internal/measurement"
)

const retryInterval = 2 * time.Second

type Service struct {
	portName string
	mode     *serial.Mode
}

func New(portName string, baudRate int) *Service {
	return &Service{
		portName: portName,
		mode: &serial.Mode{
			BaudRate: baudRate,
		},
	}
}

type eventEmitter interface {
	Emit(m measurement.Measurement)
}

// Run keeps the port open, reopening it after a disconnect, until ctx is
// done.
func (s *Service) Run(ctx context.Context, tag string, emitter eventEmitter) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		slog.InfoContext(ctx, "open serial", "portName", s.portName, "baudRate", s.mode.BaudRate)

		port, err := serial.Open(s.portName, s.mode)
		if err != nil {
			slog.ErrorContext(ctx, "open failed", "port", s.portName, "err", err)

			if !sleep(ctx, retryInterval) {
				return nil
			}

			continue
		}

		stop := context.AfterFunc(ctx, func() { _ = port.Close() })
		err = read(ctx, port, tag, emitter)

		stop()
		_ = port.Close()

		if ctx.Err() != nil {
			return nil
		}

		slog.WarnContext(ctx, "serial disconnected, retrying", "err", err)

		if !sleep(ctx, retryInterval) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func read(ctx context.Context, r io.Reader, tag string, emitter eventEmitter) error {
	reader := bufio.NewScanner(r)
	reader.Split(bufio.ScanLines)

	for reader.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := reader.Text()
		if line == "" {
			continue
		}

		f, ok, err := frame.ParseLine(line, tag)
		if !ok {
			continue
		}

		if err != nil {
			slog.WarnContext(ctx, "malformed frame line", "line", line, "err", err)

			continue
		}

		m, err := f.Decode()
		if err != nil {
			slog.WarnContext(ctx, "failed to decode frame", "line", line, "err", err)

			continue
		}

		slog.DebugContext(ctx, line, "measurement", m.String())
		emitter.Emit(m)
	}

	if err := reader.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("scan: %w", err)
	}

	return nil
}
