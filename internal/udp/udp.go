package udp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"bmx280-decoder/internal/frame"
	"bmx280-decoder/internal/measurement"
)

const (
	readFromTimeout = 2 * time.Second
	maxUDPSafeSize  = 1472
)

type Service struct {
	pc net.PacketConn
}

func Listen(port string) (*Service, error) {
	slog.Info("listening UDP", "port", port)

	pc, err := net.ListenPacket("udp4", port)
	if err != nil {
		return nil, fmt.Errorf("listenPacket: %w", err)
	}

	return &Service{
		pc: pc,
	}, nil
}

func (s *Service) Addr() net.Addr {
	return s.pc.LocalAddr()
}

func (s *Service) Close() error {
	return s.pc.Close() //nolint:wrapcheck
}

type eventEmitter interface {
	Emit(m measurement.Measurement)
}

// Serve decodes every datagram as a frame and emits the reading. Malformed
// datagrams are logged and dropped.
func (s *Service) Serve(ctx context.Context, emitter eventEmitter) error {
	buf := make([]byte, maxUDPSafeSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := s.pc.SetReadDeadline(time.Now().Add(readFromTimeout))
		if err != nil {
			return fmt.Errorf("setReadDeadline: %w", err)
		}

		n, addr, err := s.pc.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			slog.WarnContext(ctx, "failed to read from UDP", "err", err)

			continue
		}

		m, err := decode(buf[:n])
		if err != nil {
			slog.WarnContext(ctx, "dropping datagram", "from", addr.String(), "size", n, "err", err)

			continue
		}

		slog.DebugContext(ctx, "udp frame decoded", "from", addr.String(), "measurement", m.String())
		emitter.Emit(m)
	}
}

func decode(data []byte) (measurement.Measurement, error) {
	f, err := frame.Unmarshal(data)
	if err != nil {
		return measurement.Measurement{}, fmt.Errorf("unmarshal: %w", err)
	}

	m, err := f.Decode()
	if err != nil {
		return measurement.Measurement{}, fmt.Errorf("decode: %w", err)
	}

	return m, nil
}
