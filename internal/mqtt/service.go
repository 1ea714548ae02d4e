package mqtt

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"bmx280-decoder/internal/config"
	"bmx280-decoder/internal/frame"
	"bmx280-decoder/internal/measurement"
)

const disconnectQuiesceMs = 250

type Service struct {
	topic   string
	client  mqtt.Client
	emitter eventEmitter
}

type eventEmitter interface {
	Emit(m measurement.Measurement)
}

func New(cfg config.MQTT, emitter eventEmitter) *Service {
	srv := &Service{
		topic:   cfg.Topic,
		emitter: emitter,
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(cfg.KeepAliveDuration)
	opts.SetDefaultPublishHandler(srv.messageHandler())
	opts.SetPingTimeout(cfg.PingTimeout)
	opts.SetConnectionNotificationHandler(func(_ mqtt.Client, notification mqtt.ConnectionNotification) {
		switch n := notification.(type) {
		case mqtt.ConnectionNotificationConnected:
			slog.Debug("connected")
		case mqtt.ConnectionNotificationConnecting:
			slog.Debug("connecting", "isReconnect", n.IsReconnect, "attempt", n.Attempt)
		case mqtt.ConnectionNotificationFailed:
			slog.Debug("connection failed", "reason", n.Reason)
		case mqtt.ConnectionNotificationLost:
			slog.Debug("connection lost", "reason", n.Reason)
		case mqtt.ConnectionNotificationBroker:
			slog.Debug("broker connection", "broker", n.Broker.String())
		case mqtt.ConnectionNotificationBrokerFailed:
			slog.Debug("broker connection failed", "reason", n.Reason, "broker", n.Broker.String())
		}
	})

	srv.client = mqtt.NewClient(opts)

	return srv
}

func (s *Service) Run(ctx context.Context) error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}

	if token := s.client.Subscribe(s.topic, 0, nil); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe: %w", token.Error())
	}

	<-ctx.Done()

	return s.Close()
}

func (s *Service) Close() error {
	if !s.client.IsConnectionOpen() {
		return nil
	}

	if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
		return fmt.Errorf("unsubscribe: %w", token.Error())
	}

	s.client.Disconnect(disconnectQuiesceMs)

	return nil
}

func (s *Service) messageHandler() mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Topic(), msg.Payload())
	}
}

// handle decodes one payload as a binary frame.
func (s *Service) handle(topic string, raw []byte) {
	rawHex := hex.EncodeToString(raw)
	slog.Debug("mqtt payload received", "topic", topic, "raw_hex", rawHex, "size", len(raw))

	f, err := frame.Unmarshal(raw)
	if err != nil {
		slog.Warn("failed to parse mqtt payload", "topic", topic, "error", err, "size", len(raw), "raw_hex", rawHex)

		return
	}

	m, err := f.Decode()
	if err != nil {
		slog.Warn("failed to decode mqtt payload", "topic", topic, "error", err, "raw_hex", rawHex)

		return
	}

	slog.Debug("mqtt payload decoded", "topic", topic, "measurement", m.String())
	s.emitter.Emit(m)
}
