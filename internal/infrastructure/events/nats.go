package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

var _ Bus = (*NATSBus)(nil)

// NATSBus publishes through JetStream so msg ids deduplicate retries.
type NATSBus struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

func NewNATSBus(addr string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("bizmart-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(3 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected, buffering messages")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &NATSBus{nc: nc, js: js}, nil
}

func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte, msgID string) error {
	log.Debug().Str("subject", subject).Int("data_size", len(data)).Msg("publishing event")
	_, err := b.js.Publish(subject, data, nats.MsgId(msgID), nats.Context(ctx))
	return err
}

// EnsureStream creates the JetStream stream for subjects unless it exists.
func (b *NATSBus) EnsureStream(name string, subjects ...string) error {
	_, err := b.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: subjects,
		Storage:  nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("add stream %s: %w", name, err)
	}
	return nil
}

// Ping reports whether the connection is currently up.
func (b *NATSBus) Ping(context.Context) error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("nats status %s", b.nc.Status())
	}
	return nil
}

func (b *NATSBus) Drain() error {
	return b.nc.Drain()
}
