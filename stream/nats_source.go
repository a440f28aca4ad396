package stream

import (
	"context"
	"sync"

	nats "github.com/nats-io/nats.go"
	"github.com/tutumagi/mcentity/config"
	"github.com/tutumagi/mcentity/logger"
	"github.com/tutumagi/mcentity/protocol"
	"go.uber.org/zap"
)

// NatsSource reads packet envelopes published by the proxy on a nats subject
// and queues them for a Dispatcher. A slow dispatcher holds messages back in
// the subscription, none are dropped.
type NatsSource struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	packets chan *protocol.Packet
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewNatsSource connects and subscribes, buffer bounds the decoded packet queue
func NewNatsSource(cfg *config.Nats, buffer int) (*NatsSource, error) {
	conn, err := nats.Connect(cfg.Connect,
		nats.MaxReconnects(cfg.MaxReconnectionRetries),
		nats.Timeout(cfg.ConnectionTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected from nats", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to nats", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("nats connection closed", zap.Error(nc.LastError()))
		}),
		nats.ErrorHandler(onAsyncError),
	)
	if err != nil {
		return nil, err
	}

	sub, err := conn.SubscribeSync(cfg.Subject)
	if err != nil {
		conn.Close()
		return nil, err
	}
	// the pump is the only consumer, the subscription must hold whatever it has not taken yet
	if err = sub.SetPendingLimits(-1, -1); err != nil {
		conn.Close()
		return nil, err
	}
	// make sure the server knows the subscription before returning
	if err = conn.Flush(); err != nil {
		conn.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &NatsSource{
		conn:    conn,
		sub:     sub,
		packets: make(chan *protocol.Packet, buffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	logger.Info("subscribed to packet stream", zap.String("subject", cfg.Subject))
	go s.pump(ctx)
	return s, nil
}

func onAsyncError(_ *nats.Conn, sub *nats.Subscription, err error) {
	if sub == nil {
		logger.Error("nats async error", zap.Error(err))
		return
	}
	fields := []zap.Field{zap.String("subject", sub.Subject), zap.Error(err)}
	if err == nats.ErrSlowConsumer {
		if dropped, dErr := sub.Dropped(); dErr == nil {
			fields = append(fields, zap.Int("dropped", dropped))
		}
		logger.Error("slow packet consumer, packets dropped", fields...)
		return
	}
	logger.Error("nats subscription error", fields...)
}

// Packets is closed once the source is closed or the connection is lost for good
func (s *NatsSource) Packets() <-chan *protocol.Packet {
	return s.packets
}

func (s *NatsSource) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.packets)

	for {
		msg, err := s.sub.NextMsgWithContext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("packet stream ended", zap.String("subject", s.sub.Subject), zap.Error(err))
			}
			return
		}

		pk, err := protocol.Decode(msg.Data)
		if err != nil {
			logger.Warn("dropping undecodable packet", zap.String("subject", msg.Subject), zap.Error(err))
			continue
		}
		select {
		case s.packets <- pk:
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the pump, unsubscribes and closes the connection
func (s *NatsSource) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		err = s.sub.Unsubscribe()
		s.conn.Close()
	})
	return err
}

// Publish sends a packet the way the proxy does, used by tools and tests
func Publish(conn *nats.Conn, subject string, pk *protocol.Packet) error {
	b, err := protocol.Encode(pk)
	if err != nil {
		return err
	}
	return conn.Publish(subject, b)
}
