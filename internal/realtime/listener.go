package realtime

import (
	"context"
	"time"

	"farm-to-keells/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Channel is the NOTIFY channel written by the notify_table_change trigger.
const Channel = "table_changes"

const pingInterval = 90 * time.Second

type Publisher interface {
	Publish(ev Event) int
}

// Listener bridges Postgres LISTEN/NOTIFY into a Publisher.
type Listener struct {
	dsn          string
	pub          Publisher
	minReconnect time.Duration
	maxReconnect time.Duration
}

func NewListener(dsn string, pub Publisher) *Listener {
	return &Listener{
		dsn:          dsn,
		pub:          pub,
		minReconnect: 10 * time.Second,
		maxReconnect: time.Minute,
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "realtime"), zap.String("channel", Channel))

	pl := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Info("change feed connected")
		case pq.ListenerEventDisconnected:
			log.Warn("change feed disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			log.Info("change feed reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Error("change feed connection attempt failed", zap.Error(err))
		}
	})
	defer pl.Close()

	if err := pl.Listen(Channel); err != nil {
		log.Error("failed to listen", zap.Error(err))
		return err
	}

	return l.consume(ctx, pl.Notify, pl.Ping)
}

func (l *Listener) consume(ctx context.Context, notify <-chan *pq.Notification, ping func() error) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "realtime"), zap.String("channel", Channel))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notify:
			if !ok {
				return nil
			}
			if n == nil {
				// Sent after a reconnect.
				log.Info("change feed resumed after reconnect")
				l.pub.Publish(Event{Type: EventResync})
				continue
			}
			ev, err := ParseEvent(n.Extra)
			if err != nil {
				log.Warn("discarding malformed change event", zap.Error(err))
				continue
			}
			l.pub.Publish(ev)
		case <-ticker.C:
			go func() {
				if err := ping(); err != nil {
					log.Warn("change feed ping failed", zap.Error(err))
				}
			}()
		}
	}
}
