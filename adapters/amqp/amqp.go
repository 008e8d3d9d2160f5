// Package amqp adapts github.com/rabbitmq/amqp091-go channels to the
// poolx.Manager contract. It is the Go-native stand-in for spec.md's
// deadpool-lapin adapter: one long-lived AMQP connection is dialed by the
// caller and handed in, and the pool only ever creates and recycles the
// lightweight channels multiplexed over it — continuing the shape of the
// teacher repo's own examples/main.go, which pooled *amqp.Channel values
// the same way.
package amqp

import (
	"context"
	"fmt"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cloudkite/poolx"
)

// Channel wraps an AMQP channel with a closed flag maintained from the
// channel's own close notification, since amqp091-go doesn't expose a
// synchronous "is this channel still good" check.
type Channel struct {
	*amqp.Channel
	closed atomic.Bool
}

// ChannelManager pools *Channel values backed by a single amqp091-go
// connection.
type ChannelManager struct {
	conn *amqp.Connection
}

// NewChannelManager returns a Manager that creates channels on conn. The
// caller owns conn's lifetime; closing the pool does not close conn.
func NewChannelManager(conn *amqp.Connection) *ChannelManager {
	return &ChannelManager{conn: conn}
}

func (m *ChannelManager) Create(ctx context.Context) (*Channel, error) {
	ch, err := m.conn.Channel()
	if err != nil {
		return nil, err
	}

	pooled := &Channel{Channel: ch}
	closeNotify := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closeNotify
		pooled.closed.Store(true)
	}()

	return pooled, nil
}

func (m *ChannelManager) Recycle(ctx context.Context, ch **Channel, metrics *poolx.Metrics) error {
	if (*ch).closed.Load() {
		return fmt.Errorf("amqp: channel closed by broker")
	}
	return nil
}

func (m *ChannelManager) Detach(ch **Channel) {
	_ = (*ch).Channel.Close()
}
