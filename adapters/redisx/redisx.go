// Package redisx adapts github.com/redis/go-redis/v9 dedicated
// connections to the poolx.Manager contract. It is the Go-native stand-in
// for spec.md's deadpool-redis adapter.
package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cloudkite/poolx"
)

// ConnManager pools *redis.Conn values pinned off a shared *redis.Client
// via Client.Conn — the same mechanism go-redis itself recommends for
// pinning a single connection to, e.g., a WATCH/MULTI transaction.
// Recycle uses PING as its lazy health check, per spec.md's non-goal of
// never probing health outside of a checkout.
type ConnManager struct {
	client *redis.Client
}

// NewConnManager returns a Manager that pins dedicated connections off
// client. The caller owns client's lifetime.
func NewConnManager(client *redis.Client) *ConnManager {
	return &ConnManager{client: client}
}

func (m *ConnManager) Create(ctx context.Context) (*redis.Conn, error) {
	conn := m.client.Conn()
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("redisx: initial ping failed: %w", err)
	}
	return conn, nil
}

func (m *ConnManager) Recycle(ctx context.Context, conn **redis.Conn, metrics *poolx.Metrics) error {
	return (*conn).Ping(ctx).Err()
}

func (m *ConnManager) Detach(conn **redis.Conn) {
	_ = (*conn).Close()
}
