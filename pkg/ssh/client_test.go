package ssh

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectHandshakeIsBounded(t *testing.T) {
	// A listener that accepts TCP and then goes silent, never speaking the
	// SSH protocol.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	hold := make(chan struct{})
	defer close(hold)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-hold
		conn.Close()
	}()

	client := NewClient(&Config{ConnectTimeout: 200 * time.Millisecond})
	info := &ConnectionInfo{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		Username: "admin",
		Password: "x",
	}

	start := time.Now()
	err = client.Connect(context.Background(), info)
	require.Error(t, err, "a stalled handshake must fail, not hang")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, client.IsConnected())
}

func TestConnectHonorsContextDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	hold := make(chan struct{})
	defer close(hold)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-hold
		conn.Close()
	}()

	// No ConnectTimeout configured: the caller's deadline must still bound
	// the handshake.
	client := NewClient(&Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = client.Connect(ctx, &ConnectionInfo{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		Username: "admin",
		Password: "x",
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCloseStopsKeepalive(t *testing.T) {
	client := NewClient(&Config{KeepAlive: time.Second})
	stopped := false
	client.connCancel = func() { stopped = true }

	require.NoError(t, client.Close())
	assert.True(t, stopped, "Close must cancel the connection-lifetime context")
	assert.Nil(t, client.connCancel)

	require.NoError(t, client.Close(), "Close stays idempotent")
}
