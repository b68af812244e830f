package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/hios"
	"github.com/hioscollector/hioscollector/pkg/ssh"
)

// gateSession is a scripted transport: Open blocks until gate closes (when
// set), block makes every Send hang until the context expires, and commands
// without a canned reply fail like a broken wire.
type gateSession struct {
	gate    chan struct{}
	openErr error
	block   bool
	replies map[string]string
}

func (s *gateSession) Open(ctx context.Context) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.openErr
}

func (s *gateSession) Send(ctx context.Context, command string) (string, error) {
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if out, ok := s.replies[command]; ok {
		return out, nil
	}
	return "", errors.New("wire reset")
}

func (s *gateSession) Close() error { return nil }

func poolConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Collector.MaxSessions = 4
	cfg.Collector.IdleTimeout = time.Minute
	cfg.SSH.CommandTimeout = time.Second
	return cfg
}

func TestPoolGetWaitsForOpen(t *testing.T) {
	gate := make(chan struct{})
	session := &gateSession{gate: gate, replies: map[string]string{
		"show clock": "12:00:00 UTC Aug 23 2026\n",
	}}

	pool := NewDriverPool(poolConfig())
	defer pool.Shutdown()
	factories := 0
	pool.newSession = func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session {
		factories++
		return session
	}

	info := &ssh.ConnectionInfo{Host: "10.0.4.1", Port: 22, Username: "admin"}

	var wg sync.WaitGroup
	drivers := make([]*hios.Driver, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, release, err := pool.Get(context.Background(), info)
			if err == nil {
				defer release()
			}
			drivers[i] = d
			errs[i] = err
		}(i)
	}

	// Both borrowers are now queued on the same in-flight Open.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Same(t, drivers[0], drivers[1], "concurrent borrowers share one driver")
	assert.Equal(t, 1, factories, "the endpoint is dialed once")
	assert.True(t, drivers[0].IsAlive(context.Background()).Alive,
		"a driver handed out by Get is fully open")
}

func TestPoolGetPropagatesOpenFailure(t *testing.T) {
	gate := make(chan struct{})
	pool := NewDriverPool(poolConfig())
	defer pool.Shutdown()
	pool.newSession = func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session {
		return &gateSession{gate: gate, openErr: errors.New("auth failed")}
	}

	info := &ssh.ConnectionInfo{Host: "10.0.4.2", Port: 22, Username: "admin"}

	creatorErr := make(chan error, 1)
	go func() {
		_, _, err := pool.Get(context.Background(), info)
		creatorErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	waiterErr := make(chan error, 1)
	go func() {
		_, _, err := pool.Get(context.Background(), info)
		waiterErr <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(gate)

	require.Error(t, <-creatorErr)
	err := <-waiterErr
	require.Error(t, err, "a borrower never sees a half-open driver")
	var cerr *hios.ConnectError
	assert.True(t, errors.As(err, &cerr))
}

func TestPoolEvictForcesFreshSession(t *testing.T) {
	pool := NewDriverPool(poolConfig())
	defer pool.Shutdown()
	factories := 0
	pool.newSession = func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session {
		factories++
		return &gateSession{}
	}

	info := &ssh.ConnectionInfo{Host: "10.0.4.3", Port: 22, Username: "admin"}

	_, release, err := pool.Get(context.Background(), info)
	require.NoError(t, err)
	release()

	pool.Evict(info)

	_, release, err = pool.Get(context.Background(), info)
	require.NoError(t, err)
	release()
	assert.Equal(t, 2, factories, "an evicted endpoint is dialed fresh")
}
