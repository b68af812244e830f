package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/hios"
	"github.com/hioscollector/hioscollector/pkg/logger"
	"github.com/hioscollector/hioscollector/pkg/ssh"
)

// sessionFactory builds the transport for one endpoint. Tests swap it out.
type sessionFactory func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session

// DriverPool caches one open driver per device endpoint. Drivers serialize
// their own commands, so concurrent requests for the same device share a
// driver and queue on it; idle drivers are closed in the background.
type DriverPool struct {
	cfg         *config.Config
	newSession  sessionFactory
	mutex       sync.Mutex
	drivers     map[string]*pooledDriver
	maxActive   int
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// pooledDriver publishes before its Open completes so concurrent borrowers
// can queue on it: ready closes once Open finished, openErr carries the
// outcome.
type pooledDriver struct {
	driver   *hios.Driver
	lastUsed time.Time
	refs     int
	ready    chan struct{}
	openErr  error
}

// NewDriverPool builds the pool and starts its cleanup loop.
func NewDriverPool(cfg *config.Config) *DriverPool {
	p := &DriverPool{
		cfg: cfg,
		newSession: func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session {
			return NewSessionAdapter(cfg, info)
		},
		drivers:     make(map[string]*pooledDriver),
		maxActive:   cfg.Collector.MaxSessions,
		idleTimeout: cfg.Collector.IdleTimeout,
		stop:        make(chan struct{}),
	}
	go p.cleanup()
	return p
}

func endpointKey(info *ssh.ConnectionInfo) string {
	return fmt.Sprintf("%s:%d:%s", info.Host, info.Port, info.Username)
}

// Get returns an open driver for the endpoint plus a release func the
// caller must invoke when done with it. Borrowers of an entry whose Open is
// still in flight wait for it and share its outcome; a driver is never
// handed out half-open.
func (p *DriverPool) Get(ctx context.Context, info *ssh.ConnectionInfo) (*hios.Driver, func(), error) {
	key := endpointKey(info)

	p.mutex.Lock()
	if pd, ok := p.drivers[key]; ok {
		pd.refs++
		pd.lastUsed = time.Now()
		p.mutex.Unlock()
		select {
		case <-pd.ready:
		case <-ctx.Done():
			p.releaseFunc(key)()
			return nil, nil, ctx.Err()
		}
		if pd.openErr != nil {
			p.releaseFunc(key)()
			return nil, nil, pd.openErr
		}
		return pd.driver, p.releaseFunc(key), nil
	}
	if len(p.drivers) >= p.maxActive {
		p.mutex.Unlock()
		return nil, nil, fmt.Errorf("driver pool is full, active sessions: %d", p.maxActive)
	}

	session := p.newSession(p.cfg, info)
	driver := hios.New(session, hios.Options{
		CommandTimeout: p.cfg.SSH.CommandTimeout,
	})
	pd := &pooledDriver{driver: driver, lastUsed: time.Now(), refs: 1, ready: make(chan struct{})}
	p.drivers[key] = pd
	p.mutex.Unlock()

	err := driver.Open(ctx)
	p.mutex.Lock()
	if err != nil {
		pd.openErr = err
		delete(p.drivers, key)
	}
	p.mutex.Unlock()
	close(pd.ready)
	if err != nil {
		return nil, nil, err
	}
	return driver, p.releaseFunc(key), nil
}

func (p *DriverPool) releaseFunc(key string) func() {
	return func() {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		if pd, ok := p.drivers[key]; ok {
			pd.refs--
			pd.lastUsed = time.Now()
		}
	}
}

// Evict drops a device's driver, closing it. Called after transport errors
// and timeouts so the next request reopens a fresh session.
func (p *DriverPool) Evict(info *ssh.ConnectionInfo) {
	key := endpointKey(info)
	p.mutex.Lock()
	pd, ok := p.drivers[key]
	if ok {
		delete(p.drivers, key)
	}
	p.mutex.Unlock()
	if ok {
		if err := pd.driver.Close(); err != nil {
			logger.Warnf("closing evicted driver %s: %v", key, err)
		}
	}
}

func (p *DriverPool) cleanup() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.closeIdle()
		}
	}
}

func (p *DriverPool) closeIdle() {
	var victims []*pooledDriver
	p.mutex.Lock()
	for key, pd := range p.drivers {
		if pd.refs == 0 && time.Since(pd.lastUsed) > p.idleTimeout {
			delete(p.drivers, key)
			victims = append(victims, pd)
		}
	}
	p.mutex.Unlock()
	for _, pd := range victims {
		_ = pd.driver.Close()
	}
}

// Shutdown closes every pooled driver.
func (p *DriverPool) Shutdown() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mutex.Lock()
	drivers := p.drivers
	p.drivers = make(map[string]*pooledDriver)
	p.mutex.Unlock()
	for _, pd := range drivers {
		_ = pd.driver.Close()
	}
}
