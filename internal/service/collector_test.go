package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/database"
	"github.com/hioscollector/hioscollector/internal/hios"
	"github.com/hioscollector/hioscollector/internal/model"
	"github.com/hioscollector/hioscollector/pkg/ssh"
)

func collectorFixture(t *testing.T, cfg *config.Config) *CollectorService {
	t.Helper()
	require.NoError(t, database.InitSQLite(config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}))
	t.Cleanup(func() { _ = database.Close() })

	device := &model.Device{
		ID:       "dev-1",
		Name:     "sw-core-1",
		Host:     "10.0.4.1",
		Port:     22,
		Username: "admin",
		Password: "x",
		Status:   model.DeviceStatusUnknown,
	}
	require.NoError(t, database.GetDB().Create(device).Error)

	svc := &CollectorService{cfg: cfg, pool: NewDriverPool(cfg)}
	t.Cleanup(svc.Stop)
	return svc
}

func TestCollectorEvictsOnTransportError(t *testing.T) {
	svc := collectorFixture(t, poolConfig())

	factories := 0
	svc.pool.newSession = func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session {
		factories++
		// No canned replies: every command fails on the wire.
		return &gateSession{}
	}

	_, err := svc.ARPTable(context.Background(), "dev-1")
	var terr *hios.TransportError
	require.ErrorAs(t, err, &terr)

	_, err = svc.ARPTable(context.Background(), "dev-1")
	require.Error(t, err)
	assert.Equal(t, 2, factories,
		"a transport failure evicts the pooled driver so the next request redials")
}

func TestCollectorEvictsOnTimeout(t *testing.T) {
	cfg := poolConfig()
	cfg.SSH.CommandTimeout = 20 * time.Millisecond
	svc := collectorFixture(t, cfg)

	factories := 0
	svc.pool.newSession = func(cfg *config.Config, info *ssh.ConnectionInfo) hios.Session {
		factories++
		return &gateSession{block: true}
	}

	_, err := svc.Interfaces(context.Background(), "dev-1")
	var terr *hios.TimeoutError
	require.ErrorAs(t, err, &terr)

	_, err = svc.Interfaces(context.Background(), "dev-1")
	require.Error(t, err)
	assert.Equal(t, 2, factories, "a wedged session is not reused")
}
