package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/database"
	"github.com/hioscollector/hioscollector/internal/hios"
	"github.com/hioscollector/hioscollector/internal/model"
	"github.com/hioscollector/hioscollector/pkg/logger"
	"github.com/hioscollector/hioscollector/pkg/ssh"
	"golang.org/x/sync/errgroup"
)

// CollectorService runs driver getters against inventory devices.
type CollectorService struct {
	cfg  *config.Config
	pool *DriverPool
}

// NewCollectorService wires the service to its driver pool.
func NewCollectorService(cfg *config.Config) *CollectorService {
	return &CollectorService{
		cfg:  cfg,
		pool: NewDriverPool(cfg),
	}
}

// Stop shuts the driver pool down.
func (s *CollectorService) Stop() {
	s.pool.Shutdown()
}

func (s *CollectorService) device(id string) (*model.Device, error) {
	var device model.Device
	if err := database.GetDB().First(&device, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("device %s not found: %w", id, err)
	}
	return &device, nil
}

func connInfo(device *model.Device) *ssh.ConnectionInfo {
	return &ssh.ConnectionInfo{
		Host:     device.Host,
		Port:     device.Port,
		Username: device.Username,
		Password: device.Password,
	}
}

// withDriver resolves the device, borrows its pooled driver and runs fn.
// Transport failures and timeouts leave a driver that cannot recover on its
// own, so the entry is evicted and the next request redials.
func (s *CollectorService) withDriver(ctx context.Context, deviceID string, fn func(*hios.Driver) error) error {
	device, err := s.device(deviceID)
	if err != nil {
		return err
	}
	info := connInfo(device)
	driver, release, err := s.pool.Get(ctx, info)
	if err != nil {
		return err
	}
	err = fn(driver)
	release()

	var transportErr *hios.TransportError
	var timeoutErr *hios.TimeoutError
	if errors.As(err, &transportErr) || errors.As(err, &timeoutErr) {
		logger.WithField("device", deviceID).Warnf("evicting wedged session: %v", err)
		s.pool.Evict(info)
	}
	return err
}

// Facts collects the device identity snapshot.
func (s *CollectorService) Facts(ctx context.Context, deviceID string) (*hios.DeviceFacts, error) {
	var facts *hios.DeviceFacts
	err := s.withDriver(ctx, deviceID, func(d *hios.Driver) error {
		var err error
		facts, err = d.GetFacts(ctx)
		return err
	})
	return facts, err
}

// Interfaces collects the port table.
func (s *CollectorService) Interfaces(ctx context.Context, deviceID string) (map[string]hios.Interface, error) {
	var out map[string]hios.Interface
	err := s.withDriver(ctx, deviceID, func(d *hios.Driver) error {
		var err error
		out, err = d.GetInterfaces(ctx)
		return err
	})
	return out, err
}

// InterfacesIP collects IP bindings grouped by interface.
func (s *CollectorService) InterfacesIP(ctx context.Context, deviceID string) (map[string][]hios.InterfaceIPBinding, error) {
	var out map[string][]hios.InterfaceIPBinding
	err := s.withDriver(ctx, deviceID, func(d *hios.Driver) error {
		var err error
		out, err = d.GetInterfacesIP(ctx)
		return err
	})
	return out, err
}

// ARPTable collects the ARP snapshot.
func (s *CollectorService) ARPTable(ctx context.Context, deviceID string) (map[string]hios.ARPEntry, error) {
	var out map[string]hios.ARPEntry
	err := s.withDriver(ctx, deviceID, func(d *hios.Driver) error {
		var err error
		out, err = d.GetARPTable(ctx)
		return err
	})
	return out, err
}

// Config collects the configuration snapshot.
func (s *CollectorService) Config(ctx context.Context, deviceID string) (*hios.ConfigSnapshot, error) {
	var out *hios.ConfigSnapshot
	err := s.withDriver(ctx, deviceID, func(d *hios.Driver) error {
		var err error
		out, err = d.GetConfig(ctx)
		return err
	})
	return out, err
}

// Alive probes the device and records the result on the inventory row.
func (s *CollectorService) Alive(ctx context.Context, deviceID string) (hios.LivenessResult, error) {
	var result hios.LivenessResult
	err := s.withDriver(ctx, deviceID, func(d *hios.Driver) error {
		result = d.IsAlive(ctx)
		return nil
	})
	if err != nil {
		// An unreachable device is a negative probe, not a failure.
		logger.WithField("device", deviceID).Debugf("liveness probe could not open session: %v", err)
		result = hios.LivenessResult{Alive: false}
		err = nil
	}

	status := model.DeviceStatusDead
	if result.Alive {
		status = model.DeviceStatusAlive
	}
	if dbErr := database.GetDB().Model(&model.Device{}).
		Where("id = ?", deviceID).
		Update("status", status).Error; dbErr != nil {
		logger.Warnf("failed to record device status: %v", dbErr)
	}
	return result, nil
}

// FactsResult pairs one device with its collection outcome.
type FactsResult struct {
	DeviceID string            `json:"device_id"`
	Facts    *hios.DeviceFacts `json:"facts,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// CollectAllFacts fans GetFacts out over the whole inventory, one driver
// per device. Per-device failures are reported inline, never aborting the
// sweep.
func (s *CollectorService) CollectAllFacts(ctx context.Context) ([]FactsResult, error) {
	var devices []model.Device
	if err := database.GetDB().Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	results := make([]FactsResult, len(devices))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Collector.MaxSessions)
	for i, device := range devices {
		g.Go(func() error {
			facts, err := s.Facts(gctx, device.ID)
			res := FactsResult{DeviceID: device.ID, Facts: facts}
			if err != nil {
				res.Error = err.Error()
				res.Facts = nil
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
