package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/database"
	"github.com/hioscollector/hioscollector/internal/model"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

// BackupService archives device configuration snapshots.
type BackupService struct {
	cfg       *config.Config
	collector *CollectorService
	writer    StorageWriter
}

// NewBackupService wires the backup path onto the collector.
func NewBackupService(cfg *config.Config, collector *CollectorService) *BackupService {
	return &BackupService{
		cfg:       cfg,
		collector: collector,
		writer:    NewStorageWriter(cfg),
	}
}

// BackupDevice fetches the device configuration and writes the running and
// startup blobs to the configured backend, recording a ConfigBackup row.
// Blobs are stored byte-for-byte as retrieved so snapshots stay diffable.
func (s *BackupService) BackupDevice(ctx context.Context, deviceID string) (*model.ConfigBackup, error) {
	var device model.Device
	if err := database.GetDB().First(&device, "id = ?", deviceID).Error; err != nil {
		return nil, fmt.Errorf("device %s not found: %w", deviceID, err)
	}

	snapshot, err := s.collector.Config(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect config: %w", err)
	}

	taken := time.Now()
	meta := StorageMeta{
		DeviceName: device.Name,
		DeviceHost: device.Host,
		Taken:      taken,
		Backend:    s.cfg.Backup.StorageBackend,
	}

	meta.Kind = "running"
	runningObj, err := s.writer.Write(ctx, meta, snapshot.Running, "text/plain; charset=utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to store running config: %w", err)
	}

	meta.Kind = "startup"
	startupObj, err := s.writer.Write(ctx, meta, snapshot.Startup, "text/plain; charset=utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to store startup config: %w", err)
	}

	record := &model.ConfigBackup{
		ID:         uuid.NewString(),
		DeviceID:   device.ID,
		DeviceName: device.Name,
		Backend:    runningObj.Backend,
		RunningRef: runningObj.Ref,
		StartupRef: startupObj.Ref,
		SizeBytes:  runningObj.Size + startupObj.Size,
	}
	if err := database.GetDB().Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to record backup: %w", err)
	}

	logger.WithField("device", device.ID).Infof("config backup stored at %s", runningObj.Ref)
	return record, nil
}

// ListBackups returns backup records for one device, newest first.
func (s *BackupService) ListBackups(deviceID string, limit int) ([]model.ConfigBackup, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []model.ConfigBackup
	err := database.GetDB().
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
