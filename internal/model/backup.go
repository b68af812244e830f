package model

import "time"

// ConfigBackup records one archived configuration snapshot.
type ConfigBackup struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	DeviceID   string    `json:"device_id" gorm:"type:varchar(64);not null;index"`
	DeviceName string    `json:"device_name" gorm:"type:varchar(128)"`
	Backend    string    `json:"backend" gorm:"type:varchar(16);not null"`
	RunningRef string    `json:"running_ref" gorm:"type:text"`
	StartupRef string    `json:"startup_ref" gorm:"type:text"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName fixes the table name.
func (ConfigBackup) TableName() string {
	return "config_backups"
}
