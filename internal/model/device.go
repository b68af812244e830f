package model

import "time"

// Device is one HiOS switch in the inventory.
type Device struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"type:varchar(128);index"`
	Host      string    `json:"host" gorm:"type:varchar(64);not null"`
	Port      int       `json:"port" gorm:"not null;default:22"`
	Username  string    `json:"username" gorm:"type:varchar(64);not null"`
	Password  string    `json:"password" gorm:"type:varchar(256);not null"`
	Status    string    `json:"status" gorm:"type:varchar(16);default:'unknown'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName fixes the table name.
func (Device) TableName() string {
	return "devices"
}

// Device status values reported by the liveness probe.
const (
	DeviceStatusUnknown = "unknown"
	DeviceStatusAlive   = "alive"
	DeviceStatusDead    = "dead"
)
