package models

import (
	"time"

	"gorm.io/datatypes"
)

// TenantAccountModel is the persistence model for the single tenant account.
// This is the anti-corruption layer between domain and database.
type TenantAccountModel struct {
	ID              uint   `gorm:"primarykey"`
	TenantID        string `gorm:"uniqueIndex;not null;size:64"`
	APIKeyCipher    []byte `gorm:"not null;comment:API key encrypted with XChaCha20-Poly1305"`
	Status          string `gorm:"not null;size:20;default:unknown"`
	Plan            string `gorm:"size:20"`
	FeaturesEnabled datatypes.JSON
	LastSyncedAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (TenantAccountModel) TableName() string {
	return "tenant_accounts"
}
