package models

import (
	"gorm.io/gorm"
)

// Domain represents a registered name on the domain-registry contract.
// Timestamp and ExpiresAt are chain timestamps in epoch seconds, stored as
// decimal strings to avoid precision loss. PriceEgld is denominated in the
// smallest unit (10^18 per EGLD).
type Domain struct {
	gorm.Model
	Name           string  `gorm:"uniqueIndex;not null"`
	Sender         string  `gorm:"size:62;index"`
	OwnerAddress   string  `gorm:"size:62;index"`
	Timestamp      string  `gorm:"size:20"`
	Duration       int     `gorm:"default:0"`
	ExpiresAt      string  `gorm:"size:20"`
	PriceEgld      string  `gorm:"size:40"`
	PriceUsd       string  `gorm:"size:40"`
	PrimaryAddress *string `gorm:"size:62"`
	TxHash         string  `gorm:"size:64;uniqueIndex;not null"`
	IsSubdomain    bool    `gorm:"default:false;index"`
}

// TableName overrides the gorm table name
func (Domain) TableName() string {
	return "domains"
}
