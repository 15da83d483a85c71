package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// TextRecord is a single key/value entry attached to a domain profile
type TextRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TextRecords is the ordered set of text records for a profile, stored as a
// single JSON column and replaced wholesale on every update
type TextRecords []TextRecord

// Value implements driver.Valuer for JSON column storage
func (t TextRecords) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSON column storage
func (t *TextRecords) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported type for text records: %T", value)
	}
}

// DomainProfile holds the optional metadata attached to a domain by name.
// There is no enforced foreign key to Domain: profile rows are created lazily
// on the first profile-section update and survive subdomain removal.
type DomainProfile struct {
	gorm.Model
	Name        string      `gorm:"uniqueIndex;not null"`
	Username    string      `gorm:"size:255"`
	Avatar      string      `gorm:"size:255"`
	Location    string      `gorm:"size:255"`
	Website     string      `gorm:"size:255"`
	Shortbio    string      `gorm:"type:text"`
	Telegram    string      `gorm:"size:255"`
	Discord     string      `gorm:"size:255"`
	Twitter     string      `gorm:"size:255"`
	Medium      string      `gorm:"size:255"`
	Facebook    string      `gorm:"size:255"`
	OtherLink   string      `gorm:"size:255"`
	WalletEgld  string      `gorm:"size:62"`
	WalletBtc   string      `gorm:"size:64"`
	WalletEth   string      `gorm:"size:64"`
	TextRecords TextRecords `gorm:"type:jsonb"`
	TxHash      string      `gorm:"size:64"`
}

// TableName overrides the gorm table name
func (DomainProfile) TableName() string {
	return "profiles"
}
