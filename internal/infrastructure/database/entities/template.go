package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Template is the persisted template metadata row.
type Template struct {
	ID           string         `gorm:"type:varchar(40);primaryKey"`
	Name         string         `gorm:"type:varchar(255);not null"`
	Description  string         `gorm:"type:text"`
	FileName     string         `gorm:"type:varchar(255);not null"`
	Client       string         `gorm:"type:varchar(255);index"`
	Category     string         `gorm:"type:varchar(128);index"`
	Placeholders datatypes.JSON `gorm:"type:jsonb"`
	Mappings     datatypes.JSON `gorm:"type:jsonb"`
	SlideCount   int            `gorm:"not null;default:0"`
	Version      int            `gorm:"not null;default:1"`
	ParentID     *string        `gorm:"type:varchar(40);index"`
	Active       bool           `gorm:"not null;default:true;index"`
	CreatedBy    string         `gorm:"type:varchar(64)"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (Template) TableName() string {
	return "templates"
}
