package entities

import (
	"time"

	"gorm.io/datatypes"
)

// QuadChart is the persisted chart record row. Quadrants are stored as JSON documents.
type QuadChart struct {
	ID                  string         `gorm:"type:varchar(40);primaryKey"`
	OpportunityName     string         `gorm:"type:varchar(255);not null;index"`
	CompanyName         string         `gorm:"type:varchar(255)"`
	ClientName          string         `gorm:"type:varchar(255)"`
	SubmissionDate      string         `gorm:"type:varchar(64)"`
	ContractValue       string         `gorm:"type:varchar(64)"`
	RFPDate             string         `gorm:"type:varchar(64)"`
	AwardDate           string         `gorm:"type:varchar(64)"`
	TechnicalPOC        string         `gorm:"type:varchar(255)"`
	Email               string         `gorm:"type:varchar(255)"`
	Phone               string         `gorm:"type:varchar(64)"`
	Status              string         `gorm:"type:varchar(32);not null;index"`
	TechnicalData       datatypes.JSON `gorm:"type:jsonb"`
	ManagementData      datatypes.JSON `gorm:"type:jsonb"`
	PastPerformanceData datatypes.JSON `gorm:"type:jsonb"`
	CostScheduleData    datatypes.JSON `gorm:"type:jsonb"`
	AdditionalData      datatypes.JSON `gorm:"type:jsonb"`
	TemplateID          string         `gorm:"type:varchar(40);index"`
	VersionNumber       int            `gorm:"not null;default:1"`
	CreatedBy           string         `gorm:"type:varchar(64)"`
	SubmittedAt         *time.Time
	ApprovedBy          string `gorm:"type:varchar(64)"`
	ApprovedAt          *time.Time
	RejectionReason     string    `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (QuadChart) TableName() string {
	return "quad_charts"
}
