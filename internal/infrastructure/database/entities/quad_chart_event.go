package entities

import "time"

// QuadChartEvent is one row of a chart's workflow history.
type QuadChartEvent struct {
	ID            string    `gorm:"type:varchar(40);primaryKey"`
	ChartID       string    `gorm:"type:varchar(40);not null;index"`
	Action        string    `gorm:"type:varchar(32);not null"`
	Actor         string    `gorm:"type:varchar(64)"`
	Notes         string    `gorm:"type:text"`
	Quadrant      string    `gorm:"type:varchar(32)"`
	ParentID      *string   `gorm:"type:varchar(40)"`
	VersionNumber int       `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
}

func (QuadChartEvent) TableName() string {
	return "quad_chart_events"
}
