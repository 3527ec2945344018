package quadchart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status is the review state of a quad chart.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusInReview  Status = "in_review"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

var statusDisplayNames = map[Status]string{
	StatusDraft:     "Draft",
	StatusInReview:  "In Review",
	StatusSubmitted: "Submitted",
	StatusApproved:  "Approved",
	StatusRejected:  "Rejected",
	StatusArchived:  "Archived",
}

// DisplayName renders the status for documents. Unknown values pass through.
func (s Status) DisplayName() string {
	if name, ok := statusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusDisplayNames[s]
	return ok
}

// Editable reports whether a chart in this status may still be changed.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusInReview
}

// Project is a past performance reference.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Milestone is a dated schedule entry.
type Milestone struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// QuadrantContent is one of the four rich-text quadrants of a chart.
type QuadrantContent struct {
	Content    string      `json:"content" validate:"max=2000"`
	KeyPoints  []string    `json:"keyPoints,omitempty"`
	Projects   []Project   `json:"projects,omitempty"`
	Milestones []Milestone `json:"milestones,omitempty"`
}

// UnmarshalJSON accepts either a bare (HTML) string or the structured object form.
func (q *QuadrantContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = QuadrantContent{}
		return nil
	}
	if data[0] == '"' {
		var content string
		if err := json.Unmarshal(data, &content); err != nil {
			return err
		}
		*q = QuadrantContent{Content: content}
		return nil
	}

	type plain QuadrantContent
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*q = QuadrantContent(decoded)
	return nil
}

// IsEmpty reports whether the quadrant carries no content at all.
func (q *QuadrantContent) IsEmpty() bool {
	return q == nil || (q.Content == "" && len(q.KeyPoints) == 0 && len(q.Projects) == 0 && len(q.Milestones) == 0)
}

// FlexString decodes JSON strings, numbers and null into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		if v, err := strconv.ParseFloat(n.String(), 64); err == nil {
			*f = FlexString(strconv.FormatFloat(v, 'f', -1, 64))
			return nil
		}
		*f = FlexString(n.String())
	}
	return nil
}

// QuadChart is a chart submission record.
type QuadChart struct {
	ID                  string           `json:"id"`
	OpportunityName     string           `json:"opportunityName"`
	CompanyName         string           `json:"companyName"`
	ClientName          string           `json:"clientName"`
	SubmissionDate      string           `json:"submissionDate"`
	ContractValue       FlexString       `json:"contractValue"`
	RFPDate             string           `json:"rfpDate"`
	AwardDate           string           `json:"awardDate"`
	TechnicalPOC        string           `json:"technicalPoc"`
	Email               string           `json:"email" validate:"omitempty,email"`
	Phone               FlexString       `json:"phone"`
	Status              Status           `json:"status"`
	TechnicalData       *QuadrantContent `json:"technicalData,omitempty" validate:"omitempty"`
	ManagementData      *QuadrantContent `json:"managementData,omitempty" validate:"omitempty"`
	PastPerformanceData *QuadrantContent `json:"pastPerformanceData,omitempty" validate:"omitempty"`
	CostScheduleData    *QuadrantContent `json:"costScheduleData,omitempty" validate:"omitempty"`
	AdditionalData      map[string]any   `json:"additionalData,omitempty"`
	TemplateID          string           `json:"templateId,omitempty"`
	VersionNumber       int              `json:"versionNumber"`
	CreatedBy           string           `json:"createdBy,omitempty"`
	SubmittedAt         *time.Time       `json:"submittedAt,omitempty"`
	ApprovedBy          string           `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time       `json:"approvedAt,omitempty"`
	RejectionReason     string           `json:"rejectionReason,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// Copy returns a deep copy of the record.
func (c *QuadChart) Copy() *QuadChart {
	out := *c
	out.TechnicalData = copyQuadrant(c.TechnicalData)
	out.ManagementData = copyQuadrant(c.ManagementData)
	out.PastPerformanceData = copyQuadrant(c.PastPerformanceData)
	out.CostScheduleData = copyQuadrant(c.CostScheduleData)
	out.SubmittedAt = copyTime(c.SubmittedAt)
	out.ApprovedAt = copyTime(c.ApprovedAt)
	if c.AdditionalData != nil {
		out.AdditionalData = make(map[string]any, len(c.AdditionalData))
		for k, v := range c.AdditionalData {
			out.AdditionalData[k] = v
		}
	}
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyQuadrant(q *QuadrantContent) *QuadrantContent {
	if q == nil {
		return nil
	}
	out := *q
	out.KeyPoints = append([]string(nil), q.KeyPoints...)
	out.Projects = append([]Project(nil), q.Projects...)
	out.Milestones = append([]Milestone(nil), q.Milestones...)
	return &out
}

// Filter narrows List results.
type Filter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

// EventAction names a step in a chart's history.
type EventAction string

const (
	ActionCreated   EventAction = "created"
	ActionUpdated   EventAction = "updated"
	ActionSubmitted EventAction = "submitted"
	ActionApproved  EventAction = "approved"
	ActionRejected  EventAction = "rejected"
	ActionCommented EventAction = "commented"
)

// GeneralQuadrant is the quadrant a comment is filed under when none is named.
const GeneralQuadrant = "general"

// Event is one entry of a chart's workflow history.
type Event struct {
	ID            string      `json:"id"`
	ChartID       string      `json:"quadChartId"`
	Action        EventAction `json:"action"`
	Actor         string      `json:"actor,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Quadrant      string      `json:"quadrant,omitempty"`
	ParentID      *string     `json:"parentId,omitempty"`
	VersionNumber int         `json:"versionNumber"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// CommentInput is a reviewer note on a chart.
type CommentInput struct {
	Comment  string
	Quadrant string
	ParentID string
}
