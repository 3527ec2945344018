package requests

// GenerateRequest selects the template for a chart generation. Empty means the chart's own template.
type GenerateRequest struct {
	TemplateID string `json:"templateId" form:"templateId"`
}

// BatchGenerateRequest renders several charts with one template.
type BatchGenerateRequest struct {
	ChartIDs   []string `json:"chartIds" binding:"required,min=1,max=50"`
	TemplateID string   `json:"templateId"`
}

// ListQuadChartsQuery are the list query parameters.
type ListQuadChartsQuery struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ReviewRequest carries optional reviewer notes for an approval.
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// RejectRequest explains why a submitted chart was turned down.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// CommentRequest files a reviewer comment, optionally replying to another one.
type CommentRequest struct {
	Comment         string `json:"comment"`
	Quadrant        string `json:"quadrant"`
	ParentCommentID string `json:"parentCommentId"`
}

// SampleRequest picks the template a sample chart is rendered with.
type SampleRequest struct {
	TemplateID string `json:"templateId" form:"templateId"`
}
