package quadchart

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const topCompanyLimit = 10

// NoTemplate is the template breakdown key for charts without a template.
const NoTemplate = "none"

// Statistics summarizes every stored chart.
type Statistics struct {
	Total         int                `json:"total"`
	ByStatus      map[Status]int     `json:"byStatus"`
	ByTemplate    map[string]int     `json:"byTemplate"`
	TopCompanies  []CompanyCount     `json:"topCompanies"`
	Approval      ApprovalMetrics    `json:"approvalMetrics"`
	ContractValue ContractValueStats `json:"contractValueStats"`
}

// CompanyCount is the number of charts filed for one company.
type CompanyCount struct {
	CompanyName string `json:"companyName"`
	Count       int    `json:"count"`
}

// ApprovalMetrics compares decided charts. ApprovalRate is a percentage with one decimal.
type ApprovalMetrics struct {
	Approved                 int     `json:"approved"`
	Rejected                 int     `json:"rejected"`
	Pending                  int     `json:"pending"`
	ApprovalRate             string  `json:"approvalRate"`
	AverageApprovalTimeHours float64 `json:"averageApprovalTimeHours"`
}

// ContractValueStats aggregates the parseable, positive contract values.
type ContractValueStats struct {
	Count   int    `json:"count"`
	Total   string `json:"total"`
	Average string `json:"average"`
	Min     string `json:"min"`
	Max     string `json:"max"`
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	charts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad charts")
	}
	return Summarize(charts), nil
}

// Summarize computes the statistics for a set of charts.
func Summarize(charts []*QuadChart) *Statistics {
	stats := &Statistics{
		Total:      len(charts),
		ByStatus:   make(map[Status]int, len(statusDisplayNames)),
		ByTemplate: make(map[string]int),
	}
	for status := range statusDisplayNames {
		stats.ByStatus[status] = 0
	}

	companies := make(map[string]int)
	var (
		values        []decimal.Decimal
		approvalHours []decimal.Decimal
	)
	for _, chart := range charts {
		stats.ByStatus[chart.Status]++

		templateID := chart.TemplateID
		if templateID == "" {
			templateID = NoTemplate
		}
		stats.ByTemplate[templateID]++

		if name := strings.TrimSpace(chart.CompanyName); name != "" {
			companies[name]++
		}
		if value, ok := ParseContractValue(string(chart.ContractValue)); ok {
			values = append(values, value)
		}

		switch chart.Status {
		case StatusApproved:
			stats.Approval.Approved++
			if chart.SubmittedAt != nil && chart.ApprovedAt != nil {
				hours := decimal.NewFromFloat(chart.ApprovedAt.Sub(*chart.SubmittedAt).Hours())
				approvalHours = append(approvalHours, hours)
			}
		case StatusRejected:
			stats.Approval.Rejected++
		case StatusSubmitted, StatusInReview:
			stats.Approval.Pending++
		}
	}

	stats.TopCompanies = topCompanies(companies)
	stats.Approval.ApprovalRate = approvalRate(stats.Approval.Approved, stats.Approval.Rejected)
	if len(approvalHours) > 0 {
		stats.Approval.AverageApprovalTimeHours = decimal.Avg(approvalHours[0], approvalHours[1:]...).Round(2).InexactFloat64()
	}
	stats.ContractValue = contractValueStats(values)
	return stats
}

func topCompanies(counts map[string]int) []CompanyCount {
	out := make([]CompanyCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, CompanyCount{CompanyName: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CompanyName < out[j].CompanyName
	})
	if len(out) > topCompanyLimit {
		out = out[:topCompanyLimit]
	}
	return out
}

func approvalRate(approved, rejected int) string {
	decided := approved + rejected
	if decided == 0 {
		return "0.0"
	}
	return decimal.NewFromInt(int64(approved)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(decided))).
		StringFixed(1)
}

func contractValueStats(values []decimal.Decimal) ContractValueStats {
	if len(values) == 0 {
		return ContractValueStats{Total: "$0", Average: "$0", Min: "$0", Max: "$0"}
	}
	total := decimal.Sum(values[0], values[1:]...)
	return ContractValueStats{
		Count:   len(values),
		Total:   FormatCurrency(total),
		Average: FormatCurrency(decimal.Avg(values[0], values[1:]...)),
		Min:     FormatCurrency(decimal.Min(values[0], values[1:]...)),
		Max:     FormatCurrency(decimal.Max(values[0], values[1:]...)),
	}
}

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// ParseContractValue reads amounts such as "$2.5M", "750K" or "1,200,000".
// Currency signs, spaces and thousands separators are ignored. Only positive
// amounts are reported.
func ParseContractValue(raw string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", "\t", "").Replace(strings.ToLower(raw))
	multiplier := decimal.NewFromInt(1)
	switch {
	case strings.Contains(cleaned, "m"):
		multiplier = million
		cleaned = strings.Replace(cleaned, "m", "", 1)
	case strings.Contains(cleaned, "k"):
		multiplier = thousand
		cleaned = strings.Replace(cleaned, "k", "", 1)
	}
	if cleaned == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil || !value.IsPositive() {
		return decimal.Zero, false
	}
	return value.Mul(multiplier), true
}

// FormatCurrency abbreviates an amount as $X.XM, $XK or $X.
func FormatCurrency(value decimal.Decimal) string {
	switch {
	case value.GreaterThanOrEqual(million):
		return "$" + value.Div(million).StringFixed(1) + "M"
	case value.GreaterThanOrEqual(thousand):
		return "$" + value.Div(thousand).StringFixed(0) + "K"
	default:
		return "$" + value.StringFixed(0)
	}
}
