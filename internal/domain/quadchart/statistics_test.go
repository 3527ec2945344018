package quadchart_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "jan-server/services/quadchart-api/internal/domain/quadchart"
)

func TestParseContractValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "$2.5M", want: "2500000", ok: true},
		{raw: "750k", want: "750000", ok: true},
		{raw: "$ 1,200,000", want: "1200000", ok: true},
		{raw: "12.5", want: "12.5", ok: true},
		{raw: "", ok: false},
		{raw: "TBD", ok: false},
		{raw: "$0", ok: false},
		{raw: "-5K", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := domain.ParseContractValue(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
			}
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$2.5M", domain.FormatCurrency(decimal.NewFromInt(2_500_000)))
	assert.Equal(t, "$1.0M", domain.FormatCurrency(decimal.NewFromInt(1_000_000)))
	assert.Equal(t, "$750K", domain.FormatCurrency(decimal.NewFromInt(750_000)))
	assert.Equal(t, "$999", domain.FormatCurrency(decimal.NewFromInt(999)))
}

func TestSummarize(t *testing.T) {
	submitted := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	approved := submitted.Add(30 * time.Hour)
	charts := []*domain.QuadChart{
		{ID: "qc_1", CompanyName: "Acme", Status: domain.StatusApproved, TemplateID: "tpl_a", ContractValue: "$2M",
			SubmittedAt: &submitted, ApprovedAt: &approved},
		{ID: "qc_2", CompanyName: "Acme", Status: domain.StatusRejected, TemplateID: "tpl_a", ContractValue: "500K"},
		{ID: "qc_3", CompanyName: "Beta", Status: domain.StatusSubmitted, ContractValue: "TBD"},
		{ID: "qc_4", CompanyName: "Beta", Status: domain.StatusInReview},
		{ID: "qc_5", CompanyName: "Gamma", Status: domain.StatusDraft, ContractValue: "1,500,000"},
	}

	stats := domain.Summarize(charts)
	assert.Equal(t, 5, stats.Total)
	assert.Len(t, stats.ByStatus, 6)
	assert.Equal(t, 0, stats.ByStatus[domain.StatusArchived])
	assert.Equal(t, 1, stats.ByStatus[domain.StatusDraft])
	assert.Equal(t, map[string]int{"tpl_a": 2, domain.NoTemplate: 3}, stats.ByTemplate)
	assert.Equal(t, []domain.CompanyCount{
		{CompanyName: "Acme", Count: 2},
		{CompanyName: "Beta", Count: 2},
		{CompanyName: "Gamma", Count: 1},
	}, stats.TopCompanies)

	assert.Equal(t, domain.ApprovalMetrics{
		Approved:                 1,
		Rejected:                 1,
		Pending:                  2,
		ApprovalRate:             "50.0",
		AverageApprovalTimeHours: 30,
	}, stats.Approval)

	assert.Equal(t, domain.ContractValueStats{
		Count:   3,
		Total:   "$4.0M",
		Average: "$1.3M",
		Min:     "$500K",
		Max:     "$2.0M",
	}, stats.ContractValue)
}

func TestSummarize_EmptyAndTopTen(t *testing.T) {
	empty := domain.Summarize(nil)
	assert.Equal(t, "0.0", empty.Approval.ApprovalRate)
	assert.Equal(t, 0, empty.ContractValue.Count)
	assert.Equal(t, "$0", empty.ContractValue.Total)
	assert.Empty(t, empty.TopCompanies)

	var charts []*domain.QuadChart
	for i := 0; i < 12; i++ {
		charts = append(charts, &domain.QuadChart{ID: fmt.Sprintf("qc_%02d", i), CompanyName: fmt.Sprintf("Company %02d", i), Status: domain.StatusDraft})
	}
	assert.Len(t, domain.Summarize(charts).TopCompanies, 10)
}

func TestStatistics_ReadsRepository(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	_, err := svc.Create(ctx, &domain.QuadChart{OpportunityName: "Radar", CompanyName: "Acme", ContractValue: "$1.2M"})
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, "$1.2M", stats.ContractValue.Total)
}
