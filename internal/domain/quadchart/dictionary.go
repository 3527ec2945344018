package quadchart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"jan-server/services/quadchart-api/internal/utils/textfmt"
)

// Placeholder tokens populated from record fields.
const (
	TokenOpportunityName    = "[Opportunity Name]"
	TokenCompanyName        = "[Company Name]"
	TokenClientName         = "[Client Name]"
	TokenDate               = "[Date]"
	TokenSubmissionDate     = "[Submission Date]"
	TokenContractValue      = "[Contract Value]"
	TokenRFPDate            = "[RFP Date]"
	TokenAwardDate          = "[Award Date]"
	TokenTechnicalPOC       = "[Technical POC]"
	TokenEmail              = "[Email]"
	TokenPhone              = "[Phone]"
	TokenStatus             = "[Status]"
	TokenTechnicalApproach  = "[Technical Approach]"
	TokenManagementApproach = "[Management Approach]"
	TokenPastPerformance    = "[Past Performance]"
	TokenCostSchedule       = "[Cost/Schedule]"
	TokenMajorMilestones    = "[Major Milestones]"
	TokenCustomerMeeting    = "[Customer Meeting]"
	TokenRisks              = "[Risks]"
)

// Merge priorities. Lower values are applied first and win.
const (
	priorityRecord     = 0
	priorityAdditional = 1
)

type entry struct {
	token string
	value string
}

type source struct {
	name     string
	priority int
	entries  []entry
}

// BuildDictionary flattens a chart record into placeholder token to display string.
// Every value is a string; absent fields yield "".
func BuildDictionary(rec *QuadChart) map[string]string {
	if rec == nil {
		rec = &QuadChart{}
	}
	return merge(recordSource(rec), additionalSource(rec.AdditionalData))
}

// merge applies sources in priority order. A token is only written while it is
// missing or still empty, so the first non-empty writer wins.
func merge(sources ...source) map[string]string {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].priority < sources[j].priority
	})

	out := make(map[string]string)
	for _, src := range sources {
		for _, e := range src.entries {
			if existing, ok := out[e.token]; ok && existing != "" {
				continue
			}
			out[e.token] = e.value
		}
	}
	return out
}

func recordSource(rec *QuadChart) source {
	additional := rec.AdditionalData
	return source{
		name:     "record",
		priority: priorityRecord,
		entries: []entry{
			{TokenOpportunityName, strings.TrimSpace(rec.OpportunityName)},
			{TokenCompanyName, strings.TrimSpace(rec.CompanyName)},
			{TokenClientName, strings.TrimSpace(rec.ClientName)},
			{TokenDate, textfmt.FormatLongDate(rec.SubmissionDate)},
			{TokenSubmissionDate, textfmt.FormatLongDate(rec.SubmissionDate)},
			{TokenContractValue, strings.TrimSpace(string(rec.ContractValue))},
			{TokenRFPDate, textfmt.FormatLongDate(rec.RFPDate)},
			{TokenAwardDate, textfmt.FormatLongDate(rec.AwardDate)},
			{TokenTechnicalPOC, strings.TrimSpace(rec.TechnicalPOC)},
			{TokenEmail, strings.TrimSpace(rec.Email)},
			{TokenPhone, strings.TrimSpace(string(rec.Phone))},
			{TokenStatus, statusText(rec.Status)},
			{TokenTechnicalApproach, FormatQuadrant(rec.TechnicalData)},
			{TokenManagementApproach, FormatQuadrant(rec.ManagementData)},
			{TokenPastPerformance, FormatQuadrant(rec.PastPerformanceData)},
			{TokenCostSchedule, FormatQuadrant(rec.CostScheduleData)},
			{TokenMajorMilestones, multilineValue(additional["majorMilestones"])},
			{TokenCustomerMeeting, multilineValue(additional["customerMeeting"])},
			{TokenRisks, multilineValue(additional["risks"])},
		},
	}
}

func additionalSource(data map[string]any) source {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		label := textfmt.TitleCase(key)
		if label == "" {
			continue
		}
		value, ok := scalarValue(data[key])
		if !ok {
			continue
		}
		entries = append(entries, entry{token: textfmt.Token(label), value: value})
	}
	return source{name: "additional", priority: priorityAdditional, entries: entries}
}

// FormatQuadrant renders quadrant content followed by its labelled bullet sections.
func FormatQuadrant(q *QuadrantContent) string {
	if q.IsEmpty() {
		return ""
	}

	var sections []string
	if content := textfmt.StripHTML(q.Content); content != "" {
		sections = append(sections, content)
	}

	keyPoints := make([]string, 0, len(q.KeyPoints))
	for _, point := range q.KeyPoints {
		keyPoints = append(keyPoints, textfmt.StripHTML(point))
	}
	if list := textfmt.BulletList(keyPoints); list != "" {
		sections = append(sections, "Key Points:\n"+list)
	}

	projects := make([]string, 0, len(q.Projects))
	for _, p := range q.Projects {
		projects = append(projects, labelled(textfmt.StripHTML(p.Name), textfmt.StripHTML(p.Description)))
	}
	if list := textfmt.BulletList(projects); list != "" {
		sections = append(sections, "Relevant Projects:\n"+list)
	}

	milestones := make([]string, 0, len(q.Milestones))
	for _, m := range q.Milestones {
		milestones = append(milestones, labelled(strings.TrimSpace(m.Date), textfmt.StripHTML(m.Description)))
	}
	if list := textfmt.BulletList(milestones); list != "" {
		sections = append(sections, "Key Milestones:\n"+list)
	}

	return strings.Join(sections, "\n\n")
}

func labelled(label, text string) string {
	switch {
	case label == "":
		return text
	case text == "":
		return label
	default:
		return label + ": " + text
	}
}

func statusText(s Status) string {
	if s == "" {
		return ""
	}
	return s.DisplayName()
}

func multilineValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return textfmt.Bulletize(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := scalarValue(item); ok {
				items = append(items, s)
			}
		}
		return textfmt.BulletList(items)
	case []string:
		return textfmt.BulletList(v)
	default:
		s, _ := scalarValue(v)
		return s
	}
}

func scalarValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	case []any, []string:
		return multilineValue(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
