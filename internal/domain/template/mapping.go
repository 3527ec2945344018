package template

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"jan-server/services/quadchart-api/internal/utils/textfmt"
)

// commonFields seeds mappings for well-known placeholder names, keyed by NormalizeToken.
var commonFields = map[string]FieldMapping{
	"CLIENT_NAME":         {Field: "client", Type: FieldTypeText},
	"CLIENT":              {Field: "client", Type: FieldTypeText},
	"TECHNICAL_APPROACH":  {Field: "technical_approach", Type: FieldTypeMultiline},
	"TECHNICAL":           {Field: "technical_approach", Type: FieldTypeMultiline},
	"MANAGEMENT_APPROACH": {Field: "management_approach", Type: FieldTypeMultiline},
	"MANAGEMENT":          {Field: "management_approach", Type: FieldTypeMultiline},
	"PAST_PERFORMANCE":    {Field: "past_performance", Type: FieldTypeMultiline},
	"PERFORMANCE":         {Field: "past_performance", Type: FieldTypeMultiline},
	"COST_SCHEDULE":       {Field: "cost_schedule", Type: FieldTypeMultiline},
	"COST":                {Field: "cost_schedule", Type: FieldTypeMultiline},
	"TITLE":               {Field: "title", Type: FieldTypeText},
	"DATE":                {Field: "date", Type: FieldTypeDate},
	"OPPORTUNITY":         {Field: "opportunity_name", Type: FieldTypeText},
	"CONTRACT_VALUE":      {Field: "contract_value", Type: FieldTypeNumber},
}

// NormalizeToken turns "[Cost/Schedule]" into "COST_SCHEDULE".
func NormalizeToken(token string) string {
	label := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(token), "["), "]")

	var b strings.Builder
	pendingSep := false
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// DefaultMapping returns the seed mapping of one placeholder token.
func DefaultMapping(token string) FieldMapping {
	key := NormalizeToken(token)
	if m, ok := commonFields[key]; ok {
		return m
	}
	return FieldMapping{Field: strings.ToLower(key), Type: FieldTypeText}
}

// DefaultMappings seeds a mapping for every placeholder.
func DefaultMappings(placeholders []string) map[string]FieldMapping {
	out := make(map[string]FieldMapping, len(placeholders))
	for _, token := range placeholders {
		out[token] = DefaultMapping(token)
	}
	return out
}

// ApplyMappings resolves mapped record fields into substitution values. Tokens whose
// field is missing or empty are omitted rather than emitted as "".
func ApplyMappings(mappings map[string]FieldMapping, record map[string]any) map[string]string {
	out := make(map[string]string, len(mappings))
	for token, mapping := range mappings {
		value, ok := record[mapping.Field]
		if !ok {
			continue
		}
		if s, ok := stringify(value, mapping.Type); ok {
			out[token] = s
		}
	}
	return out
}

func stringify(value any, fieldType FieldType) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return "", false
		}
		if fieldType == FieldTypeDate {
			if formatted := textfmt.FormatLongDate(v); formatted != "" {
				return formatted, true
			}
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		if fieldType == FieldTypeDate {
			return v.Format(textfmt.LongDateLayout), true
		}
		return v.Format(time.RFC3339), true
	case []string:
		return stringifyList(v, fieldType)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := stringify(item, FieldTypeText); ok {
				items = append(items, s)
			}
		}
		return stringifyList(items, fieldType)
	default:
		return stringifyOther(value)
	}
}

// stringifyOther handles named scalar types by kind and falls back to JSON for
// composite values such as nested objects.
func stringifyOther(value any) (string, bool) {
	switch reflect.ValueOf(value).Kind() {
	case reflect.String:
		s := strings.TrimSpace(fmt.Sprint(value))
		return s, s != ""
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(value), true
	}
	raw, err := json.Marshal(value)
	if err != nil || string(raw) == "{}" || string(raw) == "null" {
		return "", false
	}
	return string(raw), true
}

func stringifyList(items []string, fieldType FieldType) (string, bool) {
	if fieldType == FieldTypeMultiline {
		s := textfmt.BulletList(items)
		return s, s != ""
	}
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, ", "), true
}

func copyMappings(in map[string]FieldMapping) map[string]FieldMapping {
	if in == nil {
		return nil
	}
	out := make(map[string]FieldMapping, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
