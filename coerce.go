package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ValidationError reports a submitted value that cannot be stored in its column.
type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Column, e.Reason)
}

// coerceForm converts raw form text into typed column values. With partial set,
// columns missing from the form are left out; otherwise every writable column
// is produced. id, timestamps and undeclared keys are never taken from the form.
func coerceForm(t *Table, form url.Values, partial bool) (Fields, error) {
	fields := make(Fields)
	for _, c := range t.WritableColumns() {
		raw, present := form[c.Name]
		if !present && partial {
			continue
		}
		text := ""
		if len(raw) > 0 {
			text = strings.TrimSpace(raw[0])
		}
		v, err := coerceValue(c, text)
		if err != nil {
			return nil, err
		}
		fields[c.Name] = v
	}
	return fields, nil
}

func coerceValue(c Column, text string) (interface{}, error) {
	switch c.Type {
	case TypeInteger:
		if text == "" {
			if c.NotNull {
				return 0, nil
			}
			return nil, nil
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, &ValidationError{Column: c.Name, Reason: "must be a whole number"}
		}
		return n, nil
	case TypeStringList:
		return toJSON(splitList(text))
	case TypeItemList:
		return toJSON(parseItems(text))
	default:
		if c.Required && text == "" {
			return nil, &ValidationError{Column: c.Name, Reason: "is required"}
		}
		return text, nil
	}
}

// splitList splits on commas, trims each segment and drops empty ones.
func splitList(text string) []string {
	out := []string{}
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseItems reads "name" or "name:icon" segments.
func parseItems(text string) []SkillItem {
	segments := splitList(text)
	items := make([]SkillItem, 0, len(segments))
	for _, seg := range segments {
		name, icon, _ := strings.Cut(seg, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		items = append(items, SkillItem{Name: name, Icon: strings.TrimSpace(icon)})
	}
	return items
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// formValues renders a stored row back into the text the admin form submits.
func formValues(t *Table, row Row) map[string]string {
	values := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		values[c.Name] = formatValue(c, row[c.Name])
	}
	return values
}

func formatValue(c Column, v interface{}) string {
	if v == nil {
		return ""
	}
	switch c.Type {
	case TypeStringList:
		var list []string
		if err := json.Unmarshal(rawBytes(v), &list); err != nil {
			return ""
		}
		return strings.Join(list, ", ")
	case TypeItemList:
		var items []SkillItem
		if err := json.Unmarshal(rawBytes(v), &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it.Icon != "" {
				parts = append(parts, it.Name+":"+it.Icon)
			} else {
				parts = append(parts, it.Name)
			}
		}
		return strings.Join(parts, ", ")
	case TypeTimestamp:
		if ts, ok := v.(time.Time); ok {
			return ts.Format("2006-01-02 15:04")
		}
	}
	switch x := v.(type) {
	case []byte:
		return string(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func rawBytes(v interface{}) []byte {
	switch x := v.(type) {
	case json.RawMessage:
		return x
	case datatypes.JSON:
		return x
	case []byte:
		return x
	case string:
		return []byte(x)
	}
	b, _ := json.Marshal(v)
	return b
}
