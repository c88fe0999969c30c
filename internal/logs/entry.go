package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded line of the JSON log file.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	ProjectID string
	JobID     int64
	Stage     string
	Fields    map[string]string
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "component": {}, "project_id": {}, "job_id": {}, "stage": {}, "source": {},
}

// ParseLine decodes a JSON log line. Lines that are not JSON objects report false.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{
		Level:     stringValue(raw["level"]),
		Message:   stringValue(raw["msg"]),
		Component: stringValue(raw["component"]),
		ProjectID: stringValue(raw["project_id"]),
		Stage:     stringValue(raw["stage"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringValue(raw["ts"])); err == nil {
		entry.Time = ts
	}
	if id, ok := raw["job_id"].(float64); ok {
		entry.JobID = int64(id)
	}
	for key, value := range raw {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]string)
		}
		entry.Fields[key] = stringValue(value)
	}
	return entry, true
}

// Line renders the entry on one line for terminals.
func (e Entry) Line() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(e.Level))
	if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	if e.ProjectID != "" {
		fmt.Fprintf(&b, " project %s", e.ProjectID)
	}
	if e.JobID > 0 {
		fmt.Fprintf(&b, " job #%d", e.JobID)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, " (%s)", e.Stage)
	}
	b.WriteString(" - ")
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, e.Fields[key])
	}
	return b.String()
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return fmt.Sprintf("%g", value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	}
}
