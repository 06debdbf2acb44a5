package results

import "strings"

const (
	DisplayItems = 20
	Ellipsis     = "..."
)

// SubItems counts newline-joined entries in an aggregate cell.
func SubItems(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// TruncateDisplay keeps the first limit newline-joined items of s and appends
// an ellipsis line when anything was cut.
func TruncateDisplay(s string, limit int) string {
	if limit <= 0 {
		limit = DisplayItems
	}
	items := strings.Split(s, "\n")
	if len(items) <= limit {
		return s
	}
	return strings.Join(items[:limit], "\n") + "\n" + Ellipsis
}

// DisplayRecord returns a copy of r with every multi-line string truncated.
func DisplayRecord(r Record, limit int) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if s, ok := v.(string); ok && strings.Contains(s, "\n") {
			out[k] = TruncateDisplay(s, limit)
			continue
		}
		out[k] = v
	}
	return out
}
