package provision

import "strings"

// extractJSONObject pulls the outermost {...} span from a completion that may
// be wrapped in prose or markdown fences.
func extractJSONObject(response string) (string, bool) {
	start := strings.Index(response, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(response, "}")
	if end <= start {
		return "", false
	}
	return response[start : end+1], true
}

// extractJSONArray pulls the outermost [...] span.
func extractJSONArray(response string) (string, bool) {
	start := strings.Index(response, "[")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(response, "]")
	if end <= start {
		return "", false
	}
	return response[start : end+1], true
}

// sqlString escapes a value for embedding in a single-quoted SQL literal.
func sqlString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// identifier uppercases a name and replaces characters Snowflake identifiers
// cannot carry.
func identifier(s string) string {
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "_")
	return strings.ToUpper(s)
}
