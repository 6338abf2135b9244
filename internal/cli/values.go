package cli

import (
	"strconv"
	"strings"
)

// parseValue converts a command line value: text containing a dot is read as
// a float, anything else as an integer. Text that is neither stays a string.
func parseValue(raw string) any {
	if strings.Contains(raw, ".") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	return raw
}

// parsePairs turns repeated key=value flags into a map. Later keys override
// earlier ones.
func parsePairs(pairs []string, what string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, usageErrorf("invalid %s %q: expected key=value", what, pair)
		}
		out[key] = parseValue(value)
	}
	return out, nil
}
