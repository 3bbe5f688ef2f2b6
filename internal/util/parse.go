package util

import "strconv"

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseUint parses a string to a uint, returning an error if parsing fails.
// Used for numeric path parameters like thread and user IDs.
func ParseUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

// ParsePagination parses limit/offset query values, clamping limit to max.
func ParsePagination(limitStr, offsetStr string, max int) (limit, offset int) {
	limit = ParseInt(limitStr, 20)
	offset = ParseInt(offsetStr, 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
