package util

import "strconv"

const (
	DefaultLimit      = 10
	AdminDefaultLimit = 100
	MaxLimit          = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Window clamps skip/limit query values.
func Window(skip, limit int) (offset, size int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}
