package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		skip, limit       int
		wantOff, wantSize int
	}{
		{0, 0, 0, DefaultLimit},
		{-5, 20, 0, 20},
		{30, 1000, 30, MaxLimit},
		{3, 7, 3, 7},
	}
	for _, tt := range tests {
		off, size := Window(tt.skip, tt.limit)
		assert.Equal(t, tt.wantOff, off)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestAdminDefaultLimitFitsWindow(t *testing.T) {
	t.Parallel()
	_, size := Window(0, AdminDefaultLimit)
	assert.Equal(t, AdminDefaultLimit, size)
	assert.Greater(t, AdminDefaultLimit, DefaultLimit)
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("abc", 5))
	assert.Equal(t, 12, ParseIntDefault("12", 5))
}
