package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		page, size  int
		offset, lim int
	}{
		{page: 1, size: 10, offset: 0, lim: 10},
		{page: 3, size: 10, offset: 20, lim: 10},
		{page: 0, size: 0, offset: 0, lim: DefaultPageSize},
		{page: 2, size: 1000, offset: DefaultPageSize, lim: DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.offset, offset)
		assert.Equal(t, tt.lim, limit)
	}
}

func TestMeta(t *testing.T) {
	m := Meta(2, 10, 25)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	last := Meta(3, 10, 25)
	assert.False(t, last.HasNext)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 5, ParseIntDefault("5", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}
