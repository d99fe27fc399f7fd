package wmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIcon(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "☀️"},
		{1, "⛅️"},
		{2, "⛅️"},
		{3, "☁️"},
		{48, "😶‍🌫️"},
		{80, "🌦️"},
		{57, "🌧️"},
		{65, "🌧️"},
		{86, "🌨️"},
		{95, "🌩️"},
		{96, "⛈️"},
		{99, "⛈️"},
		{4, Unrecognized},
		{-1, Unrecognized},
		{100, Unrecognized},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Icon(tt.code), "code %d", tt.code)
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup(99)
	assert.True(t, ok)
	assert.Equal(t, "Thunderstorm with hail", c.Description)

	_, ok = Lookup(4)
	assert.False(t, ok)
}

func TestTableSetsAreDisjoint(t *testing.T) {
	seen := make(map[int]bool)
	for _, s := range table {
		for _, code := range s.codes {
			assert.False(t, seen[code], "code %d appears in more than one set", code)
			seen[code] = true
		}
	}
}
